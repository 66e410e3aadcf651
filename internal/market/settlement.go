package market

import (
	"slices"
	"time"

	"github.com/sahil-darj/Rewear/internal/models"
)

// Settlement reports the outcome of accepting a swap request.
type Settlement struct {
	Request   models.SwapRequest `json:"request"`
	ItemFound bool               `json:"itemFound"`
	Debited   int                `json:"debited"`
	Credited  int                `json:"credited"`
}

// settle computes the user table after ownerID accepts req. Only points
// requests against a resolved item move points. The requester is debited by
// the item's value floored at zero; the owner is credited the full value
// whether or not the requester record exists. A requester who is also the
// owner moves nothing. Balances stored below zero are treated as zero.
func settle(users []models.User, req models.SwapRequest, item models.Item, itemFound bool, ownerID string, now time.Time) ([]models.User, []models.PointLedger, Settlement) {
	next := slices.Clone(users)
	result := Settlement{ItemFound: itemFound}
	if req.Type != models.SwapKindPoints || !itemFound || req.RequesterID == ownerID {
		return next, nil, result
	}

	value := max(item.PointValue, 0)
	ref := req.ID
	var entries []models.PointLedger

	if i := slices.IndexFunc(next, func(u models.User) bool { return u.ID == req.RequesterID }); i >= 0 {
		before := next[i].Points
		next[i].Points = max(0, before-value)
		result.Debited = max(0, before-next[i].Points)
		entries = append(entries, models.PointLedger{
			UserID:        next[i].ID,
			Change:        next[i].Points - before,
			BalanceAfter:  next[i].Points,
			EventType:     models.EventRedeemDebit,
			SwapRequestID: &ref,
			CreatedAt:     now,
		})
	}

	if i := slices.IndexFunc(next, func(u models.User) bool { return u.ID == ownerID }); i >= 0 {
		before := next[i].Points
		next[i].Points = max(0, before) + value
		result.Credited = value
		entries = append(entries, models.PointLedger{
			UserID:        next[i].ID,
			Change:        next[i].Points - before,
			BalanceAfter:  next[i].Points,
			EventType:     models.EventRedeemCredit,
			SwapRequestID: &ref,
			CreatedAt:     now,
		})
	}

	return next, entries, result
}
