package market

import (
	"context"
	"time"

	"github.com/sahil-darj/Rewear/internal/models"
	"github.com/sahil-darj/Rewear/internal/store"
)

type NewSwapRequest struct {
	RequesterID      string
	RequesterName    string
	ItemID           string
	ItemTitle        string
	OfferedItemID    string
	OfferedItemTitle string
	Type             models.SwapKind
	Message          string
}

type SwapRequestPatch struct {
	Status           *models.SwapStatus `json:"status,omitempty"`
	Message          *string            `json:"message,omitempty"`
	OfferedItemID    *string            `json:"offeredItemId,omitempty"`
	OfferedItemTitle *string            `json:"offeredItemTitle,omitempty"`
}

func (p SwapRequestPatch) apply(req models.SwapRequest) models.SwapRequest {
	if p.Status != nil {
		req.Status = *p.Status
	}
	if p.Message != nil {
		req.Message = *p.Message
	}
	if p.OfferedItemID != nil {
		req.OfferedItemID = *p.OfferedItemID
	}
	if p.OfferedItemTitle != nil {
		req.OfferedItemTitle = *p.OfferedItemTitle
	}
	return req
}

// SwapLedger is the in-memory swap request list mirrored to the
// rewear_swap_requests record. It is not safe for concurrent use.
type SwapLedger struct {
	rec   store.Records
	rows  mirror[models.SwapRequest]
	now   func() time.Time
	newID func() string
}

func NewSwapLedger(rec store.Records, now func() time.Time, newID func() string) *SwapLedger {
	return &SwapLedger{
		rec:   rec,
		rows:  mirror[models.SwapRequest]{key: store.KeySwapRequests, id: func(r models.SwapRequest) string { return r.ID }},
		now:   now,
		newID: newID,
	}
}

func (l *SwapLedger) Load(ctx context.Context) error { return l.rows.load(ctx, l.rec) }

// Add assigns an identifier and request date, appends the request as pending
// and persists the ledger.
func (l *SwapLedger) Add(ctx context.Context, data NewSwapRequest) (models.SwapRequest, error) {
	req := models.SwapRequest{
		ID:               l.newID(),
		RequesterID:      data.RequesterID,
		RequesterName:    data.RequesterName,
		ItemID:           data.ItemID,
		ItemTitle:        data.ItemTitle,
		OfferedItemID:    data.OfferedItemID,
		OfferedItemTitle: data.OfferedItemTitle,
		Type:             data.Type,
		Status:           models.SwapPending,
		RequestDate:      l.now().UTC(),
		Message:          data.Message,
	}
	if err := l.rows.persist(ctx, l.rec, l.rows.appended(req)); err != nil {
		return models.SwapRequest{}, err
	}
	return req, nil
}

// Update merges patch into the request with the given id; a missing id is
// silently ignored.
func (l *SwapLedger) Update(ctx context.Context, id string, patch SwapRequestPatch) error {
	next, ok := l.rows.replaced(id, patch.apply)
	if !ok {
		return nil
	}
	return l.rows.persist(ctx, l.rec, next)
}

func (l *SwapLedger) Find(id string) (models.SwapRequest, bool) { return l.rows.find(id) }

func (l *SwapLedger) All() []models.SwapRequest { return l.rows.all() }

// ListByUser returns the requests userID made plus the requests against items
// userID currently owns. Ownership is resolved through catalog on every call;
// a request whose item is gone stays visible to its requester only.
func (l *SwapLedger) ListByUser(userID string, catalog *Catalog) []models.SwapRequest {
	out := []models.SwapRequest{}
	for _, req := range l.rows.rows {
		if req.RequesterID == userID {
			out = append(out, req)
			continue
		}
		if owner, ok := catalog.owner(req.ItemID); ok && owner == userID {
			out = append(out, req)
		}
	}
	return out
}
