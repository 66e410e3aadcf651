package models

import "time"

type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like-new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
)

// PointValue returns the points an item in this condition is worth. Unknown
// conditions are valued as "good".
func (c Condition) PointValue() int {
	switch c {
	case ConditionNew:
		return 50
	case ConditionLikeNew:
		return 40
	case ConditionFair:
		return 20
	default:
		return 30
	}
}

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	}
	return false
}

type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemApproved ItemStatus = "approved"
	ItemRejected ItemStatus = "rejected"
)

type SwapKind string

const (
	SwapKindSwap   SwapKind = "swap"
	SwapKindPoints SwapKind = "points"
)

type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"
	SwapAccepted  SwapStatus = "accepted"
	SwapRejected  SwapStatus = "rejected"
	SwapCompleted SwapStatus = "completed"
)

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Points     int       `json:"points"`
	IsAdmin    bool      `json:"isAdmin"`
	Avatar     string    `json:"avatar,omitempty"`
	JoinedDate time.Time `json:"joinedDate"`
}

type Item struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Type         string     `json:"type"`
	Size         string     `json:"size"`
	Condition    Condition  `json:"condition"`
	Tags         []string   `json:"tags"`
	Images       []string   `json:"images"`
	UploaderID   string     `json:"uploaderId"`
	UploaderName string     `json:"uploaderName"`
	PointValue   int        `json:"pointValue"`
	IsAvailable  bool       `json:"isAvailable"`
	Status       ItemStatus `json:"status"`
	UploadDate   time.Time  `json:"uploadDate"`
}

// PrimaryImage returns the first image reference, or "" when the item has none.
func (i Item) PrimaryImage() string {
	if len(i.Images) == 0 {
		return ""
	}
	return i.Images[0]
}

type SwapRequest struct {
	ID               string     `json:"id"`
	RequesterID      string     `json:"requesterId"`
	RequesterName    string     `json:"requesterName"`
	ItemID           string     `json:"itemId"`
	ItemTitle        string     `json:"itemTitle"`
	OfferedItemID    string     `json:"offeredItemId,omitempty"`
	OfferedItemTitle string     `json:"offeredItemTitle,omitempty"`
	Type             SwapKind   `json:"type"`
	Status           SwapStatus `json:"status"`
	RequestDate      time.Time  `json:"requestDate"`
	Message          string     `json:"message,omitempty"`
}

// Ledger event types.
const (
	EventSignupGrant  = "signup_grant"
	EventRedeemDebit  = "redeem_debit"
	EventRedeemCredit = "redeem_credit"
)

type PointLedger struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        string    `json:"userId" gorm:"index;not null"`
	Change        int       `json:"change" gorm:"not null"`
	BalanceAfter  int       `json:"balanceAfter" gorm:"not null"`
	EventType     string    `json:"eventType" gorm:"not null"`
	SwapRequestID *string   `json:"swapRequestId" gorm:"index"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Record is one key of the flat record store as kept in SQLite.
type Record struct {
	Key       string `gorm:"column:record_key;primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}
