package types

import "github.com/shopspring/decimal"

// Task is a reward task as served by the backend. Completed reflects
// the requesting user's own progress and only ever flips false to true.
type Task struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Reward    decimal.Decimal `json:"reward"`
	Completed bool            `json:"completed"`
}

// Referral is one account registered through the user's invite link.
// Read-only from the client's perspective.
type Referral struct {
	ID         int64 `json:"id"`
	ReferredID int64 `json:"referred_id"`
	RewardPaid bool  `json:"reward_paid"`
}
