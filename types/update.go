package types

import "github.com/shopspring/decimal"

// BalanceUpdate is the inbound live-channel message. The backend pushes
// one whenever the user's balance changes; any other fields on the wire
// are ignored.
type BalanceUpdate struct {
	Balance decimal.Decimal `json:"balance"`
}
