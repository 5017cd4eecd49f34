package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Roles a user account can hold. The backend assigns them at
// registration; the client only ever reads them.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the mini-app backend.
// The client holds a cached copy; the server owns the record.
type User struct {
	// ID is the Telegram user id, used as the account's primary key.
	ID int64 `json:"id"`

	// Username is the Telegram handle, if the user has one.
	Username string `json:"username,omitempty"`

	// Balance is the user's current reward balance. The backend
	// serializes it as a decimal string.
	Balance decimal.Decimal `json:"balance"`

	// ReferrerID identifies the user whose invite link registered
	// this account, if any.
	ReferrerID *int64 `json:"referrer_id,omitempty"`

	// Role indicates the user's authorization level
	// (RoleUser or RoleAdmin).
	Role string `json:"role"`

	// RegisteredAt is the timestamp when the account was created.
	RegisteredAt time.Time `json:"registered_at,omitzero"`

	// IsBanned marks accounts the backend refuses to serve.
	IsBanned bool `json:"is_banned"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
