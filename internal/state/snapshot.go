package state

import "github.com/tgdash/dashclient/types"

// Snapshot is the client's complete cached view of server state at a
// point in time. AdminUsers is populated only while the self user holds
// the admin role and the admin tab is active.
type Snapshot struct {
	Self       *types.User
	Tasks      []types.Task
	Referrals  []types.Referral
	AdminUsers []types.User
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Tasks:      append([]types.Task(nil), s.Tasks...),
		Referrals:  append([]types.Referral(nil), s.Referrals...),
		AdminUsers: append([]types.User(nil), s.AdminUsers...),
	}
	if s.Self != nil {
		self := *s.Self
		out.Self = &self
	}
	return out
}
