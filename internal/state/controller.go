package state

import (
	"context"
	"sync"

	"github.com/tgdash/dashclient/types"
)

// Tab identifies the active dashboard view. Purely presentational; the
// admin tab additionally gates the lazy admin-list fetch.
type Tab string

const (
	TabHome      Tab = "home"
	TabTasks     Tab = "tasks"
	TabReferrals Tab = "referrals"
	TabAdmin     Tab = "admin"
)

// API is the backend surface the controller mutates and resyncs
// through.
type API interface {
	Me(ctx context.Context) (types.User, error)
	Tasks(ctx context.Context) ([]types.Task, error)
	CompleteTask(ctx context.Context, id int64) error
	AdminUsers(ctx context.Context) ([]types.User, error)
	BanUser(ctx context.Context, id int64, banned bool) error
}

// Controller owns the only mutable snapshot. All reads and writes go
// through its methods; the mutex serializes the live channel's patches
// against user-initiated refetches, and the last write to a field wins.
type Controller struct {
	api API

	mu     sync.Mutex
	snap   Snapshot
	errMsg string
	tab    Tab
}

func NewController(api API) *Controller {
	return &Controller{api: api, tab: TabHome}
}

// SetSnapshot replaces the snapshot wholesale and clears the error
// banner.
func (c *Controller) SetSnapshot(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	c.errMsg = ""
}

// Snapshot returns a copy of the current snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// Err returns the current error banner text, empty when none.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Controller) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = err.Error()
}

// ApplyBalance patches the self user's balance from a live-channel
// message. A no-op while no self user is loaded; updates are not
// queued.
func (c *Controller) ApplyBalance(update types.BalanceUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.Self == nil {
		return
	}
	c.snap.Self.Balance = update.Balance
}

// CompleteTask marks the task complete server-side, then resyncs the
// task list followed by the self profile. There is no optimistic
// update: on failure the prior state stays as it was and the error
// banner is set.
func (c *Controller) CompleteTask(ctx context.Context, id int64) error {
	if err := c.api.CompleteTask(ctx, id); err != nil {
		c.setErr(err)
		return err
	}

	tasks, err := c.api.Tasks(ctx)
	if err != nil {
		c.setErr(err)
		return err
	}
	c.mu.Lock()
	c.snap.Tasks = tasks
	c.mu.Unlock()

	self, err := c.api.Me(ctx)
	if err != nil {
		c.setErr(err)
		return err
	}
	c.mu.Lock()
	c.snap.Self = &self
	c.errMsg = ""
	c.mu.Unlock()
	return nil
}

// ToggleBan flips the target user's banned flag server-side and resyncs
// the admin list. The backend enforces authorization; the controller
// only trusts its rejection.
func (c *Controller) ToggleBan(ctx context.Context, target types.User) error {
	if err := c.api.BanUser(ctx, target.ID, !target.IsBanned); err != nil {
		c.setErr(err)
		return err
	}

	users, err := c.api.AdminUsers(ctx)
	if err != nil {
		c.setErr(err)
		return err
	}
	c.mu.Lock()
	c.snap.AdminUsers = users
	c.errMsg = ""
	c.mu.Unlock()
	return nil
}

// ActiveTab returns the current tab.
func (c *Controller) ActiveTab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// SetActiveTab switches tabs. Entering the admin tab fetches the admin
// list, but only when the self user is an admin; the list is dropped on
// every switch so re-entry always refetches.
func (c *Controller) SetActiveTab(ctx context.Context, tab Tab) error {
	c.mu.Lock()
	c.tab = tab
	c.snap.AdminUsers = nil
	isAdmin := c.snap.Self != nil && c.snap.Self.IsAdmin()
	c.mu.Unlock()

	if tab != TabAdmin || !isAdmin {
		return nil
	}

	users, err := c.api.AdminUsers(ctx)
	if err != nil {
		c.setErr(err)
		return err
	}
	c.mu.Lock()
	c.snap.AdminUsers = users
	c.mu.Unlock()
	return nil
}
