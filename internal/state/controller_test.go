package state

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tgdash/dashclient/types"
)

type call struct {
	name   string
	id     int64
	banned bool
}

type fakeAPI struct {
	calls []call

	self     types.User
	meErr    error
	tasks    []types.Task
	tasksErr error
	users    []types.User
	usersErr error

	completeErr error
	banErr      error
}

func (f *fakeAPI) Me(ctx context.Context) (types.User, error) {
	f.calls = append(f.calls, call{name: "me"})
	return f.self, f.meErr
}

func (f *fakeAPI) Tasks(ctx context.Context) ([]types.Task, error) {
	f.calls = append(f.calls, call{name: "tasks"})
	return f.tasks, f.tasksErr
}

func (f *fakeAPI) CompleteTask(ctx context.Context, id int64) error {
	f.calls = append(f.calls, call{name: "complete", id: id})
	return f.completeErr
}

func (f *fakeAPI) AdminUsers(ctx context.Context) ([]types.User, error) {
	f.calls = append(f.calls, call{name: "admin_users"})
	return f.users, f.usersErr
}

func (f *fakeAPI) BanUser(ctx context.Context, id int64, banned bool) error {
	f.calls = append(f.calls, call{name: "ban", id: id, banned: banned})
	return f.banErr
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompleteTaskResyncsTasksThenSelf(t *testing.T) {
	api := &fakeAPI{
		self: types.User{ID: 7, Role: types.RoleUser, Balance: dec("15")},
		tasks: []types.Task{
			{ID: 3, Title: "Join community", Reward: dec("5"), Completed: true},
		},
	}
	c := NewController(api)
	c.SetSnapshot(Snapshot{
		Self:  &types.User{ID: 7, Role: types.RoleUser, Balance: dec("10")},
		Tasks: []types.Task{{ID: 3, Title: "Join community", Reward: dec("5")}},
	})

	if err := c.CompleteTask(context.Background(), 3); err != nil {
		t.Fatalf("complete task: %v", err)
	}

	if len(api.calls) != 3 {
		t.Fatalf("unexpected calls: %v", api.calls)
	}
	if api.calls[0].name != "complete" || api.calls[0].id != 3 {
		t.Fatalf("expected complete first, got %v", api.calls)
	}
	if api.calls[1].name != "tasks" || api.calls[2].name != "me" {
		t.Fatalf("expected tasks then me, got %v", api.calls)
	}

	snap := c.Snapshot()
	if !snap.Tasks[0].Completed {
		t.Fatalf("task not completed in snapshot")
	}
	if !snap.Self.Balance.Equal(dec("15")) {
		t.Fatalf("unexpected balance: %s", snap.Self.Balance)
	}
	if c.Err() != "" {
		t.Fatalf("unexpected error banner: %q", c.Err())
	}
}

func TestCompleteTaskFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeAPI{completeErr: errors.New("Task not found")}
	c := NewController(api)
	before := Snapshot{
		Self:  &types.User{ID: 7, Balance: dec("10")},
		Tasks: []types.Task{{ID: 3, Reward: dec("5")}},
	}
	c.SetSnapshot(before)

	if err := c.CompleteTask(context.Background(), 3); err == nil {
		t.Fatalf("expected error")
	}

	snap := c.Snapshot()
	if snap.Tasks[0].Completed {
		t.Fatalf("task marked completed despite failure")
	}
	if !snap.Self.Balance.Equal(dec("10")) {
		t.Fatalf("balance changed despite failure: %s", snap.Self.Balance)
	}
	if c.Err() != "Task not found" {
		t.Fatalf("error banner not surfaced: %q", c.Err())
	}
}

func TestApplyBalancePatchesSelfOnly(t *testing.T) {
	c := NewController(&fakeAPI{})
	c.SetSnapshot(Snapshot{
		Self:  &types.User{ID: 7, Username: "tester", Role: types.RoleUser, Balance: dec("10")},
		Tasks: []types.Task{{ID: 3}},
	})

	c.ApplyBalance(types.BalanceUpdate{Balance: dec("42")})

	snap := c.Snapshot()
	if !snap.Self.Balance.Equal(dec("42")) {
		t.Fatalf("balance not patched: %s", snap.Self.Balance)
	}
	if snap.Self.Username != "tester" || snap.Self.ID != 7 {
		t.Fatalf("other self fields changed: %+v", snap.Self)
	}
	if len(snap.Tasks) != 1 {
		t.Fatalf("tasks changed: %+v", snap.Tasks)
	}
}

func TestApplyBalanceWithoutSelfIsNoOp(t *testing.T) {
	c := NewController(&fakeAPI{})
	c.ApplyBalance(types.BalanceUpdate{Balance: dec("42")})

	if snap := c.Snapshot(); snap.Self != nil {
		t.Fatalf("update applied with no self user: %+v", snap.Self)
	}
}

func TestToggleBanNegatesAndRefetches(t *testing.T) {
	api := &fakeAPI{
		users: []types.User{{ID: 9, IsBanned: true}},
	}
	c := NewController(api)
	c.SetSnapshot(Snapshot{Self: &types.User{ID: 7, Role: types.RoleAdmin}})

	target := types.User{ID: 9, IsBanned: false}
	if err := c.ToggleBan(context.Background(), target); err != nil {
		t.Fatalf("toggle ban: %v", err)
	}

	if len(api.calls) != 2 {
		t.Fatalf("unexpected calls: %v", api.calls)
	}
	if api.calls[0].name != "ban" || api.calls[0].id != 9 || !api.calls[0].banned {
		t.Fatalf("expected ban with negated flag, got %+v", api.calls[0])
	}
	if api.calls[1].name != "admin_users" {
		t.Fatalf("expected admin list refetch, got %v", api.calls)
	}

	snap := c.Snapshot()
	if len(snap.AdminUsers) != 1 || !snap.AdminUsers[0].IsBanned {
		t.Fatalf("admin list not resynced: %+v", snap.AdminUsers)
	}
}

func TestToggleBanFailureLeavesListUnchanged(t *testing.T) {
	api := &fakeAPI{banErr: errors.New("Admin only")}
	c := NewController(api)
	c.SetSnapshot(Snapshot{
		Self:       &types.User{ID: 7, Role: types.RoleAdmin},
		AdminUsers: []types.User{{ID: 9}},
	})

	if err := c.ToggleBan(context.Background(), types.User{ID: 9}); err == nil {
		t.Fatalf("expected error")
	}
	snap := c.Snapshot()
	if len(snap.AdminUsers) != 1 || snap.AdminUsers[0].IsBanned {
		t.Fatalf("admin list changed despite failure: %+v", snap.AdminUsers)
	}
	if c.Err() != "Admin only" {
		t.Fatalf("error banner not surfaced: %q", c.Err())
	}
}

func TestAdminTabFetchesOnlyForAdmins(t *testing.T) {
	api := &fakeAPI{users: []types.User{{ID: 9}}}
	c := NewController(api)
	c.SetSnapshot(Snapshot{Self: &types.User{ID: 7, Role: types.RoleUser}})

	if err := c.SetActiveTab(context.Background(), TabAdmin); err != nil {
		t.Fatalf("set tab: %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("admin list fetched for non-admin: %v", api.calls)
	}
	if snap := c.Snapshot(); snap.AdminUsers != nil {
		t.Fatalf("admin list populated for non-admin: %+v", snap.AdminUsers)
	}
}

func TestAdminTabRefetchesOnEveryActivation(t *testing.T) {
	api := &fakeAPI{users: []types.User{{ID: 9}}}
	c := NewController(api)
	c.SetSnapshot(Snapshot{Self: &types.User{ID: 7, Role: types.RoleAdmin}})

	if err := c.SetActiveTab(context.Background(), TabAdmin); err != nil {
		t.Fatalf("first activation: %v", err)
	}
	if err := c.SetActiveTab(context.Background(), TabTasks); err != nil {
		t.Fatalf("switch away: %v", err)
	}
	if snap := c.Snapshot(); snap.AdminUsers != nil {
		t.Fatalf("admin list cached across tab switch: %+v", snap.AdminUsers)
	}
	if err := c.SetActiveTab(context.Background(), TabAdmin); err != nil {
		t.Fatalf("second activation: %v", err)
	}

	fetches := 0
	for _, got := range api.calls {
		if got.name == "admin_users" {
			fetches++
		}
	}
	if fetches != 2 {
		t.Fatalf("expected 2 admin fetches, got %d", fetches)
	}
	if c.ActiveTab() != TabAdmin {
		t.Fatalf("unexpected active tab: %s", c.ActiveTab())
	}
}
