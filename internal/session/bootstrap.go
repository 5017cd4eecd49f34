package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tgdash/dashclient/internal/state"
	"github.com/tgdash/dashclient/types"
)

// API is the backend surface bootstrapping runs against.
type API interface {
	InitData() string
	Authenticate(ctx context.Context) error
	Me(ctx context.Context) (types.User, error)
	Tasks(ctx context.Context) ([]types.Task, error)
	Referrals(ctx context.Context) ([]types.Referral, error)
}

// Bootstrap establishes the session and loads the initial snapshot.
//
// When the client carries a launch assertion it is exchanged first;
// a rejected assertion is fatal, there is no fallback to an anonymous
// session. The profile is loaded next, then tasks and referrals
// concurrently. Either of those failing fails the whole bootstrap — no
// partial snapshot is ever returned. Re-running is idempotent but
// re-executes every step.
func Bootstrap(ctx context.Context, api API) (state.Snapshot, error) {
	if api.InitData() != "" {
		if err := api.Authenticate(ctx); err != nil {
			return state.Snapshot{}, fmt.Errorf("authenticate: %w", err)
		}
	}

	self, err := api.Me(ctx)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("load profile: %w", err)
	}

	var (
		tasks     []types.Task
		referrals []types.Referral
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = api.Tasks(gctx)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		referrals, err = api.Referrals(gctx)
		if err != nil {
			return fmt.Errorf("load referrals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return state.Snapshot{}, err
	}

	return state.Snapshot{
		Self:      &self,
		Tasks:     tasks,
		Referrals: referrals,
	}, nil
}
