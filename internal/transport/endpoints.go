package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tgdash/dashclient/types"
)

// AuthRequest is the body of the session-establishing exchange.
type AuthRequest struct {
	InitData string `json:"initData"`
}

// BanRequest sets the target user's banned flag.
type BanRequest struct {
	IsBanned bool `json:"is_banned"`
}

// Authenticate exchanges the launch assertion for a backend session.
// The backend registers the user on first contact; the response body is
// ignored, callers load the profile through Me afterwards.
func (c *Client) Authenticate(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/auth/telegram", AuthRequest{InitData: c.initData}, nil)
}

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context) (types.User, error) {
	var user types.User
	err := c.Do(ctx, http.MethodGet, "/me", nil, &user)
	return user, err
}

// Tasks fetches the active task list with the user's completion flags.
func (c *Client) Tasks(ctx context.Context) ([]types.Task, error) {
	var tasks []types.Task
	err := c.Do(ctx, http.MethodGet, "/tasks", nil, &tasks)
	return tasks, err
}

// CompleteTask marks the task complete for the current user. The
// response is ignored; callers refetch tasks and profile to resync.
func (c *Client) CompleteTask(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodPost, fmt.Sprintf("/tasks/%d/complete", id), nil, nil)
}

// Referrals fetches the current user's referrals.
func (c *Client) Referrals(ctx context.Context) ([]types.Referral, error) {
	var referrals []types.Referral
	err := c.Do(ctx, http.MethodGet, "/referrals", nil, &referrals)
	return referrals, err
}

// AdminUsers fetches all users. The backend rejects non-admin callers.
func (c *Client) AdminUsers(ctx context.Context) ([]types.User, error) {
	var users []types.User
	err := c.Do(ctx, http.MethodGet, "/admin/users", nil, &users)
	return users, err
}

// BanUser sets the target user's banned flag. The response is ignored;
// callers refetch the admin list to resync.
func (c *Client) BanUser(ctx context.Context, id int64, banned bool) error {
	return c.Do(ctx, http.MethodPost, fmt.Sprintf("/admin/user/%d/ban", id), BanRequest{IsBanned: banned}, nil)
}
