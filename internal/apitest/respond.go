package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tgdash/dashclient/types"
)

var (
	errUserNotRegistered = errors.New("User not registered")
	errUserBanned        = errors.New("User is banned")
)

// ErrorResponse mirrors the backend's error body shape.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func contextWithUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

func userFromContext(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok {
		return types.User{}, errors.New("missing user")
	}
	return user, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Detail: message})
}
