// Package apitest provides an in-process fake of the mini-app backend
// for exercising the client against realistic responses: the full REST
// surface, Telegram init-data authentication, and the per-user balance
// push over websocket.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/net/websocket"

	"github.com/tgdash/dashclient/types"
)

type contextKey string

const contextUserKey contextKey = "user"

type taskRow struct {
	ID     int64
	Title  string
	Reward decimal.Decimal
	Active bool
}

// Server is the fake backend. All state is in-memory and guarded by a
// single mutex.
type Server struct {
	botToken string
	adminIDs map[int64]bool
	httpSrv  *httptest.Server

	mu         sync.Mutex
	users      map[int64]*types.User
	tasks      []taskRow
	completed  map[int64]map[int64]bool
	referrals  map[int64][]types.Referral
	conns      map[int64][]*websocket.Conn
	nextTaskID int64
	nextRefID  int64
}

// NewServer starts a fake backend. Users whose ids appear in adminIDs
// register with the admin role.
func NewServer(t *testing.T, botToken string, adminIDs ...int64) *Server {
	t.Helper()

	s := &Server{
		botToken:  botToken,
		adminIDs:  make(map[int64]bool),
		users:     make(map[int64]*types.User),
		completed: make(map[int64]map[int64]bool),
		referrals: make(map[int64][]types.Referral),
		conns:     make(map[int64][]*websocket.Conn),
	}
	for _, id := range adminIDs {
		s.adminIDs[id] = true
	}

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/telegram", s.handleAuth)
		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/me", s.handleMe)
			r.Get("/tasks", s.handleTasks)
			r.Post("/tasks/{id}/complete", s.handleCompleteTask)
			r.Get("/referrals", s.handleReferrals)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/admin/users", s.handleAdminUsers)
				r.Post("/admin/user/{id}/ban", s.handleBan)
			})
		})
	})
	router.Handle("/ws/user/{id}", websocket.Handler(s.handleWS))

	s.httpSrv = httptest.NewServer(router)
	t.Cleanup(s.Close)
	return s
}

// URL returns the backend origin.
func (s *Server) URL() string {
	return s.httpSrv.URL
}

// Close shuts the backend down and drops all websocket connections.
func (s *Server) Close() {
	s.mu.Lock()
	for _, conns := range s.conns {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}
	s.conns = make(map[int64][]*websocket.Conn)
	s.mu.Unlock()
	s.httpSrv.Close()
}

// SeedUser registers a user directly, bypassing the auth exchange.
func (s *Server) SeedUser(user types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.users[u.ID] = &u
}

// SeedTask adds an active task and returns its id.
func (s *Server) SeedTask(title string, reward decimal.Decimal) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTaskID++
	s.tasks = append(s.tasks, taskRow{ID: s.nextTaskID, Title: title, Reward: reward, Active: true})
	return s.nextTaskID
}

// SeedReferral records a referral for the given referrer.
func (s *Server) SeedReferral(referrerID, referredID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRefID++
	s.referrals[referrerID] = append(s.referrals[referrerID], types.Referral{
		ID:         s.nextRefID,
		ReferredID: referredID,
	})
}

// User returns a copy of the stored user, if registered.
func (s *Server) User(id int64) (types.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return types.User{}, false
	}
	return *u, true
}

// ConnCount reports how many live connections the user currently has.
func (s *Server) ConnCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns[userID])
}

// WaitForConn blocks until the user has a live connection.
func (s *Server) WaitForConn(t *testing.T, userID int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.ConnCount(userID) > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no live connection for user %d", userID)
}

// PushBalance sends a balance frame to every connection of the user.
func (s *Server) PushBalance(userID int64, balance decimal.Decimal) {
	s.pushRaw(userID, `{"balance":"`+balance.String()+`"}`)
}

// PushRaw sends an arbitrary text frame, valid or not.
func (s *Server) PushRaw(userID int64, payload string) {
	s.pushRaw(userID, payload)
}

func (s *Server) pushRaw(userID int64, payload string) {
	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.conns[userID]...)
	s.mu.Unlock()
	for _, conn := range conns {
		_ = websocket.Message.Send(conn, payload)
	}
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.authenticate(r.Header.Get("X-Telegram-Init-Data"))
		if err != nil {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		ctx := contextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil || !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate validates init data and resolves the registered user.
func (s *Server) authenticate(initData string) (types.User, error) {
	tgUser, _, err := ValidateInitData(s.botToken, initData)
	if err != nil {
		return types.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[tgUser.ID]
	if !ok {
		return types.User{}, errUserNotRegistered
	}
	if user.IsBanned {
		return types.User{}, errUserBanned
	}
	return *user, nil
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InitData string `json:"initData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	tgUser, values, err := ValidateInitData(s.botToken, req.InitData)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[tgUser.ID]
	if !ok {
		role := types.RoleUser
		if s.adminIDs[tgUser.ID] {
			role = types.RoleAdmin
		}
		user = &types.User{
			ID:           tgUser.ID,
			Username:     tgUser.Username,
			Role:         role,
			RegisteredAt: time.Now().UTC(),
		}
		s.users[tgUser.ID] = user
		s.recordReferral(user, values.Get("start_param"))
	} else {
		if user.IsBanned {
			writeError(w, http.StatusForbidden, "User is banned")
			return
		}
		if tgUser.Username != "" && user.Username != tgUser.Username {
			user.Username = tgUser.Username
		}
	}
	writeJSON(w, http.StatusOK, *user)
}

// recordReferral links a newly registered user to the referrer named in
// a ref_<id> start param. Callers hold the mutex.
func (s *Server) recordReferral(user *types.User, startParam string) {
	if !strings.HasPrefix(startParam, "ref_") {
		return
	}
	referrerID, err := strconv.ParseInt(strings.TrimPrefix(startParam, "ref_"), 10, 64)
	if err != nil || referrerID == user.ID {
		return
	}
	if _, ok := s.users[referrerID]; !ok {
		return
	}
	user.ReferrerID = &referrerID
	s.nextRefID++
	s.referrals[referrerID] = append(s.referrals[referrerID], types.Referral{
		ID:         s.nextRefID,
		ReferredID: user.ID,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "User not registered")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "User not registered")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]types.Task, 0, len(s.tasks))
	for _, row := range s.tasks {
		if !row.Active {
			continue
		}
		tasks = append(tasks, types.Task{
			ID:        row.ID,
			Title:     row.Title,
			Reward:    row.Reward,
			Completed: s.completed[user.ID][row.ID],
		})
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "User not registered")
		return
	}
	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	s.mu.Lock()
	var task *taskRow
	for i := range s.tasks {
		if s.tasks[i].ID == taskID && s.tasks[i].Active {
			task = &s.tasks[i]
			break
		}
	}
	if task == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if s.completed[user.ID][taskID] {
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"status": "already_completed"})
		return
	}
	if s.completed[user.ID] == nil {
		s.completed[user.ID] = make(map[int64]bool)
	}
	s.completed[user.ID][taskID] = true
	stored := s.users[user.ID]
	stored.Balance = stored.Balance.Add(task.Reward)
	balance := stored.Balance
	s.mu.Unlock()

	s.PushBalance(user.ID, balance)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "completed",
		"balance": balance.String(),
	})
}

func (s *Server) handleReferrals(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusForbidden, "User not registered")
		return
	}
	s.mu.Lock()
	referrals := append([]types.Referral(nil), s.referrals[user.ID]...)
	s.mu.Unlock()
	if referrals == nil {
		referrals = []types.Referral{}
	}
	writeJSON(w, http.StatusOK, referrals)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := make([]types.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleBan(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	var req struct {
		IsBanned bool `json:"is_banned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	s.mu.Lock()
	target, ok := s.users[targetID]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	target.IsBanned = req.IsBanned
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        targetID,
		"is_banned": req.IsBanned,
	})
}

func (s *Server) handleWS(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	r := conn.Request()
	pathID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return
	}
	initData := r.URL.Query().Get("initData")
	tgUser, _, err := ValidateInitData(s.botToken, initData)
	if err != nil || tgUser.ID != pathID {
		return
	}

	s.mu.Lock()
	s.conns[pathID] = append(s.conns[pathID], conn)
	s.mu.Unlock()
	defer s.dropConn(pathID, conn)

	// The client never sends; block until the peer goes away.
	for {
		var discard string
		if err := websocket.Message.Receive(conn, &discard); err != nil {
			return
		}
	}
}

func (s *Server) dropConn(userID int64, conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := s.conns[userID]
	for i, c := range conns {
		if c == conn {
			s.conns[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(s.conns[userID]) == 0 {
		delete(s.conns, userID)
	}
}
