package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/model"
)

// Request is one call received by the fake backend, with the /api prefix
// stripped from Path.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

type failure struct {
	status  int
	message string
}

// Backend is an in-memory hospital API served over httptest. Fields may be
// seeded before the first request; afterwards use the accessor methods.
type Backend struct {
	Server *httptest.Server

	// Token, when set, is required as the Bearer token on every request
	// except login.
	Token string

	mu            sync.Mutex
	notifications []model.Notification
	unreadCount   *int
	users         []model.User
	hospital      *model.Hospital
	resources     []model.Resource
	requests      []Request
	failures      map[string]failure
}

// NewBackend starts a fake backend that is closed when the test completes.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{failures: make(map[string]failure)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/{$}", b.login)
	mux.HandleFunc("GET /auth/me/{$}", b.me)
	mux.HandleFunc("POST /auth/logout/{$}", b.ack)

	mux.HandleFunc("GET /notifications/{$}", b.listNotifications)
	mux.HandleFunc("POST /notifications/{id}/read/{$}", b.markRead)
	mux.HandleFunc("POST /notifications/mark-all-read/{$}", b.markAllRead)
	mux.HandleFunc("DELETE /notifications/{id}/{$}", b.deleteNotification)
	mux.HandleFunc("POST /notifications/broadcast/{$}", b.ack)

	mux.HandleFunc("GET /hospital/{$}", b.getHospital)
	mux.HandleFunc("POST /hospital/{$}", b.saveHospital)
	mux.HandleFunc("PUT /hospital/{$}", b.saveHospital)

	mux.HandleFunc("GET /users/{$}", b.listUsers)
	mux.HandleFunc("PATCH /users/{id}", b.updateUser)
	mux.HandleFunc("POST /users/{id}/activate", b.setActive(true))
	mux.HandleFunc("POST /users/{id}/deactivate", b.setActive(false))

	mux.HandleFunc("GET /resources/{$}", b.listResources)
	mux.HandleFunc("DELETE /resources/{id}", b.deleteResource)

	b.Server = httptest.NewServer(http.StripPrefix("/api", b.intercept(mux)))
	t.Cleanup(b.Server.Close)

	return b
}

// URL returns the API base URL, including the /api prefix.
func (b *Backend) URL() string {
	return b.Server.URL + "/api"
}

// Client returns an api.Client pointed at the backend using b.Token.
func (b *Backend) Client() *api.Client {
	return api.NewClient(b.URL(), b.Token, api.WithTimeout(5*time.Second))
}

// SetNotifications replaces the stored notifications.
func (b *Backend) SetNotifications(ns ...model.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications = append([]model.Notification(nil), ns...)
}

// SetUnreadCount makes the list endpoint report n instead of counting.
func (b *Backend) SetUnreadCount(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unreadCount = &n
}

// Notifications returns a copy of the stored notifications.
func (b *Backend) Notifications() []model.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Notification(nil), b.notifications...)
}

// SetUsers replaces the stored users.
func (b *Backend) SetUsers(us ...model.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append([]model.User(nil), us...)
}

// Users returns a copy of the stored users.
func (b *Backend) Users() []model.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.User(nil), b.users...)
}

// SetHospital stores h; nil makes GET /hospital/ return 404.
func (b *Backend) SetHospital(h *model.Hospital) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hospital = h
}

// Hospital returns the stored hospital, or nil.
func (b *Backend) Hospital() *model.Hospital {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hospital == nil {
		return nil
	}
	h := *b.hospital
	return &h
}

// SetResources replaces the stored resources.
func (b *Backend) SetResources(rs ...model.Resource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resources = append([]model.Resource(nil), rs...)
}

// Fail makes every subsequent request matching method and path answer with
// status and an {"error": message} body. An empty message sends no body.
func (b *Backend) Fail(method, path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, message: message}
}

// Requests returns every request received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Calls returns the requests matching method and path.
func (b *Backend) Calls(method, path string) []Request {
	var out []Request
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   body,
		})
		f, failing := b.failures[r.Method+" "+r.URL.Path]
		token := b.Token
		b.mu.Unlock()

		if token != "" && r.URL.Path != "/auth/login/" &&
			r.Header.Get("Authorization") != "Bearer "+token {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		if failing {
			writeError(w, f.status, f.message)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	b.mu.Lock()
	if b.Token == "" {
		b.Token = "token-" + req.Username
	}
	token := b.Token
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, model.Session{
		Token: token,
		User:  model.User{ID: 1, Username: req.Username, Role: model.RoleStaff, IsActive: true},
	})
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.User{ID: 1, Username: "admin", Role: model.RoleStaff, IsActive: true})
}

func (b *Backend) ack(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *Backend) listNotifications(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := model.NotificationList{Notifications: []model.Notification{}}
	for _, n := range b.notifications {
		if t := r.URL.Query().Get("type"); t != "" && string(n.Type) != t {
			continue
		}
		if v := r.URL.Query().Get("is_read"); v != "" && strconv.FormatBool(n.IsRead) != v {
			continue
		}
		list.Notifications = append(list.Notifications, n)
		if !n.IsRead {
			list.UnreadCount++
		}
	}
	if b.unreadCount != nil {
		list.UnreadCount = *b.unreadCount
	}

	writeJSON(w, http.StatusOK, list)
}

func (b *Backend) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	found := false
	for i := range b.notifications {
		if b.notifications[i].ID == id {
			b.notifications[i].IsRead = true
			found = true
		}
	}
	b.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	b.ack(w, r)
}

func (b *Backend) markAllRead(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	for i := range b.notifications {
		b.notifications[i].IsRead = true
	}
	b.mu.Unlock()
	b.ack(w, r)
}

func (b *Backend) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	kept := b.notifications[:0]
	for _, n := range b.notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	b.notifications = kept
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) getHospital(w http.ResponseWriter, r *http.Request) {
	h := b.Hospital()
	if h == nil {
		writeError(w, http.StatusNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (b *Backend) saveHospital(w http.ResponseWriter, r *http.Request) {
	var h model.Hospital
	if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if h.ID == 0 {
		h.ID = 1
	}
	b.SetHospital(&h)

	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	writeJSON(w, status, h)
}

func (b *Backend) listUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	status := r.URL.Query().Get("status")

	list := model.UserList{Users: []model.User{}}
	for _, u := range b.Users() {
		if role != "" && string(u.Role) != role {
			continue
		}
		if status != "" && string(u.Status()) != status {
			continue
		}
		list.Users = append(list.Users, u)
	}
	writeJSON(w, http.StatusOK, list)
}

func (b *Backend) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var upd model.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.users {
		u := &b.users[i]
		if u.ID != id {
			continue
		}
		applyUpdate(u, upd)
		writeJSON(w, http.StatusOK, u)
		return
	}
	writeError(w, http.StatusNotFound, "User not found")
}

func (b *Backend) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		b.mu.Lock()
		found := false
		for i := range b.users {
			if b.users[i].ID == id {
				b.users[i].IsActive = active
				found = true
			}
		}
		b.mu.Unlock()

		if !found {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		b.ack(w, r)
	}
}

func (b *Backend) listResources(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")

	b.mu.Lock()
	defer b.mu.Unlock()

	list := model.ResourceList{Resources: []model.Resource{}}
	for _, res := range b.resources {
		if typ != "" && string(res.Type) != typ {
			continue
		}
		list.Resources = append(list.Resources, res)
	}
	writeJSON(w, http.StatusOK, list)
}

func (b *Backend) deleteResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	kept := b.resources[:0]
	for _, res := range b.resources {
		if res.ID != id {
			kept = append(kept, res)
		}
	}
	b.resources = kept
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func applyUpdate(u *model.User, upd model.UserUpdate) {
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Speciality != nil {
		u.Speciality = *upd.Speciality
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, map[string]string{"error": message})
}
