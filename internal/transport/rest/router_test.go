package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"selfeval/internal/metrics"
	"selfeval/internal/model"
	"selfeval/internal/repository"
	"selfeval/internal/service"
	"selfeval/internal/transport/rest/middleware"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memUsers struct {
	users map[string]*model.User
}

func (m *memUsers) Create(_ context.Context, u *model.User) (string, error) {
	if _, ok := m.users[u.Username]; ok {
		return "", repository.ErrDuplicate
	}
	u.ID = strings.Repeat("0", 23) + string(rune('a'+len(m.users)))
	cp := *u
	m.users[u.Username] = &cp
	return u.ID, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if u, ok := m.users[username]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

type testServer struct {
	handler http.Handler
	auth    *service.AuthService
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()
	auth := service.NewAuthService(&memUsers{users: map[string]*model.User{}}, "router-test-secret-router-test-secret", time.Hour)
	c := &Container{
		AuthService:    auth,
		WSHub:          nil,
		Metrics:        metrics.New(prometheus.NewRegistry()),
		RateLimiter:    limiter,
		AllowedOrigins: []string{"*"},
		Log:            zap.NewNop(),
	}
	return &testServer{handler: NewRouter(c), auth: auth}
}

func (s *testServer) do(method, path, body, token string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signup(t *testing.T, username string, role model.Role) string {
	t.Helper()
	body := `{"username":"` + username + `","password":"long-enough","display_name":"Someone","role":"` + string(role) + `"}`
	rec := s.do("POST", "/api/v1/users/signup", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do("GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do("GET", "/health", "", "", "X-Request-ID", "req-123")
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do("GET", "/health", "", "")

	rec := s.do("GET", "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{endpoint="/health",method="GET",status="200"} 1`)
}

func TestAuthAndRoles(t *testing.T) {
	s := newTestServer(t, nil)
	student := s.signup(t, "student@example.com", model.RoleStudent)
	teacher := s.signup(t, "teacher@example.com", model.RoleTeacher)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		status int
	}{
		{"no token", "GET", "/api/v1/users/me", "", "", http.StatusUnauthorized},
		{"garbage token", "GET", "/api/v1/users/me", "", "garbage", http.StatusUnauthorized},
		{"student on teacher route", "POST", "/api/v1/courses", `{}`, student, http.StatusForbidden},
		{"student lists questions", "GET", "/api/v1/questions", "", student, http.StatusForbidden},
		{"teacher passes auth", "POST", "/api/v1/courses", `not json`, teacher, http.StatusBadRequest},
		{"start without survey", "POST", "/api/v1/survey-attempts/start", `{}`, student, http.StatusBadRequest},
		{"bad paging", "GET", "/api/v1/survey-attempts/my?limit=0", "", student, http.StatusBadRequest},
		{"unknown route", "GET", "/api/v1/nothing", "", student, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.body, tt.token)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup(t, "ana@example.com", model.RoleStudent)

	rec := s.do("GET", "/api/v1/users/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "ana@example.com", me.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do("POST", "/api/v1/users/signup", `{"username":"ana@example.com","password":"long-enough","display_name":"Ana"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do("POST", "/api/v1/users/signup", `{"username":"bob@example.com","password":"short","display_name":"Bob"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do("POST", "/api/v1/users/login", `{"username":"ana@example.com","password":"wrong-password"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do("POST", "/api/v1/users/login", `{"username":"ana@example.com","password":"long-enough"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestServer(t, middleware.NewRateLimiter(ctx, 0.001, 2))

	body := `{"username":"nobody@example.com","password":"whatever"}`
	assert.Equal(t, http.StatusUnauthorized, s.do("POST", "/api/v1/users/login", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do("POST", "/api/v1/users/login", body, "").Code)

	rec := s.do("POST", "/api/v1/users/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// another client has its own budget
	other := s.do("POST", "/api/v1/users/login", body, "", "X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, http.StatusUnauthorized, other.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do("OPTIONS", "/api/v1/courses", "", "",
		"Origin", "https://app.example.com",
		"Access-Control-Request-Method", "POST",
	)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
