package portal

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/songzhibin97/academia/internal/config"
	"github.com/songzhibin97/academia/internal/portal/repository/memory"
	"github.com/songzhibin97/academia/pkg/portal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Portal.JWT.Secret = "test-secret-key-that-is-at-least-32-characters"
	cfg.Portal.Throttle.MaxAttempts = 2
	cfg.Portal.Throttle.Window = time.Minute
	cfg.Logging.AccessLog = false
	return cfg
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	repo := memory.NewRepository()
	server, err := NewServer(cfg, repo)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() {
		server.Stop(context.Background())
		repo.Close()
	})
	return &testServer{t: t, handler: server.Handler()}
}

func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			ts.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) expect(rec *httptest.ResponseRecorder, status int) {
	ts.t.Helper()
	if rec.Code != status {
		ts.t.Fatalf("status = %d, want %d; body = %s", rec.Code, status, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func (ts *testServer) register(username, email string, role portal.Role) *portal.Account {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"name": "Test " + username, "username": username, "email": email, "password": "secret123", "role": role,
	})
	ts.expect(rec, http.StatusCreated)
	account := decode[portal.Account](ts.t, rec)
	return &account
}

func (ts *testServer) login(identifier string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username_or_email": identifier, "password": "secret123",
	})
	ts.expect(rec, http.StatusOK)
	resp := decode[struct {
		Token string `json:"token"`
	}](ts.t, rec)
	return resp.Token
}

func TestServer_RegisterAndLogin(t *testing.T) {
	ts := newTestServer(t, testConfig())

	account := ts.register("alice", "alice@example.com", portal.RoleStudent)
	if account.ID != 1 || account.Username != "alice" {
		t.Errorf("registered account = %+v", account)
	}

	rec := ts.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"username": "alice2", "email": "alice@example.com", "password": "secret123", "role": "STUDENT",
	})
	ts.expect(rec, http.StatusConflict)
	details := decode[portal.ErrorDetails](t, rec)
	if details.Message != "Email is already registered: alice@example.com" {
		t.Errorf("message = %q", details.Message)
	}
	if details.Description != "uri=/api/auth/register" {
		t.Errorf("description = %q", details.Description)
	}

	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response leaks password")
	}

	token := ts.login("alice@example.com")
	rec = ts.do(http.MethodGet, "/api/auth/me", token, nil)
	ts.expect(rec, http.StatusAccepted)
	me := decode[struct {
		ID          int64    `json:"id"`
		Email       string   `json:"email"`
		Authorities []string `json:"authorities"`
	}](t, rec)
	if me.ID != account.ID || me.Email != "alice@example.com" || len(me.Authorities) != 1 || me.Authorities[0] != "ROLE_STUDENT" {
		t.Errorf("me = %+v", me)
	}

	ts.expect(ts.do(http.MethodGet, "/api/auth/me", "", nil), http.StatusUnauthorized)
	ts.expect(ts.do(http.MethodGet, "/api/auth/me", "not-a-token", nil), http.StatusUnauthorized)
}

func TestServer_LoginThrottle(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ts.register("bob", "bob@example.com", portal.RoleStudent)

	bad := map[string]string{"username_or_email": "bob", "password": "wrong-password"}
	ts.expect(ts.do(http.MethodPost, "/api/auth/login", "", bad), http.StatusUnauthorized)
	ts.expect(ts.do(http.MethodPost, "/api/auth/login", "", bad), http.StatusUnauthorized)

	rec := ts.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username_or_email": "bob", "password": "secret123"})
	ts.expect(rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	ts.expect(ts.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username_or_email": "nobody", "password": "x"}),
		http.StatusUnauthorized)
}

func TestServer_Courses(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ts.register("admin", "admin@example.com", portal.RoleAdministrator)
	ts.register("stu", "stu@example.com", portal.RoleStudent)
	admin := ts.login("admin")
	student := ts.login("stu")

	course := map[string]interface{}{"title": "Java Programming", "credits": 3}

	ts.expect(ts.do(http.MethodPost, "/api/courses", "", course), http.StatusUnauthorized)
	ts.expect(ts.do(http.MethodPost, "/api/courses", student, course), http.StatusForbidden)

	rec := ts.do(http.MethodGet, "/api/courses", admin, nil)
	ts.expect(rec, http.StatusNotFound)
	if msg := decode[portal.ErrorDetails](t, rec).Message; msg != "No courses found" {
		t.Errorf("empty list message = %q", msg)
	}

	rec = ts.do(http.MethodPost, "/api/courses", admin, course)
	ts.expect(rec, http.StatusCreated)
	if saved := decode[portal.Course](t, rec); saved.ID != 1 || saved.Title != "Java Programming" {
		t.Errorf("saved course = %+v", saved)
	}

	rec = ts.do(http.MethodGet, "/api/courses/1", student, nil)
	ts.expect(rec, http.StatusOK)
	if got := decode[portal.Course](t, rec); got.Title != "Java Programming" {
		t.Errorf("course = %+v", got)
	}

	rec = ts.do(http.MethodGet, "/api/courses/999", student, nil)
	ts.expect(rec, http.StatusNotFound)
	if msg := decode[portal.ErrorDetails](t, rec).Message; msg != "Course not found with ID: 999" {
		t.Errorf("message = %q", msg)
	}

	ts.expect(ts.do(http.MethodGet, "/api/courses/abc", student, nil), http.StatusBadRequest)
	ts.expect(ts.do(http.MethodPost, "/api/courses", admin, `{"title":`), http.StatusBadRequest)

	rec = ts.do(http.MethodGet, "/api/courses", student, nil)
	ts.expect(rec, http.StatusOK)
	if list := decode[[]portal.Course](t, rec); len(list) != 1 {
		t.Errorf("list = %+v", list)
	}

	ts.expect(ts.do(http.MethodPost, "/api/courses", admin, map[string]interface{}{"title": "Physics", "department_id": 5}),
		http.StatusBadRequest)

	rec = ts.do(http.MethodPost, "/api/courses", admin, map[string]interface{}{"id": -1, "title": "Negative"})
	ts.expect(rec, http.StatusBadRequest)
	if msg := decode[portal.ErrorDetails](t, rec).Message; msg != "Course key must not be negative: -1" {
		t.Errorf("negative key message = %q", msg)
	}
	rec = ts.do(http.MethodPost, "/api/courses", admin, map[string]interface{}{"title": "Compilers"})
	ts.expect(rec, http.StatusCreated)
	if saved := decode[portal.Course](t, rec); saved.ID != 2 {
		t.Errorf("generated key after negative save = %d, want 2", saved.ID)
	}
	rec = ts.do(http.MethodGet, "/api/courses/1", student, nil)
	ts.expect(rec, http.StatusOK)
	if got := decode[portal.Course](t, rec); got.Title != "Java Programming" {
		t.Errorf("course 1 = %+v", got)
	}
}

func TestServer_ProfilesAndEnrollments(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ts.register("admin", "admin@example.com", portal.RoleAdministrator)
	stu := ts.register("stu", "stu@example.com", portal.RoleStudent)
	admin := ts.login("admin")
	student := ts.login("stu")

	rec := ts.do(http.MethodPost, "/api/student/profile", admin, map[string]interface{}{"user_id": 99, "year": 1})
	ts.expect(rec, http.StatusBadRequest)
	if msg := decode[portal.ErrorDetails](t, rec).Message; msg != "No Account found with ID: 99" {
		t.Errorf("message = %q", msg)
	}

	rec = ts.do(http.MethodPost, "/api/student/profile", student, map[string]interface{}{"year": 2})
	ts.expect(rec, http.StatusCreated)
	if p := decode[portal.StudentProfile](t, rec); p.UserID != stu.ID {
		t.Errorf("profile owner = %d, want %d", p.UserID, stu.ID)
	}

	rec = ts.do(http.MethodPost, "/api/student/profile", student, map[string]interface{}{"user_id": 1, "year": 4})
	ts.expect(rec, http.StatusForbidden)
	if msg := decode[portal.ErrorDetails](t, rec).Message; msg != "Access is denied" {
		t.Errorf("foreign profile message = %q", msg)
	}
	rec = ts.do(http.MethodPost, "/api/student/profile", student, map[string]interface{}{"user_id": stu.ID, "year": 2})
	ts.expect(rec, http.StatusCreated)

	rec = ts.do(http.MethodGet, "/api/student/profile/2", student, nil)
	ts.expect(rec, http.StatusOK)
	profile := decode[portal.StudentProfile](t, rec)
	if profile.Account == nil || profile.Account.Email != "stu@example.com" || profile.Year != 2 {
		t.Errorf("profile = %+v", profile)
	}

	ts.expect(ts.do(http.MethodGet, "/api/admin/profile/1", student, nil), http.StatusForbidden)

	rec = ts.do(http.MethodGet, "/api/enrollments", student, nil)
	ts.expect(rec, http.StatusNotFound)
	if msg := decode[portal.ErrorDetails](t, rec).Message; msg != "No enrollments found" {
		t.Errorf("message = %q", msg)
	}

	ts.expect(ts.do(http.MethodPost, "/api/courses", admin, map[string]interface{}{"title": "Databases"}), http.StatusCreated)
	rec = ts.do(http.MethodPost, "/api/enrollments", student, map[string]interface{}{"student_id": stu.ID, "course_id": 1})
	ts.expect(rec, http.StatusCreated)
	if e := decode[portal.Enrollment](t, rec); e.ID != 1 || e.EnrolledAt.IsZero() {
		t.Errorf("enrollment = %+v", e)
	}
}

func TestServer_LegacyStatus(t *testing.T) {
	cfg := testConfig()
	cfg.Portal.Errors.LegacyStatus = true
	ts := newTestServer(t, cfg)
	ts.register("carol", "carol@example.com", portal.RoleStudent)
	token := ts.login("carol")

	ts.expect(ts.do(http.MethodGet, "/api/courses/999", token, nil), http.StatusBadRequest)
	ts.expect(ts.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"username": "carol2", "email": "carol@example.com", "password": "secret123", "role": "STUDENT",
	}), http.StatusBadRequest)
}

func TestServer_NoRouteAndHealth(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/nope", "", nil)
	ts.expect(rec, http.StatusNotFound)
	if d := decode[portal.ErrorDetails](t, rec).Description; d != "uri=/nope" {
		t.Errorf("description = %q", d)
	}

	rec = ts.do(http.MethodGet, "/health", "", nil)
	ts.expect(rec, http.StatusOK)
	if s := decode[portal.HealthStatus](t, rec).Status; s != portal.HealthStatusHealthy {
		t.Errorf("health status = %q", s)
	}

	rec = ts.do(http.MethodGet, "/metrics", "", nil)
	ts.expect(rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "academia_portal_http_requests_total") {
		t.Error("metrics output missing request counter")
	}
}

func TestServer_StartServesAndStops(t *testing.T) {
	cfg := testConfig()
	cfg.Portal.Address = "127.0.0.1:0"
	repo := memory.NewRepository()
	defer repo.Close()

	server, err := NewServer(cfg, repo)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := server.Start(); err == nil {
		t.Error("second Start() succeeded, want error")
	}

	resp, err := http.Get("http://" + server.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", resp.StatusCode)
	}

	if err := server.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	select {
	case err := <-server.Errors():
		t.Errorf("Errors() delivered %v after a clean stop", err)
	default:
	}
}

func TestServer_StartReportsBindFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	defer taken.Close()

	cfg := testConfig()
	cfg.Portal.Address = taken.Addr().String()
	repo := memory.NewRepository()
	defer repo.Close()

	server, err := NewServer(cfg, repo)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	defer server.Stop(context.Background())

	if err := server.Start(); err == nil {
		t.Fatal("Start() on a taken address succeeded, want error")
	}
	if server.Addr() != nil {
		t.Errorf("Addr() = %v after failed Start, want nil", server.Addr())
	}
}
