package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/uniconnect/uniconnect/internal/auth"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/channels":                "/channels",
		"/channels/42/messages":    "/channels/:id",
		"/profiles/resolve":        "/profiles/resolve",
		"/profiles/abc":            "/profiles/:id",
		"/organizations/7":         "/organizations/:id",
		"/realtime/channels/3":     "/realtime/channels/:id",
		"/health":                  "/health",
	}
	for path, want := range cases {
		if got := normalizePath(path); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestRequireAuth(t *testing.T) {
	userID := uuid.New()
	secret := []byte("test-secret")
	token, err := auth.Sign(secret, userID, "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	var gotID uuid.UUID
	var gotOK bool
	handler := RequireAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = GetUserID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/memberships", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !gotOK || gotID != userID {
		t.Fatalf("user id = %s ok=%v, want %s", gotID, gotOK, userID)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	secret := []byte("test-secret")
	handler := RequireAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without valid auth")
	}))

	for name, header := range map[string]string{
		"missing":     "",
		"not bearer":  "Basic abc",
		"garbage":     "Bearer not.a.token",
	} {
		req := httptest.NewRequest("GET", "/memberships", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, w.Code)
		}
	}
}

func TestLoggerEmitsRequestLine(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	body := `{"ok":true}`
	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(body))
	}))

	req := httptest.NewRequest("GET", "/channels/42/messages", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var entry struct {
		Method   string `json:"method"`
		Path     string `json:"path"`
		Route    string `json:"route"`
		Status   int    `json:"status"`
		Bytes    int    `json:"bytes"`
		ClientIP string `json:"client_ip"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line not JSON: %v (%s)", err, buf.Bytes())
	}
	if entry.Method != "GET" || entry.Path != "/channels/42/messages" {
		t.Errorf("method/path = %s %s", entry.Method, entry.Path)
	}
	if entry.Route != "/channels/:id" {
		t.Errorf("route = %q, want /channels/:id", entry.Route)
	}
	if entry.Status != http.StatusCreated {
		t.Errorf("status = %d, want 201", entry.Status)
	}
	if entry.Bytes != len(body) {
		t.Errorf("bytes = %d, want %d", entry.Bytes, len(body))
	}
	if entry.ClientIP != "203.0.113.9" {
		t.Errorf("client_ip = %q", entry.ClientIP)
	}
}

func TestRealIPHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := RealIP(req); got != "10.0.0.1" {
		t.Errorf("RealIP from RemoteAddr = %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := RealIP(req); got != "203.0.113.9" {
		t.Errorf("RealIP from X-Forwarded-For = %q", got)
	}

	req.Header.Set("Fly-Client-IP", "198.51.100.7")
	if got := RealIP(req); got != "198.51.100.7" {
		t.Errorf("RealIP from Fly-Client-IP = %q", got)
	}
}
