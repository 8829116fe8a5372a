package sessions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kinetiq-id/kinetiq/internal/sample"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(store Store) *gin.Engine {
	r := gin.New()
	NewHandler(store, slog.Default()).RegisterRoutes(r.Group("/v1"))
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestStartSessionGeneratesID(t *testing.T) {
	r := newTestRouter(NewMemoryStore())

	w := doJSON(r, http.MethodPost, "/v1/sessions",
		`{"user_id": "user_1", "platform": "mobile"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var sess Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(sess.SessionID, "sess_") {
		t.Errorf("session id = %q, want generated sess_ prefix", sess.SessionID)
	}
	if sess.SessionType != TypeOnboarding {
		t.Errorf("session type = %s, omitted type should default to onboarding", sess.SessionType)
	}
	if !sess.IsActive {
		t.Error("new session should be active")
	}
}

func TestStartSessionRejectsBadInput(t *testing.T) {
	r := newTestRouter(NewMemoryStore())

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing user", `{"platform": "mobile"}`, "invalid_request"},
		{"bad platform", `{"user_id": "user_1", "platform": "smartwatch"}`, "validation_failed"},
		{"bad type", `{"user_id": "user_1", "platform": "web", "session_type": "party"}`, "invalid_session_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/v1/sessions", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			var res map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &res)
			if res["error"] != tt.wantErr {
				t.Errorf("error = %v, want %s", res["error"], tt.wantErr)
			}
		})
	}
}

func TestEndSessionStatusCodes(t *testing.T) {
	store := NewMemoryStore()
	_, _ = store.GetOrCreate(context.Background(), "sess_1", "user_1", sample.PlatformMobile, TypeLogin)
	r := newTestRouter(store)

	w := doJSON(r, http.MethodPost, "/v1/sessions/sess_1/end", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/v1/sessions/sess_1/end", "")
	if w.Code != http.StatusConflict {
		t.Errorf("double end status = %d, want 409", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/v1/sessions/sess_missing/end", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing session status = %d, want 404", w.Code)
	}
}

func TestGetSession(t *testing.T) {
	store := NewMemoryStore()
	_, _ = store.GetOrCreate(context.Background(), "sess_1", "user_1", sample.PlatformWeb, TypeContinuous)
	r := newTestRouter(store)

	w := doJSON(r, http.MethodGet, "/v1/sessions/sess_1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var sess Session
	_ = json.Unmarshal(w.Body.Bytes(), &sess)
	if sess.SessionID != "sess_1" || sess.Platform != sample.PlatformWeb {
		t.Errorf("unexpected session: %+v", sess)
	}

	w = doJSON(r, http.MethodGet, "/v1/sessions/sess_missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListSessionsEmpty(t *testing.T) {
	r := newTestRouter(NewMemoryStore())

	w := doJSON(r, http.MethodGet, "/v1/users/user_none/sessions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var res struct {
		Sessions []*Session `json:"sessions"`
		Count    int        `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Sessions == nil || res.Count != 0 {
		t.Errorf("res = %+v, want empty non-null sessions", res)
	}
}
