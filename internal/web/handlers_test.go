package web

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/careerbridge/internal/backend"
	"github.com/hpungsan/careerbridge/internal/config"
	"github.com/hpungsan/careerbridge/internal/kv"
	"github.com/hpungsan/careerbridge/internal/ops"
)

func setupTest(t *testing.T) (http.Handler, *ops.Env) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.GateDelayMillis = 0
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)
	env := ops.Wire(ops.EnvOptions{
		Config: cfg,
		Store:  kv.NewMemory(),
		API:    backend.NewWithHTTPClient("http://api.test/api", http.DefaultClient),
		Logger: log.New(io.Discard, "", 0),
		Now:    func() time.Time { return now },
	})
	return NewHandler(env, "test"), env
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var (
	jsonAccept = map[string]string{"Accept": "application/json"}
	jsonBody   = map[string]string{"Accept": "application/json", "Content-Type": "application/json"}
	formBody   = map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
)

func loginJSON(t *testing.T, h http.Handler) {
	t.Helper()
	rec := do(t, h, "POST", "/session/login",
		strings.NewReader(`{"id":"U1","first_name":"Asha","last_name":"Raman","token":"tok"}`), jsonBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal %q: %v", rec.Body.String(), err)
	}
	return out
}

// --- notifications ---

func TestNotifications_GuestSeesLoginForm(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(t, h, "GET", "/notifications", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `action="/session/login"`) {
		t.Error("expected sign-in form for guests")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected security headers")
	}
}

func TestNotifications_GuestJSONIsUnauthenticated(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(t, h, "GET", "/notifications", nil, jsonAccept)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	errObj := decodeBody(t, rec)["error"].(map[string]any)
	if errObj["code"] != "UNAUTHENTICATED" {
		t.Errorf("code = %v, want UNAUTHENTICATED", errObj["code"])
	}
}

func TestNotifications_HTMLListing(t *testing.T) {
	h, _ := setupTest(t)
	loginJSON(t, h)

	rec := do(t, h, "GET", "/notifications", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Welcome Asha Raman!") {
		t.Error("expected welcome notification in page")
	}
	if !strings.Contains(body, "Asha Raman") || !strings.Contains(body, "/static/avatar.svg") {
		t.Error("expected user header with default avatar")
	}
	if !strings.Contains(body, `<span class="badge">2</span>`) {
		t.Error("expected unread badge of 2")
	}
}

func TestNotifications_HTMXListFragment(t *testing.T) {
	h, _ := setupTest(t)
	loginJSON(t, h)

	rec := do(t, h, "GET", "/notifications", nil, map[string]string{"HX-Request": "true", "HX-Target": "notification-list"})
	body := rec.Body.String()
	if !strings.HasPrefix(strings.TrimSpace(body), `<ul id="notification-list"`) {
		t.Errorf("expected list fragment only, got %q", body)
	}
	if strings.Contains(body, "<html") {
		t.Error("fragment should not include the layout")
	}
}

func TestNotifications_MarkReadFlow(t *testing.T) {
	h, _ := setupTest(t)
	loginJSON(t, h)

	list := decodeBody(t, do(t, h, "GET", "/notifications?limit=1", nil, jsonAccept))
	items := list["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	id := items[0].(map[string]any)["id"].(string)

	rec := do(t, h, "POST", "/notifications/"+id+"/read", nil, jsonAccept)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read status = %d", rec.Code)
	}
	if out := decodeBody(t, rec); out["marked"] != true || out["unread"] != float64(1) {
		t.Errorf("mark read = %v", out)
	}

	// form post redirects back
	rec = do(t, h, "POST", "/notifications/read-all", nil, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/notifications" {
		t.Errorf("read-all = %d %q, want 303 to /notifications", rec.Code, rec.Header().Get("Location"))
	}

	count := decodeBody(t, do(t, h, "GET", "/notifications/unread-count", nil, nil))
	if count["unread"] != float64(0) {
		t.Errorf("unread = %v, want 0", count["unread"])
	}
}

func TestNotifications_Clear(t *testing.T) {
	h, _ := setupTest(t)
	loginJSON(t, h)

	rec := do(t, h, "DELETE", "/notifications", nil, jsonAccept)
	if out := decodeBody(t, rec); out["cleared"] != float64(2) {
		t.Errorf("cleared = %v, want 2", out["cleared"])
	}

	rec = do(t, h, "POST", "/notifications/clear", nil, map[string]string{"HX-Request": "true"})
	if rec.Header().Get("HX-Redirect") != "/notifications" {
		t.Errorf("HX-Redirect = %q", rec.Header().Get("HX-Redirect"))
	}

	list := decodeBody(t, do(t, h, "GET", "/notifications", nil, jsonAccept))
	if items := list["items"].([]any); len(items) != 0 {
		t.Errorf("items after clear = %d, want 0", len(items))
	}
}

// --- session ---

func TestSession_FormLoginAndLogout(t *testing.T) {
	h, env := setupTest(t)

	form := url.Values{"id": {"U2"}, "first_name": {"Bala"}}
	rec := do(t, h, "POST", "/session/login", strings.NewReader(form.Encode()), formBody)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if cur := env.Session.Current(); cur == nil || cur.ID != "U2" {
		t.Fatalf("current = %v, want U2", cur)
	}

	rec = do(t, h, "POST", "/session/logout", nil, jsonAccept)
	if out := decodeBody(t, rec); out["logged_out"] != true {
		t.Errorf("logout = %v", out)
	}
	if env.Session.Current() != nil {
		t.Error("expected no current user after logout")
	}
}

func TestUnreadCount_ZeroAfterLogout(t *testing.T) {
	h, _ := setupTest(t)
	loginJSON(t, h)

	if count := decodeBody(t, do(t, h, "GET", "/notifications/unread-count", nil, nil)); count["unread"] == float64(0) {
		t.Fatalf("expected starter notifications to be unread, got %v", count)
	}

	do(t, h, "POST", "/session/logout", nil, jsonAccept)
	count := decodeBody(t, do(t, h, "GET", "/notifications/unread-count", nil, nil))
	if count["unread"] != float64(0) {
		t.Errorf("unread after logout = %v, want 0", count["unread"])
	}
}

func TestSession_LoginRejectsMissingID(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(t, h, "POST", "/session/login", strings.NewReader(`{"first_name":"Asha"}`), jsonBody)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = do(t, h, "POST", "/session/login", strings.NewReader(`{"id":"U1","role":"admin"}`), jsonBody)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", rec.Code)
	}
}

// --- points ---

func TestPoints_AddDeductSummary(t *testing.T) {
	h, _ := setupTest(t)
	loginJSON(t, h)

	rec := do(t, h, "POST", "/points", strings.NewReader(`{"points":30,"reason":"Mock interview"}`), jsonBody)
	if out := decodeBody(t, rec); out["points"] != float64(30) {
		t.Fatalf("add = %v", out)
	}

	form := url.Values{"action": {"deduct"}, "points": {"10"}, "reason": {"Redeemed"}}
	rec = do(t, h, "POST", "/points", strings.NewReader(form.Encode()), formBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("deduct status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "-10 points: Redeemed") {
		t.Error("expected flash with the deduction")
	}
	if !strings.Contains(body, `<span class="total">20</span>`) {
		t.Error("expected total of 20 on the page")
	}

	rec = do(t, h, "GET", "/points", nil, jsonAccept)
	if out := decodeBody(t, rec); out["points"] != float64(20) {
		t.Errorf("summary = %v", out)
	}
}

func TestPoints_Errors(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(t, h, "GET", "/points", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("guest status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Error 401") {
		t.Error("expected error page for guests")
	}

	loginJSON(t, h)
	rec = do(t, h, "POST", "/points", strings.NewReader(`{"action":"double","points":1}`), jsonBody)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad action status = %d, want 400", rec.Code)
	}

	form := url.Values{"points": {"lots"}}
	rec = do(t, h, "POST", "/points", strings.NewReader(form.Encode()), formBody)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad points status = %d, want 400", rec.Code)
	}

	form = url.Values{"action": {"double"}, "points": {"1"}}
	rec = do(t, h, "POST", "/points", strings.NewReader(form.Encode()), formBody)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad form action status = %d, want 400", rec.Code)
	}

	rec = do(t, h, "POST", "/points", strings.NewReader(`{"points":"ten"}`), jsonBody)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("string points status = %d, want 400", rec.Code)
	}

	rec = do(t, h, "POST", "/points", strings.NewReader(`{"action":"deduct","points":5}`), jsonBody)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("overdraw status = %d, want 400", rec.Code)
	}
}

// --- admin gate ---

func TestGate(t *testing.T) {
	h, _ := setupTest(t)

	rec := do(t, h, "GET", "/admin/gate", nil, nil)
	if !strings.Contains(rec.Body.String(), `name="password"`) {
		t.Error("expected password prompt")
	}

	form := url.Values{"password": {"Admin123"}}
	rec = do(t, h, "POST", "/admin/gate", strings.NewReader(form.Encode()), formBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid admin password") {
		t.Error("expected inline mismatch message")
	}

	rec = do(t, h, "POST", "/admin/gate", strings.NewReader(`{"password":"careerconnect"}`), jsonBody)
	out := decodeBody(t, rec)
	if out["granted"] != true || out["route"] != "/adminLogin" {
		t.Errorf("gate = %v", out)
	}
}

func TestGate_ReopenedPromptRechecks(t *testing.T) {
	h, env := setupTest(t)

	out := decodeBody(t, do(t, h, "POST", "/admin/gate", strings.NewReader(`{"password":"admin123"}`), jsonBody))
	if out["granted"] != true {
		t.Fatalf("first gate = %v", out)
	}

	do(t, h, "GET", "/admin/gate", nil, nil)
	if st := env.Gate.Current().State; st != "awaiting" {
		t.Errorf("state after reopening = %q, want awaiting", st)
	}

	out = decodeBody(t, do(t, h, "POST", "/admin/gate", strings.NewReader(`{"password":"wrongpass"}`), jsonBody))
	if out["granted"] != false || out["error"] != "Invalid admin password. Please try again." {
		t.Errorf("gate after reopening = %v", out)
	}
}

// --- rendering helpers ---

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+10 points: Profile completed", "+10 points: Profile completed"},
		{"**Bold** news", "<strong>Bold</strong> news"},
		{"<script>alert(1)</script>", "<!-- raw HTML omitted -->"},
	}
	for _, tt := range tests {
		if got := string(renderMarkdown(tt.in)); !strings.Contains(got, tt.want) {
			t.Errorf("renderMarkdown(%q) = %q, want it to contain %q", tt.in, got, tt.want)
		}
	}
	if got := string(renderMarkdown("<script>alert(1)</script>")); strings.Contains(got, "<script>") {
		t.Errorf("raw HTML leaked: %q", got)
	}
}

func TestStaticAvatar(t *testing.T) {
	h, _ := setupTest(t)
	rec := do(t, h, "GET", "/static/avatar.svg", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("expected svg body")
	}
}

func TestRootRedirects(t *testing.T) {
	h, _ := setupTest(t)
	rec := do(t, h, "GET", "/", nil, nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/notifications" {
		t.Errorf("root = %d %q", rec.Code, rec.Header().Get("Location"))
	}
}
