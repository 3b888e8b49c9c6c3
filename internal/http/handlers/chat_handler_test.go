package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-llm-usage/internal/analytics"
	"github.com/tbourn/go-llm-usage/internal/domain"
	"github.com/tbourn/go-llm-usage/internal/services"
)

// fakeChatSvc scripts the ChatService behavior per test.
type fakeChatSvc struct {
	rec       *domain.Interaction
	askErr    error
	models    []string
	modelsErr error
	items     []domain.Interaction
	total     int64
	listErr   error

	gotUserID *string
	gotModel  string
	gotPrompt string
	gotPage   int
	gotSize   int
}

func (f *fakeChatSvc) Ask(_ context.Context, userID *string, model, prompt string) (*domain.Interaction, error) {
	f.gotUserID, f.gotModel, f.gotPrompt = userID, model, prompt
	return f.rec, f.askErr
}

func (f *fakeChatSvc) Models(context.Context) ([]string, error) {
	return f.models, f.modelsErr
}

func (f *fakeChatSvc) ListPage(_ context.Context, page, pageSize int) ([]domain.Interaction, int64, error) {
	f.gotPage, f.gotSize = page, pageSize
	return f.items, f.total, f.listErr
}

// fakeAnalyticsSvc scripts the AnalyticsService behavior per test.
type fakeAnalyticsSvc struct {
	payload  analytics.Payload
	err      error
	users    []string
	usersErr error

	gotUser, gotStart, gotEnd string
}

func (f *fakeAnalyticsSvc) View(_ context.Context, user, startDate, endDate string) (analytics.Payload, error) {
	f.gotUser, f.gotStart, f.gotEnd = user, startDate, endDate
	return f.payload, f.err
}

func (f *fakeAnalyticsSvc) Users(context.Context) ([]string, error) {
	return f.users, f.usersErr
}

func newTestRouter(chat *fakeChatSvc, an *fakeAnalyticsSvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(chat, an)
	r.POST("/chat", h.Chat)
	r.GET("/models", h.ListModels)
	r.GET("/analytics", h.Analytics)
	r.GET("/analytics/filters", h.AnalyticsFilters)
	r.GET("/interactions", h.ListInteractions)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChat_Success(t *testing.T) {
	user := "alice"
	chat := &fakeChatSvc{rec: &domain.Interaction{ID: 1, UserID: &user, ModelName: "gpt-4", Status: domain.StatusSuccess}}
	r := newTestRouter(chat, &fakeAnalyticsSvc{})

	w := doJSON(t, r, http.MethodPost, "/chat", `{"model":"gpt-4","query":"hi"}`, map[string]string{"X-User-ID": "alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if chat.gotModel != "gpt-4" || chat.gotPrompt != "hi" {
		t.Fatalf("service args: model=%q prompt=%q", chat.gotModel, chat.gotPrompt)
	}
	if chat.gotUserID == nil || *chat.gotUserID != "alice" {
		t.Fatalf("user not propagated: %v", chat.gotUserID)
	}
}

func TestChat_AnonymousUserIsNil(t *testing.T) {
	chat := &fakeChatSvc{rec: &domain.Interaction{ID: 1}}
	r := newTestRouter(chat, &fakeAnalyticsSvc{})

	w := doJSON(t, r, http.MethodPost, "/chat", `{"query":"hi"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if chat.gotUserID != nil {
		t.Fatalf("expected nil user for anonymous call, got %v", *chat.gotUserID)
	}
}

func TestChat_ProviderErrorStill200(t *testing.T) {
	msg := "upstream timeout"
	chat := &fakeChatSvc{rec: &domain.Interaction{ID: 1, Status: domain.StatusError, ErrorMessage: &msg}}
	r := newTestRouter(chat, &fakeAnalyticsSvc{})

	w := doJSON(t, r, http.MethodPost, "/chat", `{"query":"hi"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("provider failure must still answer 200, got %d", w.Code)
	}
	var rec domain.Interaction
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Status != domain.StatusError || rec.ErrorMessage == nil {
		t.Fatalf("error outcome not carried: %+v", rec)
	}
}

func TestChat_BadRequests(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		askErr error
	}{
		{"invalid json", `{`, nil},
		{"missing query", `{"model":"gpt-4"}`, nil},
		{"empty prompt", `{"query":"  "}`, services.ErrEmptyPrompt},
		{"too long", `{"query":"x"}`, services.ErrTooLong},
	}
	for _, tc := range cases {
		chat := &fakeChatSvc{askErr: tc.askErr}
		r := newTestRouter(chat, &fakeAnalyticsSvc{})
		w := doJSON(t, r, http.MethodPost, "/chat", tc.body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", tc.name, w.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: unmarshal: %v", tc.name, err)
		}
		if resp.Code != ErrCodeBadRequest {
			t.Fatalf("%s: code = %q", tc.name, resp.Code)
		}
	}
}

func TestChat_StoreFailureIs500(t *testing.T) {
	chat := &fakeChatSvc{askErr: errors.New("disk full")}
	r := newTestRouter(chat, &fakeAnalyticsSvc{})

	w := doJSON(t, r, http.MethodPost, "/chat", `{"query":"hi"}`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeChatFailed {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestListModels(t *testing.T) {
	chat := &fakeChatSvc{models: []string{"gpt-4", "gpt-3.5-turbo"}}
	r := newTestRouter(chat, &fakeAnalyticsSvc{})

	w := doJSON(t, r, http.MethodGet, "/models", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Models) != 2 {
		t.Fatalf("models: %v", resp.Models)
	}
}

func TestListModels_Failure(t *testing.T) {
	chat := &fakeChatSvc{modelsErr: errors.New("gateway down")}
	r := newTestRouter(chat, &fakeAnalyticsSvc{})

	w := doJSON(t, r, http.MethodGet, "/models", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func Test_idempotencyKey_HeaderFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/chat", nil)

	if k, ok := idempotencyKey(c); ok || k != "" {
		t.Fatalf("expected no key, got %q (ok=%v)", k, ok)
	}

	c.Request.Header.Set("Idempotency-Key", "  retry-123  ")
	k, ok := idempotencyKey(c)
	if !ok || k != "retry-123" {
		t.Fatalf("expected trimmed header key, got %q (ok=%v)", k, ok)
	}

	// A key stashed by upstream middleware wins over the raw header.
	c.Set("idem.key", "validated-456")
	k, ok = idempotencyKey(c)
	if !ok || k != "validated-456" {
		t.Fatalf("expected stashed key, got %q (ok=%v)", k, ok)
	}
}
