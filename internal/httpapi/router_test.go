package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkoval/go-anon-relay/internal/domain"
	"github.com/mkoval/go-anon-relay/internal/relay"
)

func init() { gin.SetMode(gin.TestMode) }

// ---------- minimal relay fakes ----------

type nilStore struct{}

func (nilStore) Record(context.Context, int64, int64, int64) error { return nil }
func (nilStore) Lookup(context.Context, int64) (*domain.Forward, error) {
	return nil, nil
}

type nilBans struct{}

func (nilBans) IsBanned(context.Context, int64) (bool, error) { return false, nil }
func (nilBans) Ban(context.Context, int64) error              { return nil }

type openLimiter struct{}

func (openLimiter) Admit(int64) (time.Duration, bool) { return 0, true }

// chanSender signals every outbound send on a channel.
type chanSender struct {
	sent chan string
}

func (s *chanSender) SendText(_ context.Context, _ int64, text string, _ *relay.BoldSpan) error {
	s.sent <- text
	return nil
}
func (s *chanSender) CopyMessage(context.Context, int64, int64, int64) error { return nil }
func (s *chanSender) ForwardMessage(context.Context, int64, int64, int64) (int64, error) {
	return 501, nil
}
func (s *chanSender) SetReaction(context.Context, int64, int64, []relay.Reaction) error {
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *chanSender) {
	t.Helper()
	snd := &chanSender{sent: make(chan string, 4)}
	d := relay.NewDispatcher(-100500, nilStore{}, nilBans{}, openLimiter{}, snd)
	return NewRouter(Options{Secret: "s3cret", Dispatcher: d}), snd
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/healthz = %d, want 200", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatal("metrics output missing http_requests_total")
	}
}

func TestWebhook_RejectsBadSecret(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad secret = %d, want 401", w.Code)
	}
}

func TestWebhook_RejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{not json`))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body = %d, want 400", w.Code)
	}
}

func TestWebhook_DispatchesUpdate(t *testing.T) {
	r, snd := newTestRouter(t)

	body := `{
		"update_id": 1,
		"message": {
			"message_id": 7,
			"from": {"id": 42, "is_bot": false, "first_name": "Ada"},
			"chat": {"id": 42, "type": "private"},
			"text": "/start"
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("webhook = %d, want 200", w.Code)
	}

	select {
	case text := <-snd.sent:
		if !strings.Contains(text, "Ada") {
			t.Fatalf("greeting = %q, want sender name included", text)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher never invoked")
	}
}

func TestWebhook_IgnoresUnhandledShapes(t *testing.T) {
	r, snd := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"update_id": 2}`))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("webhook = %d, want 200", w.Code)
	}
	select {
	case text := <-snd.sent:
		t.Fatalf("unexpected outbound send %q", text)
	case <-time.After(100 * time.Millisecond):
	}
}
