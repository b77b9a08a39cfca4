package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MarketScanner/internal/model"
)

func TestFormatAlert(t *testing.T) {
	rising := model.TrendResult{Kind: model.TrendRising, Percent: 110.000001, First: 1, Last: 2.1, Points: 7}
	got := FormatAlert("ABC", rising, 14*time.Minute)
	want := "🚀 <b>ABC</b> surged 110.00% in 14 mins!\nCurrent: $2.10"
	if got != want {
		t.Errorf("rising:\n got %q\nwant %q", got, want)
	}

	falling := model.TrendResult{Kind: model.TrendFalling, Percent: 15.9999999, First: 5, Last: 4.2, Points: 5}
	got = FormatAlert("XYZ", falling, 10*time.Minute)
	want = "⚠️ <b>XYZ</b> dropped 16.00% in 10 mins!\nCurrent: $4.20"
	if got != want {
		t.Errorf("falling:\n got %q\nwant %q", got, want)
	}

	if FormatAlert("ABC", model.NoTrend, time.Minute) != "" {
		t.Error("expected empty message for no trend")
	}
}

func TestSend_Payload(t *testing.T) {
	payloads := make(chan map[string]string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var p map[string]string
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		payloads <- p
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIURL = srv.URL
	if err := tn.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	payload := <-payloads
	if payload["chat_id"] != "42" || payload["text"] != "hello" || payload["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", payload)
	}
}

func TestSendWithRetry_SingleAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIURL = srv.URL
	err := tn.SendWithRetry(context.Background(), "hello", 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected exactly one attempt, got %d", n)
	}
}

func TestSendWithRetry_RecoversAfterFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIURL = srv.URL
	if err := tn.SendWithRetry(context.Background(), "hello", 1); err != nil {
		t.Fatalf("expected success on second attempt, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}
}

func TestDispatch_OnlyConfiguredChat(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]string
		json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		sent = append(sent, p["text"])
		mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIURL = srv.URL

	var updates []telegramUpdate
	raw := `[
		{"update_id": 10, "message": {"text": "/status", "chat": {"id": 42}}},
		{"update_id": 11, "message": {"text": "/status", "chat": {"id": 7}}},
		{"update_id": 12}
	]`
	if err := json.Unmarshal([]byte(raw), &updates); err != nil {
		t.Fatal(err)
	}

	var handled []string
	next := tn.dispatch(context.Background(), updates, 0, func(cmd string) string {
		handled = append(handled, cmd)
		return "ok: " + cmd
	})
	if next != 13 {
		t.Errorf("expected next offset 13, got %d", next)
	}
	if len(handled) != 1 {
		t.Fatalf("expected one handled command, got %v", handled)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 1 || sent[0] != "ok: /status" {
		t.Errorf("unexpected replies %v", sent)
	}
}

type fakeSender struct {
	texts []string
	err   error
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.texts = append(f.texts, text)
	return f.err
}

func TestAlertNotifier(t *testing.T) {
	fs := &fakeSender{err: errors.New("unreachable")}
	n := NewAlertNotifier(fs, 2*time.Minute, 0)

	msg, err := n.Notify(context.Background(), "ABC", model.TrendResult{Kind: model.TrendFalling, Percent: 16, Last: 4.2, Points: 5})
	if err == nil {
		t.Error("expected delivery error to be returned")
	}
	if !strings.Contains(msg, "in 10 mins") {
		t.Errorf("expected 10 minute span, got %q", msg)
	}

	msg, _ = n.Notify(context.Background(), "ABC", model.NoTrend)
	if msg != "" || len(fs.texts) != 1 {
		t.Errorf("no trend must not send, sent %d", len(fs.texts))
	}
}

func TestFormatStatus(t *testing.T) {
	if s := FormatStatus(nil, 0, 2*time.Minute); !strings.Contains(s, "No cycle completed yet") {
		t.Errorf("unexpected status %q", s)
	}
	r := &model.CycleReport{Universe: 5000, Quoted: 4900, DataGaps: 100, Eligible: 12, StartedAt: time.Now(), FinishedAt: time.Now()}
	if s := FormatStatus(r, 12, 2*time.Minute); !strings.Contains(s, "Eligible: 12") {
		t.Errorf("unexpected status %q", s)
	}
}

func TestFormatStatus_EscapesFetchError(t *testing.T) {
	r := &model.CycleReport{
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
		FetchErr:   errors.New("alpaca: status 502, body: <html><body>Bad Gateway</body></html>"),
	}
	s := FormatStatus(r, 0, 2*time.Minute)
	if strings.Contains(s, "<html>") {
		t.Errorf("raw HTML from the error must be escaped: %q", s)
	}
	if !strings.Contains(s, "&lt;html&gt;") {
		t.Errorf("expected escaped error body: %q", s)
	}
}

func TestFormatDailySummary_UsesSince(t *testing.T) {
	since := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	s := FormatDailySummary(&model.DailyStats{Since: since, Cycles: 3, Rising: 1}, 4)
	if !strings.Contains(s, "since 2026-03-02 09:30") {
		t.Errorf("expected header with start of period: %q", s)
	}
	if !strings.Contains(s, "Cycles: 3") || !strings.Contains(s, "Still tracking: 4") {
		t.Errorf("unexpected summary %q", s)
	}
}

func TestPollClient_SharesProxyTransport(t *testing.T) {
	tn := NewTelegramNotifier("token", "42", "http://127.0.0.1:3128")
	c := tn.pollClient()
	if c.Transport == nil || c.Transport != tn.Client.Transport {
		t.Fatal("polling client must reuse the send transport")
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok || tr.Proxy == nil {
		t.Fatal("expected proxy on polling transport")
	}
	req := httptest.NewRequest("GET", "https://api.telegram.org/bottoken/getUpdates", nil)
	u, err := tr.Proxy(req)
	if err != nil || u == nil || u.Host != "127.0.0.1:3128" {
		t.Errorf("unexpected proxy %v (%v)", u, err)
	}
	if c.Timeout <= 30*time.Second {
		t.Errorf("poll timeout %s must exceed the long-poll window", c.Timeout)
	}
}
