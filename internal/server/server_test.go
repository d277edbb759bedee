package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fetcharr/internal/bridge"
	"fetcharr/internal/cookies"
	"fetcharr/internal/database"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/downloads"
	"fetcharr/internal/errclass"
	"fetcharr/internal/metadata"
	"fetcharr/internal/models"
	"fetcharr/internal/notify"
	"fetcharr/internal/repo"
)

type fixture struct {
	srv     *httptest.Server
	manager *downloads.Manager
	store   *repo.Store
	board   *notify.ProgressBoard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	d, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	store := repo.InitStores(d.DB)

	meta := metadata.New(metadata.Bins{}, nil)
	meta.ScrapeThumbnails = false

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	board := notify.NewProgressBoard(ctx, time.Millisecond)

	// A missing tool binary makes queued downloads fail fast with dependency-missing.
	m := downloads.NewManager(context.Background(), downloads.Config{
		OutputDir: t.TempDir(),
		Bins:      downloads.Binaries{YtDlp: filepath.Join(t.TempDir(), "yt-dlp")},
		Sink:      board,
		History:   store.History(),
	})
	t.Cleanup(m.Close)

	srv := httptest.NewServer(NewRouter(Config{
		Downloads: m,
		Bridge:    bridge.New(m, meta, t.TempDir()),
		Cookies:   cookies.NewManager(t.TempDir()),
		Board:     board,
		History:   store.History(),
		Status:    fakeStatus{},
	}))
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, manager: m, store: store, board: board}
}

type fakeStatus struct{}

func (fakeStatus) GetStatus(_ context.Context, id string) (models.StatusUpdate, error) {
	if id != "from-last-run" {
		return models.StatusUpdate{}, fmt.Errorf("download %q: %w", id, repo.ErrNotFound)
	}
	return models.StatusUpdate{
		ItemID:  id,
		URL:     "https://example.com/v/1",
		Backend: "yt-dlp",
		Status:  consts.StateFailed,
		Error:   "interrupted",
	}, nil
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func errorKind(t *testing.T, body []byte) errclass.Kind {
	t.Helper()
	var reply struct {
		Error errclass.Info `json:"error"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		t.Fatalf("error body %q: %v", body, err)
	}
	return reply.Error.Kind
}

func TestPingAndCORS(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/ping", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ping status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), consts.ProgramVersion) {
		t.Errorf("ping body = %s", body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q", got)
	}

	resp, _ = f.do(t, http.MethodOptions, "/download", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", resp.StatusCode)
	}
}

func TestDownloadStatusAndEvents(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/download", `{"url":"ftp://example.com/x"}`)
	if resp.StatusCode != http.StatusBadRequest || errorKind(t, body) != errclass.KindInvalidURL {
		t.Errorf("invalid url: %d %s", resp.StatusCode, body)
	}

	resp, body = f.do(t, http.MethodPost, "/download", `{"url":"https://example.com/watch/7?utm_source=x","options":{"proxy":{"mode":"none"}}}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("download status = %d: %s", resp.StatusCode, body)
	}
	var queued downloadReply
	if err := json.Unmarshal(body, &queued); err != nil {
		t.Fatal(err)
	}
	if queued.ID == "" || queued.Existing {
		t.Fatalf("reply = %+v", queued)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := f.manager.Wait(ctx, queued.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Error == nil || res.Error.Kind != errclass.KindDependencyMissing {
		t.Errorf("result = %+v", res)
	}

	resp, body = f.do(t, http.MethodGet, "/status/"+queued.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("item status = %d", resp.StatusCode)
	}
	var st itemStatus
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatal(err)
	}
	if !st.Live || st.Status != consts.StateFailed {
		t.Errorf("item status = %+v", st)
	}

	resp, body = f.do(t, http.MethodGet, "/status", "")
	var qs queueStatus
	if err := json.Unmarshal(body, &qs); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d %v", resp.StatusCode, err)
	}
	if len(qs.Items) != 1 || qs.Items[0].ID != queued.ID {
		t.Errorf("queue = %+v", qs.Items)
	}

	resp, body = f.do(t, http.MethodGet, "/events/"+queued.ID, "")
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("events content type = %q", ct)
	}
	if !strings.Contains(string(body), "event: done") {
		t.Errorf("events body = %q", body)
	}

	resp, _ = f.do(t, http.MethodPost, "/cancel", fmt.Sprintf(`{"id":%q,"remove":true}`, queued.ID))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("cancel status = %d", resp.StatusCode)
	}
	if _, ok := f.manager.Get(queued.ID); ok {
		t.Error("removed item still queued")
	}
	resp, _ = f.do(t, http.MethodPost, "/cancel", `{"id":"nope"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cancel unknown status = %d", resp.StatusCode)
	}
}

func TestItemStatusFallsBackToStore(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/status/from-last-run", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var st itemStatus
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatal(err)
	}
	if st.Live || st.Status != consts.StateFailed || st.Error != "interrupted" {
		t.Errorf("persisted status = %+v", st)
	}

	resp, _ = f.do(t, http.MethodGet, "/status/unknown", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown status = %d, want 404", resp.StatusCode)
	}
}

func TestHistoryRoutes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		if err := f.store.History().Add(ctx, &models.HistoryItem{
			ID:          fmt.Sprintf("h%d", i),
			URL:         fmt.Sprintf("https://example.com/%d", i),
			Title:       fmt.Sprintf("Video %d", i),
			Backend:     "yt-dlp",
			CompletedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatal(err)
		}
	}

	resp, body := f.do(t, http.MethodGet, "/history?limit=2", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d", resp.StatusCode)
	}
	var items []*models.HistoryItem
	if err := json.Unmarshal(body, &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].ID != "h2" {
		t.Errorf("history page = %+v", items)
	}

	resp, body = f.do(t, http.MethodGet, "/history?limit=-1", "")
	if resp.StatusCode != http.StatusBadRequest || errorKind(t, body) != errclass.KindParseError {
		t.Errorf("bad limit: %d %s", resp.StatusCode, body)
	}

	resp, _ = f.do(t, http.MethodDelete, "/history/h1", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodDelete, "/history/h1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestCookieUpload(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/cookies", `{
		"url": "https://www.youtube.com/watch?v=abc",
		"cookies": [{"name":"SID","value":"v","domain":".youtube.com","path":"/","secure":true}]
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cookies status = %d: %s", resp.StatusCode, body)
	}
	var reply struct {
		Path  string `json:"path"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(reply.Path)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Count != 1 || !strings.Contains(string(data), "SID\tv") {
		t.Errorf("stored cookies %q in %s", data, reply.Path)
	}

	resp, body = f.do(t, http.MethodPost, "/cookies", `{"url":"https://example.com","cookies":[]}`)
	if resp.StatusCode != http.StatusForbidden || errorKind(t, body) != errclass.KindInvalidCookies {
		t.Errorf("empty cookies: %d %s", resp.StatusCode, body)
	}

	resp, body = f.do(t, http.MethodPost, "/cookies", `{"cookies":`)
	if resp.StatusCode != http.StatusBadRequest || errorKind(t, body) != errclass.KindParseError {
		t.Errorf("malformed cookies: %d %s", resp.StatusCode, body)
	}
}

func TestBridgeRoute(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/bridge/ready", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ready":true`) {
		t.Errorf("ready: %d %s", resp.StatusCode, body)
	}

	resp, _ = f.do(t, http.MethodPost, "/bridge/teleport", "{}")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown op status = %d, want 404", resp.StatusCode)
	}

	resp, body = f.do(t, http.MethodPost, "/bridge/video-info", `{"url":""}`)
	if resp.StatusCode != http.StatusBadRequest || errorKind(t, body) != errclass.KindInvalidURL {
		t.Errorf("empty url: %d %s", resp.StatusCode, body)
	}

	resp, body = f.do(t, http.MethodPost, "/open", `{"path":"/definitely/not/here"}`)
	if resp.StatusCode != http.StatusNotFound || errorKind(t, body) != errclass.KindFileNotFound {
		t.Errorf("open missing: %d %s", resp.StatusCode, body)
	}
}

func TestNotifications(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/download", `{"url":"https://example.com/watch/n1"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST /download = %d: %s", resp.StatusCode, body)
	}
	var reply downloadReply
	if err := json.Unmarshal(body, &reply); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := f.manager.Wait(ctx, reply.ID)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if res.Success {
		t.Fatalf("download with a missing tool succeeded: %+v", res)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, body = f.do(t, http.MethodGet, "/notifications", "")
		var got notifications
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
		if got.Active == nil || got.Recent == nil {
			t.Fatalf("notifications = %s, want arrays", body)
		}
		if len(got.Recent) > 0 {
			n := got.Recent[len(got.Recent)-1]
			if n.ID != reply.ID || n.State != consts.StateFailed || n.Message == "" {
				t.Errorf("recent notification = %+v", n)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("failed download never reached the board: %s", body)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestNotificationsWithoutBoard(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(NewRouter(Config{}))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/notifications")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != `{"active":[],"recent":[]}` {
		t.Errorf("GET /notifications = %d %s", resp.StatusCode, body)
	}
}

func TestStatusForKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind errclass.Kind
		want int
	}{
		{errclass.KindInvalidURL, http.StatusBadRequest},
		{errclass.KindVideoPrivate, http.StatusForbidden},
		{errclass.KindRateLimited, http.StatusTooManyRequests},
		{errclass.KindTimeout, http.StatusGatewayTimeout},
		{errclass.KindDependencyMissing, http.StatusServiceUnavailable},
		{errclass.KindNetwork, http.StatusBadGateway},
		{errclass.KindUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
