package downloads

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/downloads/downloaders"
	"fetcharr/internal/errclass"
	"fetcharr/internal/models"
)

func TestProgressClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{name: "monotonic", in: []float64{5, 20, 60}, want: []float64{5, 20, 60}},
		{name: "regression held", in: []float64{40, 10, 45}, want: []float64{40, 40, 45}},
		{name: "reset opens new window", in: []float64{90, -1, 3, 1, 7}, want: []float64{90, -1, 3, 3, 7}},
		{name: "capped", in: []float64{150}, want: []float64{100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var c progressClamp
			for i, p := range tt.in {
				if got := c.apply(p); got != tt.want[i] {
					t.Errorf("step %d: apply(%v) = %v, want %v", i, p, got, tt.want[i])
				}
			}
		})
	}
}

func TestScanTerminalLines(t *testing.T) {
	t.Parallel()

	in := "first\r[download]  1.0%\r[download]  2.0%\nlast"
	sc := bufio.NewScanner(strings.NewReader(in))
	sc.Split(scanTerminalLines)

	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	want := []string{"first", "[download]  1.0%", "[download]  2.0%", "last"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func touch(t *testing.T, path string, content string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	mod := time.Now().Add(-age)
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestResolveOutput(t *testing.T) {
	t.Parallel()

	t.Run("captured path", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "a.mp4"), "abc", 0)
		touch(t, filepath.Join(dir, "b.mkv"), "newer", 0)

		got, size := resolveOutput("a.mp4", downloaders.RankDestination, dir)
		if got != filepath.Join(dir, "a.mp4") || size != 3 {
			t.Errorf("got %q (%d)", got, size)
		}
	})

	t.Run("recent file preferred", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "old.mp4"), "o", 2*time.Hour)
		touch(t, filepath.Join(dir, "new.webm"), "n", 5*time.Second)
		touch(t, filepath.Join(dir, "newest.webp"), "thumb", 0)
		touch(t, filepath.Join(dir, "newest.mp4.part"), "p", 0)

		got, _ := resolveOutput(filepath.Join(dir, "gone.mp4"), downloaders.RankDestination, dir)
		if got != filepath.Join(dir, "new.webm") {
			t.Errorf("got %q", got)
		}
	})

	t.Run("newest overall when nothing recent", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "older.mp3"), "1", 3*time.Hour)
		touch(t, filepath.Join(dir, "old.mp3"), "2", 2*time.Hour)

		got, _ := resolveOutput("", downloaders.RankNone, dir)
		if got != filepath.Join(dir, "old.mp3") {
			t.Errorf("got %q", got)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()
		if got, size := resolveOutput("", downloaders.RankNone, t.TempDir()); got != "" || size != 0 {
			t.Errorf("got %q (%d), want empty", got, size)
		}
	})
}

func TestClassifyFailure(t *testing.T) {
	t.Parallel()

	exitErr := exec.Command("false").Run()

	tests := []struct {
		name string
		out  outcome
		want errclass.Kind
	}{
		{
			name: "error line wins over tail",
			out: outcome{exitCode: 1, err: exitErr,
				errLines: []string{"ERROR: [youtube] x: Sign in to confirm you're not a bot"},
				tail:     []string{"[youtube] x: Downloading webpage"}},
			want: errclass.KindAuthRequired,
		},
		{
			name: "tail used without error lines",
			out:  outcome{exitCode: 1, err: exitErr, tail: []string{"HTTP Error 429: Too Many Requests"}},
			want: errclass.KindRateLimited,
		},
		{
			name: "spawn error",
			out:  outcome{exitCode: -1, err: errclass.New(errclass.KindDependencyMissing, "yt-dlp not found")},
			want: errclass.KindDependencyMissing,
		},
		{
			name: "transfer error",
			out:  outcome{exitCode: -1, err: errors.New("direct download failed: connection refused")},
			want: errclass.KindNetwork,
		},
		{
			name: "nothing to go on",
			out:  outcome{exitCode: 2, err: exitErr},
			want: errclass.KindUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyFailure(tt.out); got.Kind != tt.want {
				t.Errorf("kind = %q, want %q (raw %q)", got.Kind, tt.want, got.Raw)
			}
		})
	}
}

func TestIsErrorLine(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"ERROR: Unsupported URL: https://x":                   true,
		"04/20 12:00:00 [ERROR] CUID#7 - Download aborted":    true,
		"request error: Get \"https://b.com\": EOF":           true,
		"[download]  10.0% of 1.00MiB":                        false,
		"[Merger] Merging formats into \"/dl/error-log.mp4\"": false,
	}
	for line, want := range tests {
		if got := isErrorLine(line); got != want {
			t.Errorf("isErrorLine(%q) = %v, want %v", line, got, want)
		}
	}
}

type memStatus struct {
	mu     sync.Mutex
	calls  int
	latest map[string]models.StatusUpdate
}

func (s *memStatus) UpsertStatuses(_ context.Context, updates []models.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for _, u := range updates {
		s.latest[u.ItemID] = u
	}
	return nil
}

func TestTrackerFlushesLatestOnStop(t *testing.T) {
	t.Parallel()

	store := &memStatus{latest: make(map[string]models.StatusUpdate)}
	tr := NewDownloadTracker(store)
	tr.Start()

	item := &models.QueueItem{ID: "a", URL: "https://example.com/a", State: consts.StateDownloading}
	for _, p := range []float64{10, 20, 30} {
		item.Progress = p
		tr.sendUpdate(item.Clone())
	}
	item.State, item.Progress = consts.StateCompleted, 100
	tr.sendUpdate(item.Clone())
	tr.Stop()

	got := store.latest["a"]
	if got.Status != consts.StateCompleted || got.Percent != 100 {
		t.Errorf("latest = %+v", got)
	}
}

func TestTrackerWithoutStore(t *testing.T) {
	t.Parallel()

	tr := NewDownloadTracker(nil)
	tr.Start()
	tr.sendUpdate(&models.QueueItem{ID: "x"})
	tr.Stop()
}
