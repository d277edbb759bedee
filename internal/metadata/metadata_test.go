//go:build unix

package metadata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fetcharr/internal/errclass"
	"fetcharr/internal/models"
	"fetcharr/internal/proxy"
)

func fakeTool(t *testing.T, name, body string) (bin, calls string) {
	t.Helper()
	dir := t.TempDir()
	calls = filepath.Join(dir, "calls")
	bin = filepath.Join(dir, name)
	script := "#!/bin/sh\necho \"$@\" >> " + calls + "\n" + body
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return bin, calls
}

func callCount(t *testing.T, calls string) int {
	t.Helper()
	b, err := os.ReadFile(calls)
	if err != nil {
		return 0
	}
	return strings.Count(string(b), "\n")
}

func testOpts() models.DownloadOptions {
	return models.DownloadOptions{Proxy: proxy.Config{Mode: proxy.ModeNone}}
}

func newTestFetcher(bins Bins) *Fetcher {
	f := New(bins, nil)
	f.ScrapeThumbnails = false
	return f
}

func TestVideoInfoCachesByCleanURL(t *testing.T) {
	t.Parallel()

	bin, calls := fakeTool(t, "yt-dlp", `echo '{"id":"x","title":"Clip","channel":"Chan","duration":61,"thumbnail":"https://img/x.jpg"}'`)
	f := newTestFetcher(Bins{YtDlp: bin})
	ctx := context.Background()

	info, err := f.VideoInfo(ctx, "https://vimeo.com/123?utm_source=feed", testOpts())
	if err != nil {
		t.Fatalf("VideoInfo() error = %v", err)
	}
	if info.Title != "Clip" || info.Author() != "Chan" || info.Duration != 61 {
		t.Errorf("info = %+v", info)
	}

	if _, err := f.VideoInfo(ctx, "https://vimeo.com/123", testOpts()); err != nil {
		t.Fatal(err)
	}
	if n := callCount(t, calls); n != 1 {
		t.Errorf("yt-dlp ran %d times, want 1", n)
	}
	if s := f.Stats(); s.VideoInfoCount != 1 || s.VideoInfoCapacity != VideoInfoCacheSize {
		t.Errorf("stats = %+v", s)
	}

	f.Clear()
	if s := f.Stats(); s.VideoInfoCount != 0 {
		t.Errorf("stats after clear = %+v", s)
	}
}

func TestVideoInfoCacheEvicts(t *testing.T) {
	t.Parallel()

	bin, _ := fakeTool(t, "yt-dlp", `echo '{"title":"t"}'`)
	f := newTestFetcher(Bins{YtDlp: bin})

	for i := range VideoInfoCacheSize + 2 {
		u := "https://vimeo.com/" + string(rune('a'+i))
		if _, err := f.VideoInfo(context.Background(), u, testOpts()); err != nil {
			t.Fatal(err)
		}
	}
	if s := f.Stats(); s.VideoInfoCount != VideoInfoCacheSize {
		t.Errorf("count = %d, want %d", s.VideoInfoCount, VideoInfoCacheSize)
	}
}

func TestVideoInfoFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		bin  string
		want errclass.Kind
	}{
		{
			name: "classified stderr",
			body: "echo 'ERROR: [vimeo] 1: This video is private' >&2\nexit 1",
			want: errclass.KindVideoPrivate,
		},
		{
			name: "no json",
			body: "echo 'nothing here'",
			want: errclass.KindParseError,
		},
		{
			name: "missing binary",
			bin:  "/nonexistent/yt-dlp",
			want: errclass.KindDependencyMissing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bin := tt.bin
			if bin == "" {
				bin, _ = fakeTool(t, "yt-dlp", tt.body)
			}
			f := newTestFetcher(Bins{YtDlp: bin})
			_, err := f.VideoInfo(context.Background(), "https://vimeo.com/1", testOpts())
			if got := errclass.KindOf(err); got != tt.want {
				t.Errorf("kind = %q, want %q (err %v)", got, tt.want, err)
			}
			if s := f.Stats(); s.VideoInfoCount != 0 {
				t.Error("failures must not be cached")
			}
		})
	}
}

func TestVideoInfoTimeoutKillsProcess(t *testing.T) {
	t.Parallel()

	bin, _ := fakeTool(t, "yt-dlp", "exec sleep 30")
	f := newTestFetcher(Bins{YtDlp: bin})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.VideoInfo(ctx, "https://vimeo.com/1", testOpts())
	if got := errclass.KindOf(err); got != errclass.KindTimeout {
		t.Errorf("kind = %q, want timeout (err %v)", got, err)
	}
	if took := time.Since(start); took > 10*time.Second {
		t.Errorf("took %v, process was not killed", took)
	}
}

func TestDirectFileSkipsTools(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(Bins{YtDlp: "/nonexistent/yt-dlp", Lux: "/nonexistent/lux"})
	ctx := context.Background()

	info, err := f.VideoInfo(ctx, "https://cdn.example.com/files/setup.zip", testOpts())
	if err != nil {
		t.Fatalf("VideoInfo() error = %v", err)
	}
	if info.Title != "setup.zip" || info.Ext != "zip" {
		t.Errorf("info = %+v", info)
	}

	list, err := f.PlaylistInfo(ctx, "https://cdn.example.com/files/setup.zip", testOpts(), 0, 10)
	if err != nil || list.IsPlaylist || len(list.Entries) != 1 {
		t.Errorf("PlaylistInfo() = %+v, %v", list, err)
	}

	formats, err := f.Formats(ctx, "https://cdn.example.com/files/setup.zip", testOpts())
	if err != nil || formats.Title != "setup.zip" || len(formats.Formats) != 0 {
		t.Errorf("Formats() = %+v, %v", formats, err)
	}
}

func TestPlaylistPagesFromCache(t *testing.T) {
	t.Parallel()

	bin, calls := fakeTool(t, "yt-dlp", `
for i in 1 2 3 4 5; do
  echo "{\"_type\":\"url\",\"id\":\"v$i\",\"url\":\"https://vimeo.com/$i\",\"title\":\"Video $i\",\"playlist_title\":\"Album\"}"
done`)
	f := newTestFetcher(Bins{YtDlp: bin})
	ctx := context.Background()
	const u = "https://vimeo.com/showcase/1"

	first, err := f.PlaylistInfo(ctx, u, testOpts(), 0, 2)
	if err != nil {
		t.Fatalf("PlaylistInfo() error = %v", err)
	}
	if !first.IsPlaylist || first.Title != "Album" || first.TotalCount != 5 || len(first.Entries) != 2 || !first.HasMore {
		t.Errorf("first page = %+v", first)
	}

	last, err := f.PlaylistInfo(ctx, u, testOpts(), 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last.Entries) != 1 || last.Entries[0].ID != "v5" || last.HasMore {
		t.Errorf("last page = %+v", last)
	}

	if n := callCount(t, calls); n != 1 {
		t.Errorf("yt-dlp ran %d times, want 1", n)
	}
	if !strings.Contains(mustRead(t, calls), "--flat-playlist") {
		t.Error("listing must use --flat-playlist")
	}
}

func TestLuxFormats(t *testing.T) {
	t.Parallel()

	bin, calls := fakeTool(t, "lux", `cat <<'EOF'
[
  {
    "site": "哔哩哔哩 bilibili.com",
    "title": "测试",
    "streams": {
      "64": {"id": "64", "quality": "高清 720P", "size": 20, "parts": [{"ext": "flv"}]},
      "80": {"id": "80", "quality": "高清 1080P", "size": 40, "parts": [{"ext": "flv"}]}
    }
  }
]
EOF`)
	f := newTestFetcher(Bins{Lux: bin})

	got, err := f.Formats(context.Background(), "https://www.bilibili.com/video/BV1xx", testOpts())
	if err != nil {
		t.Fatalf("Formats() error = %v", err)
	}
	if got.Title != "测试" || len(got.Formats) != 2 || got.Formats[0].FormatID != "80" {
		t.Errorf("formats = %+v", got)
	}
	if args := mustRead(t, calls); !strings.HasPrefix(args, "-j -i ") {
		t.Errorf("lux args = %q", args)
	}
}

func TestLuxPlaylistPassesRange(t *testing.T) {
	t.Parallel()

	bin, calls := fakeTool(t, "lux", `echo '{"site":"哔哩哔哩 bilibili.com","title":"A"}'
echo '{"site":"哔哩哔哩 bilibili.com","title":"B"}'`)
	f := newTestFetcher(Bins{Lux: bin})

	got, err := f.PlaylistInfo(context.Background(), "https://www.bilibili.com/video/BV1xx", testOpts(), 20, 2)
	if err != nil {
		t.Fatalf("PlaylistInfo() error = %v", err)
	}
	if len(got.Entries) != 2 || got.Entries[0].ID != "lux_21" || !got.HasMore {
		t.Errorf("playlist = %+v", got)
	}
	if args := mustRead(t, calls); !strings.Contains(args, "-p -start 21 -end 22") {
		t.Errorf("lux args = %q", args)
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
