package parsing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsDirectFileURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"https://example.com/files/setup.exe", "setup.exe", true},
		{"https://example.com/a/My%20Archive.ZIP?token=1", "My Archive.ZIP", true},
		{"https://cdn.example.com/get?response-content-disposition=attachment%3B%20filename%3D%22report.pdf%22", "report.pdf", true},
		{"https://example.com/dl.php?file=tools%2Fbundle.tar.gz", "bundle.tar.gz", true},
		{"https://www.youtube.com/watch?v=abc", "", false},
		{"https://example.com/page.html", "", false},
		{"https://example.com/", "", false},
		{"not a url", "", false},
	}

	for _, tt := range tests {
		got, ok := IsDirectFileURL(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("IsDirectFileURL(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFilenameFromHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cd, url, want string
	}{
		{`attachment; filename="movie night.mp4"`, "https://x/y", "movie night.mp4"},
		{`attachment; filename=plain.zip`, "https://x/y", "plain.zip"},
		{`attachment; filename*=UTF-8''na%C3%AFve.txt`, "https://x/y", "naïve.txt"},
		{"", "https://x/dir/file%20name.iso", "file name.iso"},
		{"", "https://x/dir/noext", "download"},
	}
	for _, tt := range tests {
		if got := FilenameFromHeaders(tt.cd, tt.url); got != tt.want {
			t.Errorf("FilenameFromHeaders(%q, %q) = %q, want %q", tt.cd, tt.url, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	if got := SanitizeFilename("a/b:c é.mp4"); got != "a_b_c _.mp4" {
		t.Errorf("SanitizeFilename = %q", got)
	}
}

func TestPlaylistFolderName(t *testing.T) {
	t.Parallel()

	if got := PlaylistFolderName(`  My: "Best"   Mix?  `); got != "My_ _Best_ Mix_" {
		t.Errorf("got %q", got)
	}
	if got := PlaylistFolderName("   "); got != "Playlist" {
		t.Errorf("empty title = %q", got)
	}
	long := PlaylistFolderName(strings.Repeat("音", 150))
	if n := len([]rune(long)); n != 100 {
		t.Errorf("rune length = %d, want 100", n)
	}
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"20240131":        "2024-01-31",
		"2023-05-06":      "2023-05-06",
		"January 2, 2006": "2006-01-02",
		"NA":              "",
	} {
		got, err := NormalizeDate(in)
		if err != nil {
			t.Errorf("NormalizeDate(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestURLFileParser(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "urls.txt")
	body := "# comment\nhttps://youtu.be/a?si=x\n\nhttps://youtu.be/a\nnot-a-url\nhttps://vimeo.com/2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewURLFileParser(path).ParseURLs()
	if err != nil {
		t.Fatalf("ParseURLs: %v", err)
	}
	want := []string{"https://youtu.be/a", "https://vimeo.com/2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("url %d = %q, want %q", i, got[i], want[i])
		}
	}
}
