//go:build unix

package deps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fetcharr/internal/domain/command"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"2024.08.06\n": "2024.08.06",
		"ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers\nbuilt with gcc": "6.1.1-3ubuntu5",
		"lux: version v0.24.1, A fast and simple video downloader.":                                    "v0.24.1",
		"aria2 version 1.37.0\nCopyright (C) 2006, 2019 Tatsuhiro Tsujikawa":                           "1.37.0",
	}
	for in, want := range tests {
		if got := parseVersion(in); got != want {
			t.Errorf("parseVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckPrefersBinDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := filepath.Join(dir, command.Lux)
	script := "#!/bin/sh\n[ \"$1\" = \"-v\" ] && echo 'lux: version v0.99.0, test build'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Check(context.Background(), command.Lux, dir)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !got.Installed || got.Path != bin || got.Version != "v0.99.0" {
		t.Errorf("Check() = %+v", got)
	}
}

func TestCheckMissingAndUnknown(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	got, err := Check(context.Background(), command.Aria2c, t.TempDir())
	if err != nil || got.Installed || got.Path != "" {
		t.Errorf("Check(missing) = %+v, %v", got, err)
	}

	if _, err := Check(context.Background(), "wget", ""); !errors.Is(err, ErrUnknown) {
		t.Errorf("Check(wget) error = %v, want ErrUnknown", err)
	}

	all := CheckAll(context.Background(), "")
	if len(all) != len(Names) {
		t.Fatalf("CheckAll() returned %d results", len(all))
	}
	for i, s := range all {
		if s.Name != Names[i] || s.Installed {
			t.Errorf("CheckAll()[%d] = %+v", i, s)
		}
	}
}

func TestInstallYtDlpFromLatestRelease(t *testing.T) {
	script := "#!/bin/sh\n[ \"$1\" = \"--version\" ] && echo 2099.01.02\n"

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"tag_name":"2099.01.02","assets":[`+
			`{"name":"yt-dlp.tar.gz","browser_download_url":"%[1]s/wrong"},`+
			`{"name":%[2]q,"browser_download_url":"%[1]s/asset"}]}`, srv.URL, ytdlpAsset())
	})
	mux.HandleFunc("/asset", func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "yt-dlp", time.Time{}, strings.NewReader(script))
	})
	mux.HandleFunc("/wrong", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "wrong asset", http.StatusNotFound)
	})

	swapReleaseEndpoints(t, srv.URL+"/releases/latest", srv.URL+"/download")

	binDir := filepath.Join(t.TempDir(), "bin")
	got, err := InstallYtDlp(context.Background(), binDir, "")
	if err != nil {
		t.Fatalf("InstallYtDlp() error = %v", err)
	}

	want := filepath.Join(binDir, command.YTDLP)
	if !got.Installed || got.Path != want || got.Version != "2099.01.02" {
		t.Errorf("InstallYtDlp() = %+v", got)
	}
	info, err := os.Stat(want)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Errorf("installed mode = %v, want executable", info.Mode())
	}
	if _, err := os.Stat(want + ".part"); !os.IsNotExist(err) {
		t.Errorf("partial file left behind: %v", err)
	}
}

func TestInstallYtDlpPinnedTagReplacesExisting(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gotPath = r.URL.Path
		}
		if strings.HasSuffix(r.URL.Path, "/releases/latest") {
			t.Errorf("pinned install queried %s", r.URL.Path)
		}
		http.ServeContent(w, r, "yt-dlp", time.Time{},
			strings.NewReader("#!/bin/sh\necho 2024.12.13\n"))
	}))
	defer srv.Close()

	swapReleaseEndpoints(t, srv.URL+"/releases/latest", srv.URL+"/download")

	binDir := t.TempDir()
	old := filepath.Join(binDir, command.YTDLP)
	if err := os.WriteFile(old, []byte("#!/bin/sh\necho 2020.01.01\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := InstallYtDlp(context.Background(), binDir, "2024.12.13")
	if err != nil {
		t.Fatalf("InstallYtDlp() error = %v", err)
	}
	if got.Version != "2024.12.13" {
		t.Errorf("Version = %q, want 2024.12.13", got.Version)
	}
	if want := "/download/2024.12.13/" + ytdlpAsset(); gotPath != want {
		t.Errorf("fetched %q, want %q", gotPath, want)
	}

	if err := UninstallYtDlp(binDir); err != nil {
		t.Fatalf("UninstallYtDlp() error = %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("yt-dlp still present after uninstall: %v", err)
	}
	if err := UninstallYtDlp(binDir); err != nil {
		t.Errorf("second UninstallYtDlp() error = %v", err)
	}
}

func TestInstallYtDlpReleaseErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"not json", http.StatusOK, "<html>rate limited</html>"},
		{"no tag", http.StatusOK, `{"assets":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			swapReleaseEndpoints(t, srv.URL, srv.URL)

			binDir := t.TempDir()
			if _, err := InstallYtDlp(context.Background(), binDir, ""); err == nil {
				t.Fatal("InstallYtDlp() error = nil")
			}
			if _, err := os.Stat(filepath.Join(binDir, command.YTDLP)); !os.IsNotExist(err) {
				t.Errorf("failed install left a binary: %v", err)
			}
		})
	}
}

// swapReleaseEndpoints points the release URLs at a test server for one test.
func swapReleaseEndpoints(t *testing.T, api, base string) {
	t.Helper()
	oldAPI, oldBase := ReleaseAPI, DownloadBase
	ReleaseAPI, DownloadBase = api, base
	t.Cleanup(func() { ReleaseAPI, DownloadBase = oldAPI, oldBase })
}
