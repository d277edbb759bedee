package builder

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"fetcharr/internal/domain/command"
	"fetcharr/internal/models"
)

func TestFormatSelector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, mode, quality, audio, formatID string
		want                                 string
	}{
		{"raw numeric id", "video", "1080p", "", "140+251", "140+251"},
		{"raw quality digit", "video", "251", "", "", "251"},
		{"raw best selector", "video", "bestvideo+bestaudio", "", "", "bestvideo+bestaudio"},
		{"video 1080p", "video", "1080p", "", "", "bestvideo[height<=1080]+bestaudio/best[height<=1080]/best"},
		{"video 4k", "video", "4k", "", "", "bestvideo[height<=2160]+bestaudio/best[height<=2160]/best"},
		{"video 4K upper", "video", "4K", "", "", "bestvideo[height<=2160]+bestaudio/best[height<=2160]/best"},
		{"video 2160p", "video", "2160p", "", "", "bestvideo[height<=2160]+bestaudio/best[height<=2160]/best"},
		{"video 1440p", "video", "1440p", "", "", "bestvideo[height<=1440]+bestaudio/best[height<=1440]/best"},
		{"video 720p", "video", "720p", "", "", "bestvideo[height<=720]+bestaudio/best[height<=720]/best"},
		{"video 480p", "video", "480p", "", "", "bestvideo[height<=480]+bestaudio/best[height<=480]/best"},
		{"video 360p", "video", "360p", "", "", "bestvideo[height<=360]+bestaudio/best[height<=360]/best"},
		{"video 240p", "video", "240p", "", "", "bestvideo[height<=240]+bestaudio/best[height<=240]/best"},
		{"mute 1080p", "mute", "1080p", "", "", "bestvideo[height<=1080]/bestvideo/best"},
		{"preset with raw format id", "video", "720p", "", "22", "22"},
		{"video max", "video", "max", "", "", "bestvideo+bestaudio/best"},
		{"video best", "video", "best", "", "", "bestvideo+bestaudio/best"},
		{"mute 720p", "mute", "720p", "", "", "bestvideo[height<=720]/bestvideo/best"},
		{"mute max", "mute", "max", "", "", "bestvideo/best"},
		{"audio 192", "audio", "max", "192", "", "bestaudio[abr<=192]/bestaudio/best"},
		{"audio 320k", "audio", "", "320k", "", "bestaudio[abr<=320]/bestaudio/best"},
		{"audio best", "audio", "", "best", "", "bestaudio/best"},
		{"audio odd bitrate", "audio", "", "160", "", "bestaudio/best"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatSelector(tt.mode, tt.quality, tt.audio, tt.formatID); got != tt.want {
				t.Errorf("FormatSelector() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestYtdlpDownloadArgs(t *testing.T) {
	t.Parallel()

	r := Request{
		URL:       "https://www.youtube.com/watch?v=abc",
		OutputDir: "/tmp/out",
		ProxyURL:  "socks5://127.0.0.1:1080",
		Aria2Path: "/usr/bin/aria2c",
		Options: models.DownloadOptions{
			Quality:            "720p",
			Remux:              true,
			CookiesFromBrowser: "firefox",
			EmbedChapters:      true,
			SponsorBlock:       true,
			SpeedLimit:         "5",
			Accelerate:         true,
			AriaConnections:    32,
		},
	}
	args := YtdlpDownloadArgs(r)

	if args[len(args)-1] != r.URL {
		t.Fatalf("URL must be last, got %q", args[len(args)-1])
	}

	wantPairs := [][2]string{
		{command.Output, filepath.Join("/tmp/out", command.FilenameSyntax)},
		{command.Print, command.AfterMovePrint},
		{command.Proxy, r.ProxyURL},
		{command.Format, "bestvideo[height<=720]+bestaudio/best[height<=720]/best"},
		{command.RemuxVideo, "mp4"},
		{command.CookiesFromBrowser, "firefox"},
		{command.ExtractorArgs, command.YouTubeClientsDownload},
		{command.SponsorBlockStrip, command.SponsorBlockAll},
		{command.LimitRate, "5M"},
		{command.Downloader, "/usr/bin/aria2c"},
		{command.DownloaderArgs, "aria2c:-x 16 -s 16 -k 1M --file-allocation=none"},
	}
	for _, p := range wantPairs {
		i := slices.Index(args, p[0])
		if i < 0 || i+1 >= len(args) || args[i+1] != p[1] {
			t.Errorf("expected %s %q in %v", p[0], p[1], args)
		}
	}

	for _, flag := range []string{command.NoPlaylist, command.EmbedChapters, command.Newline} {
		if !slices.Contains(args, flag) {
			t.Errorf("missing %s", flag)
		}
	}
	if slices.Contains(args, command.ExtractAudio) {
		t.Error("video mode must not extract audio")
	}
}

func TestYtdlpDownloadArgsAudioAndCookieFile(t *testing.T) {
	t.Parallel()

	args := YtdlpDownloadArgs(Request{
		URL:        "https://vimeo.com/1",
		OutputDir:  "/tmp",
		CookieFile: "/tmp/c.txt",
		Options: models.DownloadOptions{
			Mode:               "audio",
			AudioQuality:       "128",
			CookiesFromBrowser: "chrome",
			ConvertMP4:         true,
			AllowPlaylist:      true,
		},
	})

	joined := strings.Join(args, " ")
	for _, want := range []string{"-x --audio-format m4a --audio-quality 128K", "--cookies /tmp/c.txt", "-f bestaudio[abr<=128]/bestaudio/best"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %q", want, joined)
		}
	}
	for _, unwanted := range []string{command.CookiesFromBrowser, command.RecodeVideo, command.NoPlaylist, command.ExtractorArgs, command.Downloader} {
		if slices.Contains(args, unwanted) {
			t.Errorf("unexpected %s in %q", unwanted, joined)
		}
	}
}

func TestLuxDownloadArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   models.DownloadOptions
		cookie string
		want   []string
	}{
		{
			name: "generic format skipped",
			opts: models.DownloadOptions{FormatID: "bestvideo+bestaudio"},
			want: []string{"-o", "/dl", "https://www.bilibili.com/video/BV1"},
		},
		{
			name:   "explicit format, threads and cookies",
			opts:   models.DownloadOptions{FormatID: "80-7", LuxThreads: 4},
			cookie: "/c.txt",
			want:   []string{"-o", "/dl", "-f", "80-7", "-m", "-n", "4", "-c", "/c.txt", "https://www.bilibili.com/video/BV1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := LuxDownloadArgs(Request{
				URL:        "https://www.bilibili.com/video/BV1",
				OutputDir:  "/dl",
				CookieFile: tt.cookie,
				Options:    tt.opts,
			})
			if !slices.Equal(got, tt.want) {
				t.Errorf("LuxDownloadArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAria2Args(t *testing.T) {
	t.Parallel()

	args := Aria2Args(Request{
		URL:       "https://example.com/file.zip",
		OutputDir: "/dl",
		ProxyURL:  "http://127.0.0.1:8080",
		Options:   models.DownloadOptions{SpeedLimit: "2M"},
	}, "file.zip")

	if args[0] != "https://example.com/file.zip" {
		t.Errorf("URL must come first, got %q", args[0])
	}
	for _, want := range []string{"--max-download-limit=2M", "--all-proxy=http://127.0.0.1:8080", command.AriaInterval} {
		if !slices.Contains(args, want) {
			t.Errorf("missing %q in %v", want, args)
		}
	}
	if i := slices.Index(args, command.AriaConnections); i < 0 || args[i+1] != "16" {
		t.Errorf("expected default 16 connections in %v", args)
	}
}

func TestInfoArgs(t *testing.T) {
	t.Parallel()

	yt := YtdlpPlaylistArgs(InfoRequest{URL: "https://www.youtube.com/playlist?list=PL1"}, 1, 50)
	joined := strings.Join(yt, " ")
	for _, want := range []string{"--dump-json", "--flat-playlist", "--playlist-items 1:50", "youtube:player_client=android_sdkless"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %q", want, joined)
		}
	}

	lux := LuxInfoArgs(InfoRequest{URL: "https://b23.tv/x"}, true, 1, 10)
	want := []string{"-j", "-i", "-p", "-start", "1", "-end", "10", "https://b23.tv/x"}
	if !slices.Equal(lux, want) {
		t.Errorf("LuxInfoArgs() = %v, want %v", lux, want)
	}
}

func TestTargetDir(t *testing.T) {
	t.Parallel()

	got := TargetDir(models.DownloadOptions{PlaylistTitle: "My: Mix"}, "/dl")
	if got != filepath.Join("/dl", "My_ Mix") {
		t.Errorf("TargetDir() = %q", got)
	}
	if got := TargetDir(models.DownloadOptions{OutputDir: "/x"}, "/dl"); got != "/x" {
		t.Errorf("TargetDir() = %q, want /x", got)
	}
}
