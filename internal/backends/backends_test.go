package backends

import "testing"

func TestDetectBackendForURL(t *testing.T) {
	t.Parallel()

	lux := []string{
		"https://www.bilibili.com/video/BV1GJ411x7h7",
		"https://b23.tv/abc",
		"https://m.bilibili.com/video/BV1",
		"https://www.douyin.com/video/7",
		"https://www.iqiyi.com/v_19rr.html",
		"https://v.youku.com/v_show/id_X.html",
		"https://weibo.com/tv/show/1034:1",
		"https://m.weibo.cn/status/1",
		"https://www.kuaishou.com/short-video/3x",
		"https://www.xiaohongshu.com/explore/1",
		"http://xhslink.com/a/b",
		"https://www.huya.com/123",
		"https://www.douyu.com/123",
		"https://www.acfun.cn/v/ac1",
		"HTTPS://WWW.BILIBILI.COM/video/BV1",
	}
	for _, u := range lux {
		if got := DetectBackendForURL(u); got != Lux {
			t.Errorf("DetectBackendForURL(%q) = %s, want lux", u, got)
		}
	}

	ytdlp := []string{
		"https://www.youtube.com/watch?v=abc",
		"https://youtu.be/abc",
		"https://www.tiktok.com/@u/video/1",
		"https://www.instagram.com/reel/x/",
		"https://x.com/u/status/1",
		"https://twitter.com/u/status/1",
		"https://www.twitch.tv/videos/1",
		"https://vimeo.com/1",
		"https://notbilibili.com/video",
		"https://example.com/?ref=bilibili.com",
		"garbage",
		"",
	}
	for _, u := range ytdlp {
		if got := DetectBackendForURL(u); got != YtDlp {
			t.Errorf("DetectBackendForURL(%q) = %s, want ytdlp", u, got)
		}
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url    string
		forced Kind
		want   Kind
	}{
		{"https://example.com/file.zip", Auto, DirectFile},
		{"https://www.bilibili.com/video/BV1/x.mp4", YtDlp, DirectFile},
		{"https://www.bilibili.com/video/BV1", Auto, Lux},
		{"https://www.bilibili.com/video/BV1", YtDlp, YtDlp},
		{"https://www.youtube.com/watch?v=a", Lux, Lux},
		{"https://www.youtube.com/watch?v=a", Auto, YtDlp},
	}
	for _, tt := range tests {
		if got := Select(tt.url, tt.forced); got != tt.want {
			t.Errorf("Select(%q, %s) = %s, want %s", tt.url, tt.forced, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Kind{
		"lux": Lux, "LUX": Lux, "yt-dlp": YtDlp, "ytdlp": YtDlp, "direct": DirectFile, "": Auto, "auto": Auto,
	} {
		if got := ParseKind(in); got != want {
			t.Errorf("ParseKind(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestPlatform(t *testing.T) {
	t.Parallel()

	if got := Platform("https://www.acfun.cn/v/ac1"); got != "acfun" {
		t.Errorf("Platform = %q", got)
	}
	if got := Platform("https://vimeo.com/1"); got != "" {
		t.Errorf("Platform = %q", got)
	}
}
