// Package backends decides which external downloader services a URL.
package backends

import (
	"regexp"
	"strings"

	"fetcharr/internal/parsing"
)

// Kind identifies a downloader engine.
type Kind string

const (
	YtDlp      Kind = "ytdlp"
	Lux        Kind = "lux"
	DirectFile Kind = "direct-file"
	Auto       Kind = "auto"
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// luxHosts routes Chinese platforms, which lux handles better than yt-dlp, in priority order.
var luxHosts = []struct {
	platform string
	pattern  *regexp.Regexp
}{
	{"bilibili", regexp.MustCompile(`(?i)(^|\.)(bilibili\.com|b23\.tv|bilibili\.tv)$`)},
	{"douyin", regexp.MustCompile(`(?i)(^|\.)(douyin\.com|iesdouyin\.com)$`)},
	{"iqiyi", regexp.MustCompile(`(?i)(^|\.)(iqiyi\.com|iq\.com)$`)},
	{"youku", regexp.MustCompile(`(?i)(^|\.)youku\.com$`)},
	{"weibo", regexp.MustCompile(`(?i)(^|\.)(weibo\.com|weibo\.cn)$`)},
	{"kuaishou", regexp.MustCompile(`(?i)(^|\.)(kuaishou\.com|gifshow\.com)$`)},
	{"xiaohongshu", regexp.MustCompile(`(?i)(^|\.)(xiaohongshu\.com|xhslink\.com)$`)},
	{"huya", regexp.MustCompile(`(?i)(^|\.)huya\.com$`)},
	{"douyu", regexp.MustCompile(`(?i)(^|\.)(douyu\.com|douyutv\.com)$`)},
	{"acfun", regexp.MustCompile(`(?i)(^|\.)acfun\.cn$`)},
}

// DetectBackendForURL returns lux for listed Chinese platforms and ytdlp otherwise.
//
// Pure and synchronous; first match wins and there is no error path.
func DetectBackendForURL(rawURL string) Kind {
	host := parsing.Hostname(rawURL)
	if host == "" {
		return YtDlp
	}
	for _, h := range luxHosts {
		if h.pattern.MatchString(host) {
			return Lux
		}
	}
	return YtDlp
}

// Platform returns the name of the matched lux platform, or "".
func Platform(rawURL string) string {
	host := parsing.Hostname(rawURL)
	for _, h := range luxHosts {
		if h.pattern.MatchString(host) {
			return h.platform
		}
	}
	return ""
}

// Select picks the engine for a download.
//
// Direct file links always bypass the media tools. A forced backend wins over detection.
func Select(rawURL string, forced Kind) Kind {
	if _, ok := parsing.IsDirectFileURL(rawURL); ok {
		return DirectFile
	}
	switch forced {
	case YtDlp, Lux:
		return forced
	}
	return DetectBackendForURL(rawURL)
}

// ParseKind maps user input onto a Kind. Unknown values mean auto-detection.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lux":
		return Lux
	case "ytdlp", "yt-dlp":
		return YtDlp
	case "direct", "direct-file", "file":
		return DirectFile
	}
	return Auto
}
