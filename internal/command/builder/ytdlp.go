package builder

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"fetcharr/internal/domain/command"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/parsing"
)

const defaultAudioFormat = "m4a"

// YtdlpDownloadArgs builds the yt-dlp argument list for a download request.
func YtdlpDownloadArgs(r Request) []string {
	o := r.Options
	args := make([]string, 0, 48)

	args = append(args,
		command.Encoding, command.EncodingUTF8,
		command.Output, filepath.Join(r.OutputDir, command.FilenameSyntax),
		command.Newline, command.Progress,
		command.ProgressTemplate, command.ProgressTemplateValue,
		command.Print, command.AfterMovePrint)

	if r.ProxyURL != "" {
		args = append(args, command.Proxy, r.ProxyURL)
	}

	// Format selection
	args = append(args, command.Format, FormatSelector(o.Mode, o.Quality, o.AudioQuality, o.FormatID))

	if isMode(o, consts.ModeAudio) {
		audioFmt := o.AudioFormat
		if audioFmt == "" {
			audioFmt = defaultAudioFormat
		}
		args = append(args, command.ExtractAudio, command.AudioFormat, audioFmt)
		if abr := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o.AudioQuality)), "k"); abr != "" {
			args = append(args, command.AudioQuality, abr+"K")
		}
	} else {
		args = append(args, command.YtDLPOutputExtension, "mp4")
		switch {
		case o.ConvertMP4:
			args = append(args,
				command.FormatSort, command.FormatSortH264,
				command.RecodeVideo, "mp4")
		case o.Remux:
			args = append(args, command.RemuxVideo, "mp4")
		}
	}

	if o.EmbedThumbnail {
		args = append(args, command.EmbedThumbnail)
	}
	if o.NoMetadata {
		args = append(args, command.NoEmbedMetadata)
	}
	if !o.AllowPlaylist {
		args = append(args, command.NoPlaylist)
	}

	args = appendCookies(args, r.CookieFile, o.CookiesFromBrowser)

	if parsing.IsYouTubeURL(r.URL) {
		args = append(args, command.ExtractorArgs, command.YouTubeClientsDownload)
	}

	if o.SponsorBlock {
		args = append(args, command.SponsorBlockStrip, command.SponsorBlockAll)
	}
	if o.EmbedChapters {
		args = append(args, command.EmbedChapters)
	}
	if o.EmbedSubs {
		langs := o.SubLangs
		if langs == "" {
			langs = "en.*,ru.*"
		}
		args = append(args, command.EmbedSubs, command.SubLangs, langs)
	}

	if limit := RateLimit(o.SpeedLimit); limit != "" {
		args = append(args, command.LimitRate, limit)
	}

	// External downloader
	if o.Accelerate && r.Aria2Path != "" {
		conns := strconv.Itoa(clampInt(o.AriaConnections, 8, 1, 16))
		args = append(args,
			command.Downloader, r.Aria2Path,
			command.DownloaderArgs, command.AriaDownloaderArgsPrefix+
				command.AriaConnections+" "+conns+" "+
				command.AriaSplits+" "+conns+" "+
				command.AriaMinSplit1M+" "+
				command.AriaFileAllocationNone)
	}

	// Add target URL [ MUST GO LAST !! ]
	return append(args, r.URL)
}

// FormatSelector maps the mode and quality presets onto a yt-dlp format selector.
//
// Raw format ids (leading digit, a '+' join, or a "best..." selector) pass through unchanged.
func FormatSelector(mode, quality, audioQuality, formatID string) string {
	if isRawFormat(formatID) {
		return formatID
	}
	q := strings.ToLower(strings.TrimSpace(quality))
	if !isQualityPreset(q) && isRawFormat(q) {
		return strings.TrimSpace(quality)
	}

	switch strings.ToLower(mode) {
	case consts.ModeAudio:
		abr := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(audioQuality)), "k")
		for _, b := range consts.AudioBitrates {
			if abr == b {
				return "bestaudio[abr<=" + b + "]/bestaudio/best"
			}
		}
		return "bestaudio/best"

	case consts.ModeMute:
		if h, ok := consts.VideoQualities[q]; ok {
			hs := strconv.Itoa(h)
			return "bestvideo[height<=" + hs + "]/bestvideo/best"
		}
		return "bestvideo/best"

	default:
		if h, ok := consts.VideoQualities[q]; ok {
			hs := strconv.Itoa(h)
			return "bestvideo[height<=" + hs + "]+bestaudio/best[height<=" + hs + "]/best"
		}
		return "bestvideo+bestaudio/best"
	}
}

// isQualityPreset reports whether q is a named quality rather than a format id.
func isQualityPreset(q string) bool {
	if q == consts.QualityBest || q == consts.QualityMax {
		return true
	}
	_, ok := consts.VideoQualities[q]
	return ok
}

// isRawFormat reports whether s looks like a yt-dlp format id rather than a preset.
func isRawFormat(s string) bool {
	if s == "" {
		return false
	}
	return unicode.IsDigit(rune(s[0])) ||
		strings.Contains(s, "+") ||
		strings.HasPrefix(s, "best")
}

// RateLimit normalizes a speed limit; bare numbers are megabytes per second.
func RateLimit(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return ""
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		if n <= 0 {
			return ""
		}
		return s + "M"
	}
	return s
}

// appendCookies adds a cookie file, or browser cookies when no file is set.
func appendCookies(args []string, cookieFile, browser string) []string {
	if cookieFile != "" {
		return append(args, command.CookiePath, cookieFile)
	}
	if browser != "" && ValidBrowser(browser) {
		return append(args, command.CookiesFromBrowser, browser)
	}
	return args
}

// infoBase holds the arguments shared by all yt-dlp metadata commands.
func infoBase(r InfoRequest, extra ...string) []string {
	args := make([]string, 0, 16)
	args = append(args, command.Encoding, command.EncodingUTF8)
	args = append(args, extra...)

	if r.ProxyURL != "" {
		args = append(args, command.Proxy, r.ProxyURL)
	}
	args = appendCookies(args, r.CookieFile, r.CookiesFromBrowser)

	if parsing.IsYouTubeURL(r.URL) {
		client := r.YouTubeClient
		if client == "" {
			client = command.YouTubeClientInfo
		}
		args = append(args, command.ExtractorArgs, "youtube:player_client="+client)
	}
	return args
}

// YtdlpInfoArgs builds the single-item metadata command (also used for formats).
func YtdlpInfoArgs(r InfoRequest) []string {
	args := infoBase(r, command.DumpJSON, command.NoDownload, command.NoPlaylist)
	return append(args, r.URL)
}

// YtdlpPlaylistArgs builds the flat playlist listing command for items [start, end].
func YtdlpPlaylistArgs(r InfoRequest, start, end int) []string {
	extra := []string{command.DumpJSON, command.YtDLPFlatPlaylist, command.NoDownload}
	if start > 0 && end >= start {
		extra = append(extra, command.PlaylistItems, strconv.Itoa(start)+":"+strconv.Itoa(end))
	}
	args := infoBase(r, extra...)
	return append(args, r.URL)
}

// YtdlpBin returns the yt-dlp binary for the request.
func YtdlpBin(bin string) string {
	return binOr(bin, command.YTDLP)
}
