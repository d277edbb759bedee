// Package builder builds argument lists for the external downloader binaries.
package builder

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/models"
	"fetcharr/internal/parsing"
	"fetcharr/internal/utils/logging"

	"github.com/alessio/shellescape"
)

// Request carries everything needed to build one download command.
type Request struct {
	URL        string
	Bin        string
	OutputDir  string
	Options    models.DownloadOptions
	ProxyURL   string
	CookieFile string
	Aria2Path  string
}

// InfoRequest carries everything needed to build one metadata command.
type InfoRequest struct {
	URL                string
	Bin                string
	ProxyURL           string
	CookieFile         string
	CookiesFromBrowser string
	YouTubeClient      string
}

// TargetDir returns the directory a download should land in.
//
// Playlist items go into a sanitized subfolder named after the playlist.
func TargetDir(opts models.DownloadOptions, fallback string) string {
	dir := opts.OutputDir
	if dir == "" {
		dir = fallback
	}
	if strings.TrimSpace(opts.PlaylistTitle) != "" {
		dir = filepath.Join(dir, parsing.PlaylistFolderName(opts.PlaylistTitle))
	}
	return dir
}

// Command wraps the binary and arguments into a context-bound command and logs it.
func Command(ctx context.Context, bin string, args []string, env []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, bin, args...)
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}
	logging.D(1, "Built command:\n%s", shellescape.QuoteCommand(append([]string{bin}, args...)))
	return cmd
}

// binOr returns bin, or the fallback command name when unset.
func binOr(bin, fallback string) string {
	if bin != "" {
		return bin
	}
	return fallback
}

// clampInt forces v into [lo, hi], substituting def for unset values.
func clampInt(v, def, lo, hi int) int {
	if v <= 0 {
		v = def
	}
	return max(lo, min(v, hi))
}

// isMode reports whether the options select the given download mode.
func isMode(opts models.DownloadOptions, mode string) bool {
	return strings.EqualFold(opts.Mode, mode)
}

// ValidBrowser reports whether yt-dlp can read cookies from the named browser.
func ValidBrowser(name string) bool {
	base, _, _ := strings.Cut(strings.ToLower(name), ":")
	for _, b := range consts.CookieBrowsers {
		if base == b {
			return true
		}
	}
	return false
}
