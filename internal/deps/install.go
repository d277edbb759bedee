package deps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"fetcharr/internal/domain/command"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/errclass"
	"fetcharr/internal/models"
	"fetcharr/internal/utils/logging"

	"github.com/cavaliergopher/grab/v3"
	"github.com/tidwall/gjson"
)

// Release endpoints. Variables so tests can point them at a local server.
var (
	ReleaseAPI   = "https://api.github.com/repos/yt-dlp/yt-dlp/releases/latest"
	DownloadBase = "https://github.com/yt-dlp/yt-dlp/releases/download"
)

var userAgent = consts.ProgramName + "/" + consts.ProgramVersion

// ytdlpAsset is the release asset built for this platform.
func ytdlpAsset() string {
	switch runtime.GOOS {
	case "windows":
		return "yt-dlp.exe"
	case "darwin":
		return "yt-dlp_macos"
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "yt-dlp_linux_aarch64"
		}
		return "yt-dlp_linux"
	}
	return command.YTDLP
}

// ytdlpTarget is where an installed yt-dlp lives inside binDir.
func ytdlpTarget(binDir string) string {
	name := command.YTDLP
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(binDir, name)
}

// latestRelease returns the newest tag and the download link of this platform's asset.
// The link is empty when the release does not list the asset.
func latestRelease(ctx context.Context) (tag, link string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ReleaseAPI, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := (&http.Client{Timeout: consts.HTTPClientTimeout}).Do(req)
	if err != nil {
		return "", "", errclass.Wrap(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.E("Failed to close HTTP response body: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return "", "", errclass.New(errclass.KindNetwork, fmt.Sprintf("release lookup returned %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", errclass.Wrap(err)
	}
	if !gjson.ValidBytes(body) {
		return "", "", errclass.New(errclass.KindParseError, "release lookup returned invalid JSON")
	}

	doc := gjson.ParseBytes(body)
	tag = doc.Get("tag_name").String()
	if tag == "" {
		return "", "", errclass.New(errclass.KindParseError, "release has no tag_name")
	}
	asset := ytdlpAsset()
	doc.Get("assets").ForEach(func(_, a gjson.Result) bool {
		if a.Get("name").String() == asset {
			link = a.Get("browser_download_url").String()
			return false
		}
		return true
	})
	return tag, link, nil
}

// InstallYtDlp downloads yt-dlp into binDir, replacing any copy already there.
// An empty tag installs the latest release.
func InstallYtDlp(ctx context.Context, binDir, tag string) (models.DependencyStatus, error) {
	status := models.DependencyStatus{Name: command.YTDLP}
	if binDir == "" {
		return status, fmt.Errorf("no bin directory configured")
	}
	if err := os.MkdirAll(binDir, consts.PermsGenericDir); err != nil {
		return status, errclass.Wrap(err)
	}

	ctx, cancel := context.WithTimeout(ctx, consts.InstallTimeout)
	defer cancel()

	link := ""
	if tag = strings.TrimSpace(tag); tag == "" {
		var err error
		if tag, link, err = latestRelease(ctx); err != nil {
			return status, fmt.Errorf("fetch latest yt-dlp release: %w", err)
		}
	}
	if link == "" {
		link = strings.TrimRight(DownloadBase, "/") + "/" + tag + "/" + ytdlpAsset()
	}

	target := ytdlpTarget(binDir)
	part := target + ".part"
	if err := os.Remove(part); err != nil && !os.IsNotExist(err) {
		return status, errclass.Wrap(err)
	}

	client := grab.NewClient()
	client.UserAgent = userAgent

	req, err := grab.NewRequest(part, link)
	if err != nil {
		return status, errclass.New(errclass.KindInvalidURL, err.Error())
	}
	req = req.WithContext(ctx)
	req.NoResume = true

	logging.I("Installing yt-dlp %s from %q", tag, link)
	if err := client.Do(req).Err(); err != nil {
		_ = os.Remove(part)
		return status, fmt.Errorf("download yt-dlp %s: %w", tag, err)
	}

	if err := os.Chmod(part, 0o755); err != nil {
		_ = os.Remove(part)
		return status, errclass.Wrap(err)
	}
	if err := os.Rename(part, target); err != nil {
		_ = os.Remove(part)
		return status, errclass.Wrap(err)
	}

	status, err = Check(ctx, command.YTDLP, binDir)
	if err != nil {
		return status, err
	}
	if status.Path != target || status.Version == "" {
		return status, errclass.New(errclass.KindDependencyMissing, "installed yt-dlp did not report a version")
	}
	logging.S("Installed yt-dlp %s at %q", status.Version, status.Path)
	return status, nil
}

// UninstallYtDlp removes the yt-dlp copy in binDir. A missing file is not an error.
func UninstallYtDlp(binDir string) error {
	if binDir == "" {
		return nil
	}
	if err := os.Remove(ytdlpTarget(binDir)); err != nil && !os.IsNotExist(err) {
		return errclass.Wrap(err)
	}
	return nil
}
