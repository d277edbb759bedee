// Package metadata fetches video, playlist and format information from yt-dlp and lux.
//
// Requests run on the caller's goroutine, outside the download pool, each bounded by its own timeout.
package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"fetcharr/internal/backends"
	"fetcharr/internal/command/builder"
	"fetcharr/internal/cookies"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/errclass"
	"fetcharr/internal/models"
	"fetcharr/internal/parsing"
	"fetcharr/internal/proxy"
	"fetcharr/internal/scraper"
	"fetcharr/internal/utils/logging"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache sizes.
const (
	VideoInfoCacheSize = 5
	PlaylistCacheSize  = 3
	FormatsCacheSize   = 5
)

// DefaultPlaylistLimit is the page size used when none is requested.
const DefaultPlaylistLimit = 50

const waitDelay = 2 * time.Second

// Bins are the metadata tool paths. Empty paths fall back to PATH lookup.
type Bins struct {
	YtDlp string
	Lux   string
}

// CacheStats reports cache occupancy.
type CacheStats struct {
	VideoInfoCount    int `json:"videoInfoCount"`
	VideoInfoCapacity int `json:"videoInfoCapacity"`
	PlaylistCount     int `json:"playlistCount"`
	PlaylistCapacity  int `json:"playlistCapacity"`
	FormatsCount      int `json:"formatsCount"`
	FormatsCapacity   int `json:"formatsCapacity"`
}

// Fetcher runs metadata commands and caches their results.
type Fetcher struct {
	bins    Bins
	cookies *cookies.Manager

	// ScrapeThumbnails enables the page scrape when a tool reports no thumbnail.
	ScrapeThumbnails bool

	info      *lru.Cache[string, *models.VideoInfo]
	playlists *lru.Cache[string, *models.PlaylistInfo]
	formats   *lru.Cache[string, *models.VideoFormats]
}

// New returns a Fetcher. A nil cookie manager disables stored and browser cookies.
func New(bins Bins, cm *cookies.Manager) *Fetcher {
	// Sizes are positive constants, so construction cannot fail.
	info, _ := lru.New[string, *models.VideoInfo](VideoInfoCacheSize)
	playlists, _ := lru.New[string, *models.PlaylistInfo](PlaylistCacheSize)
	formats, _ := lru.New[string, *models.VideoFormats](FormatsCacheSize)

	return &Fetcher{
		bins:             bins,
		cookies:          cm,
		ScrapeThumbnails: true,
		info:             info,
		playlists:        playlists,
		formats:          formats,
	}
}

// Stats returns the current cache occupancy.
func (f *Fetcher) Stats() CacheStats {
	return CacheStats{
		VideoInfoCount:    f.info.Len(),
		VideoInfoCapacity: VideoInfoCacheSize,
		PlaylistCount:     f.playlists.Len(),
		PlaylistCapacity:  PlaylistCacheSize,
		FormatsCount:      f.formats.Len(),
		FormatsCapacity:   FormatsCacheSize,
	}
}

// Clear empties every cache.
func (f *Fetcher) Clear() {
	f.info.Purge()
	f.playlists.Purge()
	f.formats.Purge()
	logging.D(1, "Cleared metadata caches")
}

// VideoInfo returns display metadata for a single URL.
func (f *Fetcher) VideoInfo(ctx context.Context, rawURL string, opts models.DownloadOptions) (*models.VideoInfo, error) {
	key := parsing.CleanURL(rawURL)
	if v, ok := f.info.Get(key); ok {
		logging.D(2, "Video info cache hit for %q", key)
		return v, nil
	}

	var (
		info *models.VideoInfo
		err  error
	)
	switch backends.Select(key, backends.ParseKind(opts.Backend)) {
	case backends.DirectFile:
		name, _ := parsing.IsDirectFileURL(key)
		info = &models.VideoInfo{Title: name, Ext: strings.TrimPrefix(filepath.Ext(name), ".")}
	case backends.Lux:
		info, err = f.luxVideoInfo(ctx, key, opts)
	default:
		info, err = f.ytdlpVideoInfo(ctx, key, opts)
	}
	if err != nil {
		return nil, err
	}

	if info.Thumbnail == "" && f.ScrapeThumbnails {
		info.Thumbnail = f.scrapeThumbnail(ctx, key, opts)
	}
	f.info.Add(key, info)
	return info, nil
}

// PlaylistInfo lists one page of a playlist. Single videos come back as a one-entry page.
func (f *Fetcher) PlaylistInfo(ctx context.Context, rawURL string, opts models.DownloadOptions, offset, limit int) (*models.PlaylistInfo, error) {
	offset = max(offset, 0)
	if limit <= 0 {
		limit = DefaultPlaylistLimit
	}
	key := parsing.CleanURL(rawURL)

	kind := backends.Select(key, backends.ParseKind(opts.Backend))
	cacheKey := key
	if kind == backends.Lux {
		// lux pages server-side, so each page is its own entry
		cacheKey = fmt.Sprintf("%s#%d:%d", key, offset, limit)
	}
	if full, ok := f.playlists.Get(cacheKey); ok {
		logging.D(2, "Playlist cache hit for %q (offset=%d, limit=%d)", key, offset, limit)
		if kind == backends.Lux {
			return full, nil
		}
		return paginate(full, offset, limit), nil
	}

	switch kind {
	case backends.DirectFile:
		name, _ := parsing.IsDirectFileURL(key)
		return &models.PlaylistInfo{
			Title:      name,
			TotalCount: 1,
			Entries:    []models.PlaylistEntry{{ID: name, URL: key, Title: name}},
		}, nil

	case backends.Lux:
		page, err := f.luxPlaylist(ctx, key, opts, offset, limit)
		if err != nil {
			return nil, err
		}
		f.playlists.Add(cacheKey, page)
		return page, nil

	default:
		full, err := f.ytdlpPlaylist(ctx, key, opts)
		if err != nil {
			return nil, err
		}
		f.playlists.Add(cacheKey, full)
		return paginate(full, offset, limit), nil
	}
}

// Formats lists the selectable streams of a URL.
func (f *Fetcher) Formats(ctx context.Context, rawURL string, opts models.DownloadOptions) (*models.VideoFormats, error) {
	key := parsing.CleanURL(rawURL)
	if v, ok := f.formats.Get(key); ok {
		logging.D(2, "Formats cache hit for %q", key)
		return v, nil
	}

	var (
		out *models.VideoFormats
		err error
	)
	switch backends.Select(key, backends.ParseKind(opts.Backend)) {
	case backends.DirectFile:
		name, _ := parsing.IsDirectFileURL(key)
		out = &models.VideoFormats{Title: name, Formats: []models.VideoFormat{}}
	case backends.Lux:
		out, err = f.luxFormats(ctx, key, opts)
	default:
		out, err = f.ytdlpFormats(ctx, key, opts)
	}
	if err != nil {
		return nil, err
	}
	f.formats.Add(key, out)
	return out, nil
}

// paginate returns a page of full. The cached value is never modified.
func paginate(full *models.PlaylistInfo, offset, limit int) *models.PlaylistInfo {
	page := *full
	start := min(offset, len(full.Entries))
	end := min(start+limit, len(full.Entries))
	page.Entries = append([]models.PlaylistEntry(nil), full.Entries[start:end]...)
	page.HasMore = offset+len(page.Entries) < full.TotalCount
	return &page
}

// run executes a metadata command and returns its stdout.
//
// The command is bound to ctx, so an expired deadline kills the process.
func run(ctx context.Context, bin string, args, env []string) (stdout []byte, stderr string, err error) {
	cmd := builder.Command(ctx, bin, args, env)
	cmd.WaitDelay = waitDelay

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stderr = errBuf.String()

	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return nil, stderr, errclass.New(errclass.KindTimeout, fmt.Sprintf("%s timed out", filepath.Base(bin)))
	case ctxErr != nil:
		return nil, stderr, errclass.New(errclass.KindCancelled, ctxErr.Error())
	}

	if runErr != nil {
		if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist) {
			return nil, stderr, errclass.New(errclass.KindDependencyMissing, fmt.Sprintf("%s not found", filepath.Base(bin)))
		}
		msg := tailLines(stderr, 5)
		if msg == "" {
			msg = tailLines(outBuf.String(), 5)
		}
		if msg == "" {
			msg = runErr.Error()
		}
		return nil, stderr, errclass.Classify(msg)
	}
	return outBuf.Bytes(), stderr, nil
}

// tailLines returns the last n non-empty lines of s.
func tailLines(s string, n int) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// headLines returns the first n non-empty lines of s.
func headLines(s string, n int) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
			if len(lines) == n {
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// cookieFile resolves cookies for a metadata request.
func (f *Fetcher) cookieFile(ctx context.Context, rawURL string, opts models.DownloadOptions, toolReadsBrowser bool) string {
	return f.cookies.Resolve(ctx, rawURL, opts.CookieFile, opts.CookiesFromBrowser, toolReadsBrowser)
}

// scrapeThumbnail reads the page's preview image, sending browser cookies when the request uses them.
func (f *Fetcher) scrapeThumbnail(ctx context.Context, rawURL string, opts models.DownloadOptions) string {
	var jar []*http.Cookie
	if f.cookies != nil && opts.CookiesFromBrowser != "" {
		c, err := f.cookies.GetCookies(ctx, rawURL)
		if err != nil {
			logging.D(1, "No cookies for thumbnail scrape of %q: %v", rawURL, err)
		}
		jar = c
	}

	ctx, cancel := context.WithTimeout(ctx, consts.HTTPClientTimeout)
	defer cancel()
	return scraper.Thumbnail(ctx, rawURL, proxy.Resolve(opts.Proxy).URL, jar)
}

func infoTimeout(kind backends.Kind, playlist bool) time.Duration {
	switch {
	case playlist:
		return consts.PlaylistInfoTimeout
	case kind == backends.Lux:
		return consts.LuxInfoTimeout
	}
	return consts.VideoInfoTimeout
}
