package downloads

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/downloads/downloaders"
	"fetcharr/internal/errclass"
	"fetcharr/internal/models"
	"fetcharr/internal/parsing"
	"fetcharr/internal/utils/logging"

	"github.com/cavaliergopher/grab/v3"
	"github.com/dustin/go-humanize"
)

const grabTick = 250 * time.Millisecond

var userAgent = consts.ProgramName + "/" + consts.ProgramVersion

// httpClient returns a client routed through proxyURL, or the default transport when empty.
func httpClient(proxyURL string, timeout time.Duration) *http.Client {
	c := &http.Client{Timeout: timeout}
	if proxyURL == "" {
		return c
	}
	u, err := url.Parse(proxyURL)
	if err != nil {
		logging.W("Ignoring invalid proxy URL %q: %v", proxyURL, err)
		return c
	}
	c.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	return c
}

// grabDownload fetches a file in-process when aria2c is not installed.
func (j *job) grabDownload(ctx context.Context, dir, name, proxyURL string) {
	client := grab.NewClient()
	client.UserAgent = userAgent
	client.HTTPClient = httpClient(proxyURL, 0)

	req, err := grab.NewRequest(filepath.Join(dir, name), j.e.item.NormalizedURL)
	if err != nil {
		j.out.exitCode, j.out.err = -1, errclass.New(errclass.KindInvalidURL, err.Error())
		return
	}
	req = req.WithContext(ctx)

	logging.I("Downloading %q to %q", req.URL().String(), req.Filename)
	resp := client.Do(req)

	ticker := time.NewTicker(grabTick)
	defer ticker.Stop()

Loop:
	for {
		select {
		case <-ticker.C:
			j.grabProgress(resp)
		case <-resp.Done:
			break Loop
		}
	}

	if err := resp.Err(); err != nil {
		j.out.exitCode, j.out.err = -1, fmt.Errorf("direct download failed: %w", err)
		return
	}
	j.grabProgress(resp)
	if resp.Filename != "" {
		j.out.path, j.out.rank = resp.Filename, downloaders.RankFinal
	}
	j.out.exitCode = 0
}

func (j *job) grabProgress(resp *grab.Response) {
	if resp.Size() <= 0 {
		return
	}
	speed := humanize.IBytes(uint64(resp.BytesPerSecond())) + "/s"

	eta := -1
	if t := resp.ETA(); !t.IsZero() {
		eta = max(0, int(time.Until(t).Seconds()))
	}
	etaStr := ""
	if eta >= 0 {
		etaStr = (time.Duration(eta) * time.Second).String()
	}
	j.progress(resp.Progress()*100, speed, etaStr, eta, "")
}

// CheckFileURL inspects a direct file link with a HEAD request.
func CheckFileURL(ctx context.Context, rawURL, proxyURL string) (*models.FileInfo, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, errclass.New(errclass.KindInvalidURL, rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, consts.HeadCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, errclass.Wrap(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient(proxyURL, consts.HeadCheckTimeout).Do(req)
	if err != nil {
		return nil, errclass.Wrap(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.E("Failed to close HTTP response body: %v", err)
		}
	}()

	if resp.StatusCode >= 400 {
		return nil, errclass.Classify(fmt.Sprintf("HTTP Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	info := &models.FileInfo{
		Filename:     parsing.FilenameFromHeaders(resp.Header.Get("Content-Disposition"), final),
		Size:         max(resp.ContentLength, 0),
		MimeType:     strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0]),
		AcceptRanges: strings.EqualFold(resp.Header.Get("Accept-Ranges"), "bytes"),
	}
	return info, nil
}
