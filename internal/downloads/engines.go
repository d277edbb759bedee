package downloads

import (
	"context"
	"path/filepath"
	"strings"

	"fetcharr/internal/backends"
	"fetcharr/internal/command/builder"
	"fetcharr/internal/downloads/downloaders"
	"fetcharr/internal/parsing"
	"fetcharr/internal/proxy"
	"fetcharr/internal/utils/logging"
)

// luxRetryMarkers are output fragments worth retrying with the next proxy strategy.
var luxRetryMarkers = [...]string{"412", "http", "request error", "connection", "timeout"}

func (j *job) request(ctx context.Context, bin, dir, proxyURL string) builder.Request {
	q := j.e.item
	return builder.Request{
		URL:        q.NormalizedURL,
		Bin:        bin,
		OutputDir:  dir,
		Options:    q.Options,
		ProxyURL:   proxyURL,
		CookieFile: j.cookieFile(ctx),
		Aria2Path:  j.m.cfg.Bins.Aria2c,
	}
}

func (j *job) runYtdlp(ctx context.Context, dir string) {
	resolved := proxy.Resolve(j.e.item.Options.Proxy)
	if resolved.URL != "" {
		logging.D(1, "Using proxy for yt-dlp: %s", resolved.Description)
	}

	r := j.request(ctx, j.m.cfg.Bins.YtDlp, dir, resolved.URL)
	cmd := builder.Command(ctx, builder.YtdlpBin(r.Bin), builder.YtdlpDownloadArgs(r), nil)
	j.out.exitCode, j.out.err = runProcess(ctx, cmd, func(line string) {
		j.handle(line, downloaders.ParseYtdlp)
	})
}

// runLux walks the proxy strategies, retrying on network-looking failures.
func (j *job) runLux(ctx context.Context, dir string) {
	strategies := proxy.Strategies(j.e.item.Options.Proxy)
	r := j.request(ctx, j.m.cfg.Bins.Lux, dir, "")
	args := builder.LuxDownloadArgs(r)

	for i, s := range strategies {
		j.out.errLines, j.out.tail = nil, nil
		j.out.path, j.out.rank = "", downloaders.RankNone

		cmd := builder.Command(ctx, builder.LuxBin(r.Bin), args, builder.LuxEnv(s.URL))
		j.out.exitCode, j.out.err = runProcess(ctx, cmd, func(line string) {
			j.handle(line, downloaders.ParseLux)
		})
		if ctx.Err() != nil || (j.out.err == nil && j.out.exitCode == 0) {
			return
		}
		if i == len(strategies)-1 || !luxRetryable(j.out) {
			return
		}
		logging.W("Lux download via %s failed for %q, retrying via %s",
			s.Name, r.URL, strategies[i+1].Name)
	}
}

func luxRetryable(out outcome) bool {
	text := strings.ToLower(strings.Join(append(out.errLines, out.tail...), "\n"))
	for _, m := range luxRetryMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// runDirect fetches a plain file with aria2c when available, otherwise in-process.
func (j *job) runDirect(ctx context.Context, dir string) {
	q := j.e.item
	name := q.Options.Filename
	if name == "" {
		name, _ = parsing.IsDirectFileURL(q.NormalizedURL)
	}
	if name == "" {
		name = parsing.FilenameFromHeaders("", q.NormalizedURL)
	}
	name = parsing.SanitizeFilename(name)
	j.out.path, j.out.rank = filepath.Join(dir, name), downloaders.RankDestination

	proxyURL := proxy.Resolve(q.Options.Proxy).URL

	if j.m.cfg.Bins.Aria2c == "" {
		j.grabDownload(ctx, dir, name, proxyURL)
		return
	}

	r := builder.Request{
		URL:       q.NormalizedURL,
		Bin:       j.m.cfg.Bins.Aria2c,
		OutputDir: dir,
		Options:   q.Options,
		ProxyURL:  proxyURL,
	}
	cmd := builder.Command(ctx, builder.Aria2Bin(r.Bin), builder.Aria2Args(r, name), nil)
	j.out.exitCode, j.out.err = runProcess(ctx, cmd, func(line string) {
		j.handle(line, downloaders.ParseAria2)
	})
}

// cookieFile picks the cookie file for the item.
func (j *job) cookieFile(ctx context.Context) string {
	q := j.e.item
	o := q.Options
	native := q.Backend == backends.YtDlp && builder.ValidBrowser(o.CookiesFromBrowser)
	return j.m.cfg.Cookies.Resolve(ctx, q.NormalizedURL, o.CookieFile, o.CookiesFromBrowser, native)
}
