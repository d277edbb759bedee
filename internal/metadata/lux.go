package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"fetcharr/internal/backends"
	"fetcharr/internal/command/builder"
	"fetcharr/internal/errclass"
	"fetcharr/internal/models"
	"fetcharr/internal/proxy"
	"fetcharr/internal/utils/logging"

	"github.com/tidwall/gjson"
)

// luxErrorMarkers in stdout mean lux printed an error instead of JSON.
var luxErrorMarkers = []string{"HTTP 412", "request error"}

// luxRetryMarkers mark failures worth retrying with the next proxy strategy.
var luxRetryMarkers = []string{"412", "http", "request error", "connection", "timeout"}

var (
	luxResolutionPatterns = []struct {
		re    *regexp.Regexp
		label string
	}{
		{regexp.MustCompile(`(?i)2160p?|\b4k\b`), "2160p"},
		{regexp.MustCompile(`(?i)1440p?|\b2k\b`), "1440p"},
		{regexp.MustCompile(`(?i)1080p?`), "1080p"},
		{regexp.MustCompile(`(?i)720p?`), "720p"},
		{regexp.MustCompile(`(?i)480p?`), "480p"},
		{regexp.MustCompile(`(?i)360p?`), "360p"},
		{regexp.MustCompile(`(?i)240p`), "240p"},
		{regexp.MustCompile(`(?i)144p`), "144p"},
	}
	luxResolutionRank = map[string]int{
		"2160p": 8, "1440p": 7, "1080p": 6, "720p": 5,
		"480p": 4, "360p": 3, "240p": 2, "144p": 1,
	}
	luxVideoWords = []string{"video", "p ", "1080", "720", "480", "360", "高清", "超清", "清晰", "流畅", "蓝光"}
	luxAudioWords = []string{"audio", "音频"}
)

func (f *Fetcher) luxRequest(ctx context.Context, rawURL string, opts models.DownloadOptions) builder.InfoRequest {
	return builder.InfoRequest{
		URL:        rawURL,
		Bin:        builder.LuxBin(f.bins.Lux),
		CookieFile: f.cookieFile(ctx, rawURL, opts, false),
	}
}

// luxDump runs "lux -j -i" once per proxy strategy until one returns usable JSON.
func (f *Fetcher) luxDump(ctx context.Context, rawURL string, opts models.DownloadOptions) (gjson.Result, error) {
	var lastErr error
	for _, s := range proxy.Strategies(opts.Proxy) {
		doc, err := f.luxDumpOnce(ctx, rawURL, opts, s.URL)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if ctx.Err() != nil || !luxRetryable(err) {
			break
		}
		logging.W("lux info failed with %s for %q, trying next proxy option: %v", s.Name, rawURL, err)
	}
	return gjson.Result{}, lastErr
}

func (f *Fetcher) luxDumpOnce(ctx context.Context, rawURL string, opts models.DownloadOptions, proxyURL string) (gjson.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, infoTimeout(backends.Lux, false))
	defer cancel()

	r := f.luxRequest(ctx, rawURL, opts)
	out, _, err := run(ctx, r.Bin, builder.LuxInfoArgs(r, false, 0, 0), builder.LuxEnv(proxyURL))
	if err != nil {
		return gjson.Result{}, err
	}
	return parseLuxDocument(out)
}

func (f *Fetcher) luxVideoInfo(ctx context.Context, rawURL string, opts models.DownloadOptions) (*models.VideoInfo, error) {
	doc, err := f.luxDump(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}
	info := parseLuxInfo(doc)
	logging.D(1, "Got lux info for %q: %q from %q", rawURL, info.Title, info.Uploader)
	return info, nil
}

func (f *Fetcher) luxFormats(ctx context.Context, rawURL string, opts models.DownloadOptions) (*models.VideoFormats, error) {
	doc, err := f.luxDump(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}
	return parseLuxFormats(doc), nil
}

// luxPlaylist lists items [offset+1, offset+limit] with lux's own paging.
func (f *Fetcher) luxPlaylist(ctx context.Context, rawURL string, opts models.DownloadOptions, offset, limit int) (*models.PlaylistInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, infoTimeout(backends.Lux, true))
	defer cancel()

	r := f.luxRequest(ctx, rawURL, opts)
	args := builder.LuxInfoArgs(r, true, offset+1, offset+limit)
	out, stderr, err := run(ctx, r.Bin, args, builder.LuxEnv(proxy.Resolve(opts.Proxy).URL))
	if err != nil {
		return nil, err
	}
	return parseLuxPlaylist(out, stderr, rawURL, offset, limit)
}

// parseLuxDocument returns the first item of lux's JSON output.
func parseLuxDocument(out []byte) (gjson.Result, error) {
	for _, marker := range luxErrorMarkers {
		if bytes.Contains(out, []byte(marker)) {
			return gjson.Result{}, errclass.Classify(headLines(string(out), 3))
		}
	}

	vals := jsonValues(out)
	if len(vals) == 0 {
		return gjson.Result{}, errclass.New(errclass.KindParseError, "lux returned no JSON: "+headLines(string(out), 3))
	}
	doc := vals[0]
	if !doc.Exists() {
		return gjson.Result{}, errclass.New(errclass.KindVideoUnavailable, "lux returned an empty result")
	}
	if e := doc.Get("err").String(); e != "" {
		return gjson.Result{}, errclass.Classify(e)
	}
	return doc, nil
}

// parseLuxInfo maps a lux item onto VideoInfo. Size and extension come from the first stream.
func parseLuxInfo(doc gjson.Result) *models.VideoInfo {
	info := &models.VideoInfo{
		Title:    orDefault(doc.Get("title").String(), "Unknown"),
		Uploader: doc.Get("site").String(),
	}
	doc.Get("streams").ForEach(func(_, s gjson.Result) bool {
		info.Filesize = s.Get("size").Int()
		info.Ext = luxStreamExt(s)
		return false
	})
	return info
}

// parseLuxFormats lists lux streams, best resolution first.
func parseLuxFormats(doc gjson.Result) *models.VideoFormats {
	out := &models.VideoFormats{
		Title:   orDefault(doc.Get("title").String(), "Unknown"),
		Author:  doc.Get("site").String(),
		Formats: []models.VideoFormat{},
	}

	doc.Get("streams").ForEach(func(key, s gjson.Result) bool {
		id := s.Get("id").String()
		if id == "" {
			id = key.String()
		}
		quality := s.Get("quality").String()
		lower := strings.ToLower(quality)

		hasAudio := containsAny(lower, luxAudioWords)
		hasVideo := containsAny(lower, luxVideoWords)
		if !hasVideo && !hasAudio {
			// Unlabeled streams are muxed video.
			hasVideo, hasAudio = true, true
		}

		out.Formats = append(out.Formats, models.VideoFormat{
			FormatID:   id,
			Ext:        orDefault(luxStreamExt(s), "mp4"),
			Resolution: luxResolution(quality),
			VCodec:     luxCodec(quality),
			Filesize:   s.Get("size").Int(),
			FormatNote: quality,
			HasVideo:   hasVideo,
			HasAudio:   hasAudio,
		})
		return true
	})

	sort.SliceStable(out.Formats, func(i, j int) bool {
		return luxResolutionRank[out.Formats[i].Resolution] > luxResolutionRank[out.Formats[j].Resolution]
	})
	return out
}

// parseLuxPlaylist reads the listed items. lux gives no per-item URLs, so entries share the request URL.
func parseLuxPlaylist(out []byte, stderr, requestURL string, offset, limit int) (*models.PlaylistInfo, error) {
	items := jsonValues(out)

	site := ""
	entries := make([]models.PlaylistEntry, 0, len(items))
	for _, it := range items {
		if it.Get("err").String() != "" {
			continue
		}
		if site == "" {
			site = it.Get("site").String()
		}
		n := offset + len(entries) + 1
		entries = append(entries, models.PlaylistEntry{
			ID:       fmt.Sprintf("lux_%d", n),
			URL:      requestURL,
			Title:    orDefault(it.Get("title").String(), fmt.Sprintf("Item %d", n)),
			Uploader: it.Get("site").String(),
		})
	}

	if len(entries) == 0 {
		if msg := tailLines(stderr, 3); msg != "" {
			return nil, errclass.Classify(msg)
		}
		return nil, errclass.New(errclass.KindParseError, "lux returned no playlist items for "+requestURL)
	}

	return &models.PlaylistInfo{
		IsPlaylist: len(entries) > 1,
		ID:         luxSiteID(site),
		Title:      "Playlist from " + orDefault(site, "lux"),
		Uploader:   site,
		TotalCount: offset + len(entries),
		Entries:    entries,
		HasMore:    len(entries) >= limit,
	}, nil
}

// luxStreamExt reads the stream's extension from its first part.
func luxStreamExt(s gjson.Result) string {
	for _, path := range []string{"parts.0.ext", "urls.0.ext", "ext"} {
		if ext := s.Get(path).String(); ext != "" {
			return ext
		}
	}
	return ""
}

// luxResolution maps a lux quality label onto a resolution label.
func luxResolution(quality string) string {
	for _, p := range luxResolutionPatterns {
		if p.re.MatchString(quality) {
			return p.label
		}
	}
	return ""
}

// luxCodec extracts a codec from a lux quality label.
func luxCodec(quality string) string {
	q := strings.ToLower(quality)
	switch {
	case strings.Contains(q, "vp9"):
		return "vp9"
	case strings.Contains(q, "avc1"), strings.Contains(q, "h264"):
		return "h264"
	case strings.Contains(q, "av01"), strings.Contains(q, "av1"):
		return "av1"
	case strings.Contains(q, "hevc"), strings.Contains(q, "h265"):
		return "h265"
	}
	return ""
}

// luxSiteID turns a lux site label such as "哔哩哔哩 bilibili.com" into "bilibili".
func luxSiteID(site string) string {
	fields := strings.Fields(site)
	if len(fields) == 0 {
		return "lux"
	}
	last := strings.ToLower(fields[len(fields)-1])
	name, _, _ := strings.Cut(last, ".")
	return name
}

// jsonValues decodes a stream of (possibly indented) JSON values, flattening top-level arrays.
// Output with leading noise falls back to scanning lines that start with "{".
func jsonValues(out []byte) []gjson.Result {
	var vals []gjson.Result
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(out)))
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			break
		}
		if r := gjson.ParseBytes(raw); r.IsArray() {
			vals = append(vals, r.Array()...)
		} else {
			vals = append(vals, r)
		}
	}
	if len(vals) > 0 {
		return vals
	}

	for _, line := range bytes.Split(out, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) > 0 && line[0] == '{' && gjson.ValidBytes(line) {
			vals = append(vals, gjson.ParseBytes(line))
		}
	}
	return vals
}

func luxRetryable(err error) bool {
	switch errclass.KindOf(err) {
	case errclass.KindDependencyMissing, errclass.KindCancelled, errclass.KindParseError:
		return false
	}
	msg := strings.ToLower(err.Error())
	return containsAny(msg, luxRetryMarkers)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
