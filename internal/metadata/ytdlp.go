package metadata

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"fetcharr/internal/backends"
	"fetcharr/internal/command/builder"
	"fetcharr/internal/errclass"
	"fetcharr/internal/models"
	"fetcharr/internal/parsing"
	"fetcharr/internal/proxy"
	"fetcharr/internal/utils/logging"

	"github.com/tidwall/gjson"
)

// musicMaxDuration marks short untagged entries as music.
const musicMaxDuration = 600

func (f *Fetcher) ytdlpRequest(ctx context.Context, rawURL string, opts models.DownloadOptions) builder.InfoRequest {
	native := builder.ValidBrowser(opts.CookiesFromBrowser)
	return builder.InfoRequest{
		URL:                rawURL,
		Bin:                builder.YtdlpBin(f.bins.YtDlp),
		ProxyURL:           proxy.Resolve(opts.Proxy).URL,
		CookieFile:         f.cookieFile(ctx, rawURL, opts, native),
		CookiesFromBrowser: opts.CookiesFromBrowser,
		YouTubeClient:      opts.YouTubeClient,
	}
}

// ytdlpDump runs a single-item --dump-json command and returns the parsed document.
func (f *Fetcher) ytdlpDump(ctx context.Context, rawURL string, opts models.DownloadOptions) (gjson.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, infoTimeout(backends.YtDlp, false))
	defer cancel()

	r := f.ytdlpRequest(ctx, rawURL, opts)
	out, _, err := run(ctx, r.Bin, builder.YtdlpInfoArgs(r), nil)
	if err != nil {
		return gjson.Result{}, err
	}

	doc, ok := firstJSON(out)
	if !ok {
		return gjson.Result{}, errclass.New(errclass.KindParseError, "yt-dlp returned no JSON for "+rawURL)
	}
	return doc, nil
}

func (f *Fetcher) ytdlpVideoInfo(ctx context.Context, rawURL string, opts models.DownloadOptions) (*models.VideoInfo, error) {
	doc, err := f.ytdlpDump(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}
	info := parseYtdlpInfo(doc)
	logging.D(1, "Got yt-dlp info for %q: %q by %q", rawURL, info.Title, info.Author())
	return info, nil
}

func (f *Fetcher) ytdlpFormats(ctx context.Context, rawURL string, opts models.DownloadOptions) (*models.VideoFormats, error) {
	doc, err := f.ytdlpDump(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}
	return parseYtdlpFormats(doc), nil
}

// ytdlpPlaylist fetches the whole flat listing. Pagination happens on the cached result.
func (f *Fetcher) ytdlpPlaylist(ctx context.Context, rawURL string, opts models.DownloadOptions) (*models.PlaylistInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, infoTimeout(backends.YtDlp, true))
	defer cancel()

	r := f.ytdlpRequest(ctx, rawURL, opts)
	out, _, err := run(ctx, r.Bin, builder.YtdlpPlaylistArgs(r, 0, 0), nil)
	if err != nil {
		return nil, err
	}

	info, err := parseYtdlpPlaylist(out, rawURL)
	if err != nil {
		return nil, err
	}
	logging.I("Listed %d entries for %q", info.TotalCount, rawURL)
	return info, nil
}

// parseYtdlpInfo maps a --dump-json document onto VideoInfo.
func parseYtdlpInfo(doc gjson.Result) *models.VideoInfo {
	size := doc.Get("filesize").Int()
	if size <= 0 {
		size = doc.Get("filesize_approx").Int()
	}
	return &models.VideoInfo{
		Title:      orDefault(doc.Get("title").String(), "Unknown"),
		Uploader:   doc.Get("uploader").String(),
		Channel:    doc.Get("channel").String(),
		Creator:    firstString(doc, "creator", "artist"),
		UploaderID: doc.Get("uploader_id").String(),
		Thumbnail:  thumbnailOf(doc),
		Duration:   doc.Get("duration").Float(),
		Filesize:   size,
		Ext:        doc.Get("ext").String(),
	}
}

// parseYtdlpFormats maps a --dump-json document onto the format listing.
//
// Storyboards and MHTML snapshots are dropped, as are formats carrying neither video nor audio.
func parseYtdlpFormats(doc gjson.Result) *models.VideoFormats {
	out := &models.VideoFormats{
		Title:       orDefault(doc.Get("title").String(), "Unknown"),
		Author:      strings.TrimSuffix(firstString(doc, "uploader", "channel", "artist"), " - Topic"),
		Thumbnail:   thumbnailOf(doc),
		Duration:    doc.Get("duration").Float(),
		ViewCount:   doc.Get("view_count").Int(),
		LikeCount:   doc.Get("like_count").Int(),
		Description: doc.Get("description").String(),
		ChannelURL:  doc.Get("channel_url").String(),
		ChannelID:   doc.Get("channel_id").String(),
		Formats:     []models.VideoFormat{},
	}

	if raw := doc.Get("upload_date").String(); raw != "" {
		date, err := parsing.NormalizeDate(raw)
		if err != nil {
			logging.D(1, "Keeping raw upload date: %v", err)
			date = raw
		}
		out.UploadDate = date
	}

	for _, fm := range doc.Get("formats").Array() {
		ext := fm.Get("ext").String()
		note := fm.Get("format_note").String()
		if ext == "mhtml" || strings.Contains(strings.ToLower(note), "storyboard") {
			continue
		}

		vcodec := fm.Get("vcodec").String()
		acodec := fm.Get("acodec").String()
		hasVideo := vcodec != "" && vcodec != "none"
		hasAudio := acodec != "" && acodec != "none"
		if !hasVideo && !hasAudio {
			continue
		}

		out.Formats = append(out.Formats, models.VideoFormat{
			FormatID:       fm.Get("format_id").String(),
			Ext:            ext,
			Resolution:     resolutionOf(fm),
			FPS:            fm.Get("fps").Float(),
			VCodec:         vcodec,
			ACodec:         acodec,
			Filesize:       fm.Get("filesize").Int(),
			FilesizeApprox: fm.Get("filesize_approx").Int(),
			TBR:            fm.Get("tbr").Float(),
			VBR:            fm.Get("vbr").Float(),
			ABR:            fm.Get("abr").Float(),
			ASR:            int(fm.Get("asr").Int()),
			FormatNote:     note,
			HasVideo:       hasVideo,
			HasAudio:       hasAudio,
			Quality:        fm.Get("quality").Float(),
		})
	}
	return out
}

// parseYtdlpPlaylist reads either a single playlist document or flat NDJSON entries.
func parseYtdlpPlaylist(out []byte, requestURL string) (*models.PlaylistInfo, error) {
	var docs []gjson.Result
	for _, line := range bytes.Split(out, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] != '{' || !gjson.ValidBytes(line) {
			continue
		}
		docs = append(docs, gjson.ParseBytes(line))
	}
	if len(docs) == 0 {
		return nil, errclass.New(errclass.KindParseError, "yt-dlp returned no playlist entries for "+requestURL)
	}

	musicList := parsing.IsYouTubeMusicURL(requestURL)
	head := docs[0]

	if len(docs) == 1 && head.Get("_type").String() != "playlist" {
		// A single video.
		title := orDefault(head.Get("title").String(), "Unknown")
		return &models.PlaylistInfo{
			IsPlaylist: false,
			ID:         head.Get("id").String(),
			Title:      title,
			Uploader:   firstString(head, "uploader", "channel"),
			Thumbnail:  thumbnailOf(head),
			TotalCount: 1,
			Entries: []models.PlaylistEntry{{
				ID:        head.Get("id").String(),
				URL:       requestURL,
				Title:     title,
				Duration:  head.Get("duration").Float(),
				Thumbnail: thumbnailOf(head),
				Uploader:  firstString(head, "uploader", "channel"),
				IsMusic:   musicList,
			}},
		}, nil
	}

	info := &models.PlaylistInfo{IsPlaylist: true}
	var entries []gjson.Result
	if len(docs) == 1 {
		entries = head.Get("entries").Array()
		info.Title = head.Get("title").String()
		info.ID = firstString(head, "id", "playlist_id")
		info.Uploader = firstString(head, "uploader", "channel")
		info.Thumbnail = thumbnailOf(head)
	} else {
		entries = docs
		info.Title = head.Get("playlist_title").String()
		info.ID = firstString(head, "playlist_id", "id")
		info.Uploader = firstString(head, "playlist_uploader", "playlist_channel")
		if info.Uploader == "" {
			info.Uploader = firstString(head, "uploader", "channel")
		}
	}
	info.Title = orDefault(info.Title, "Playlist")

	info.Entries = make([]models.PlaylistEntry, 0, len(entries))
	for _, e := range entries {
		if entry, ok := playlistEntry(e, musicList); ok {
			info.Entries = append(info.Entries, entry)
		}
	}
	if info.Thumbnail == "" && len(info.Entries) > 0 {
		info.Thumbnail = info.Entries[0].Thumbnail
	}
	info.TotalCount = len(info.Entries)
	return info, nil
}

// playlistEntry builds one entry. Entries without an id are skipped.
func playlistEntry(e gjson.Result, musicList bool) (models.PlaylistEntry, bool) {
	id := e.Get("id").String()
	if id == "" {
		return models.PlaylistEntry{}, false
	}

	entryURL := firstString(e, "url", "webpage_url")
	if ie := strings.ToLower(e.Get("ie_key").String()); ie == "youtube" || parsing.IsYouTubeURL(entryURL) || (entryURL == "" && musicList) {
		entryURL = parsing.VideoURLFromID(id, musicList)
	}

	duration := e.Get("duration").Float()
	return models.PlaylistEntry{
		ID:        id,
		URL:       entryURL,
		Title:     orDefault(e.Get("title").String(), id),
		Duration:  duration,
		Thumbnail: thumbnailOf(e),
		Uploader:  firstString(e, "uploader", "channel"),
		IsMusic:   musicList || (duration > 0 && duration < musicMaxDuration),
	}, true
}

// resolutionOf renders WxH, falling back to yt-dlp's own label.
func resolutionOf(fm gjson.Result) string {
	w, h := fm.Get("width").Int(), fm.Get("height").Int()
	if w > 0 && h > 0 {
		return fmt.Sprintf("%dx%d", w, h)
	}
	if r := fm.Get("resolution").String(); r != "" {
		return r
	}
	return "audio only"
}

// thumbnailOf returns the thumbnail field, else the last (largest) listed thumbnail with a URL.
func thumbnailOf(doc gjson.Result) string {
	if t := doc.Get("thumbnail").String(); t != "" {
		return t
	}
	thumbs := doc.Get("thumbnails").Array()
	for i := len(thumbs) - 1; i >= 0; i-- {
		if u := thumbs[i].Get("url").String(); u != "" {
			return u
		}
	}
	return ""
}

// firstJSON returns the first JSON object line in out.
func firstJSON(out []byte) (gjson.Result, bool) {
	for _, line := range bytes.Split(out, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) > 0 && (line[0] == '{' || line[0] == '[') && gjson.ValidBytes(line) {
			return gjson.ParseBytes(line), true
		}
	}
	return gjson.Result{}, false
}

// firstString returns the first non-empty string among keys.
func firstString(doc gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := doc.Get(k).String(); s != "" {
			return s
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
