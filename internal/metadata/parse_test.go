package metadata

import (
	"errors"
	"testing"

	"fetcharr/internal/errclass"
	"fetcharr/internal/models"

	"github.com/tidwall/gjson"
)

const ytdlpVideoJSON = `{"id":"abc","title":"Song","uploader":"Artist - Topic","channel_id":"UC1","upload_date":"20240131","duration":212.5,
"thumbnails":[{"url":"https://i.ytimg.com/vi/abc/hq.jpg"}],"view_count":42,
"formats":[
 {"format_id":"sb0","ext":"mhtml","format_note":"storyboard","vcodec":"none","acodec":"none"},
 {"format_id":"140","ext":"m4a","vcodec":"none","acodec":"mp4a.40.2","abr":129.5,"asr":44100,"resolution":"audio only"},
 {"format_id":"137","ext":"mp4","vcodec":"avc1.640028","acodec":"none","width":1920,"height":1080,"fps":30,"filesize":1000},
 {"format_id":"x","ext":"jpg","vcodec":"none","acodec":"none"}
]}`

func TestParseYtdlpFormats(t *testing.T) {
	t.Parallel()

	got := parseYtdlpFormats(gjson.Parse(ytdlpVideoJSON))

	if got.Author != "Artist" {
		t.Errorf("Author = %q, want topic suffix stripped", got.Author)
	}
	if got.UploadDate != "2024-01-31" {
		t.Errorf("UploadDate = %q", got.UploadDate)
	}
	if got.Thumbnail != "https://i.ytimg.com/vi/abc/hq.jpg" {
		t.Errorf("Thumbnail = %q", got.Thumbnail)
	}
	if len(got.Formats) != 2 {
		t.Fatalf("got %d formats, want 2: %+v", len(got.Formats), got.Formats)
	}

	audio, video := got.Formats[0], got.Formats[1]
	if audio.HasVideo || !audio.HasAudio || audio.Resolution != "audio only" || audio.ASR != 44100 {
		t.Errorf("audio format = %+v", audio)
	}
	if !video.HasVideo || video.HasAudio || video.Resolution != "1920x1080" || video.Filesize != 1000 {
		t.Errorf("video format = %+v", video)
	}
}

func TestParseYtdlpPlaylist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		out        string
		url        string
		isPlaylist bool
		title      string
		entries    []models.PlaylistEntry
	}{
		{
			name: "flat ndjson",
			url:  "https://www.youtube.com/playlist?list=PL1",
			out: `{"_type":"url","ie_key":"Youtube","id":"a1","title":"One","duration":120,"playlist_title":"Mix","playlist_id":"PL1","playlist_uploader":"Me"}
{"_type":"url","ie_key":"Youtube","id":"a2","title":"Two","duration":3600}
{"_type":"url","title":"no id"}`,
			isPlaylist: true,
			title:      "Mix",
			entries: []models.PlaylistEntry{
				{ID: "a1", URL: "https://www.youtube.com/watch?v=a1", Title: "One", Duration: 120, IsMusic: true},
				{ID: "a2", URL: "https://www.youtube.com/watch?v=a2", Title: "Two", Duration: 3600},
			},
		},
		{
			name:       "single playlist document",
			url:        "https://vimeo.com/showcase/9",
			out:        `{"_type":"playlist","id":"9","title":"","entries":[{"id":"v1","url":"https://vimeo.com/1","title":"First"}]}`,
			isPlaylist: true,
			title:      "Playlist",
			entries: []models.PlaylistEntry{
				{ID: "v1", URL: "https://vimeo.com/1", Title: "First"},
			},
		},
		{
			name:  "single video",
			url:   "https://music.youtube.com/watch?v=z",
			out:   "WARNING: something\n" + `{"id":"z","title":"Track","uploader":"Band"}`,
			title: "Track",
			entries: []models.PlaylistEntry{
				{ID: "z", URL: "https://music.youtube.com/watch?v=z", Title: "Track", Uploader: "Band", IsMusic: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseYtdlpPlaylist([]byte(tt.out), tt.url)
			if err != nil {
				t.Fatalf("parseYtdlpPlaylist() error = %v", err)
			}
			if got.IsPlaylist != tt.isPlaylist || got.Title != tt.title {
				t.Errorf("isPlaylist=%v title=%q, want %v %q", got.IsPlaylist, got.Title, tt.isPlaylist, tt.title)
			}
			if got.TotalCount != len(tt.entries) || len(got.Entries) != len(tt.entries) {
				t.Fatalf("entries = %+v, want %+v", got.Entries, tt.entries)
			}
			for i, want := range tt.entries {
				if got.Entries[i] != want {
					t.Errorf("entry %d = %+v, want %+v", i, got.Entries[i], want)
				}
			}
		})
	}
}

func TestParseYtdlpPlaylistEmpty(t *testing.T) {
	t.Parallel()

	_, err := parseYtdlpPlaylist([]byte("WARNING: nothing\n"), "https://example.com/list")
	if errclass.KindOf(err) != errclass.KindParseError {
		t.Errorf("kind = %q, want parse-error", errclass.KindOf(err))
	}
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	full := &models.PlaylistInfo{IsPlaylist: true, TotalCount: 5}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		full.Entries = append(full.Entries, models.PlaylistEntry{ID: id})
	}

	tests := []struct {
		offset, limit int
		ids           string
		more          bool
	}{
		{0, 2, "ab", true},
		{2, 2, "cd", true},
		{4, 2, "e", false},
		{9, 2, "", false},
	}
	for _, tt := range tests {
		page := paginate(full, tt.offset, tt.limit)
		ids := ""
		for _, e := range page.Entries {
			ids += e.ID
		}
		if ids != tt.ids || page.HasMore != tt.more || page.TotalCount != 5 {
			t.Errorf("paginate(%d, %d) = %q more=%v, want %q more=%v", tt.offset, tt.limit, ids, page.HasMore, tt.ids, tt.more)
		}
	}
	if len(full.Entries) != 5 {
		t.Error("paginate modified the cached listing")
	}
}

const luxJSON = `[
  {
    "url": "https://www.bilibili.com/video/BV1",
    "site": "哔哩哔哩 bilibili.com",
    "title": "视频",
    "type": "video",
    "streams": {
      "32": {"id": "32", "quality": "清晰 480P", "parts": [{"url": "u", "size": 10, "ext": "flv"}], "size": 10},
      "80": {"id": "80", "quality": "高清 1080P avc1", "parts": [{"url": "u", "size": 30, "ext": "mp4"}], "size": 30},
      "30280": {"quality": "audio 192k", "size": 3}
    }
  }
]`

func TestParseLuxDocument(t *testing.T) {
	t.Parallel()

	doc, err := parseLuxDocument([]byte(luxJSON))
	if err != nil {
		t.Fatalf("parseLuxDocument() error = %v", err)
	}

	info := parseLuxInfo(doc)
	if info.Title != "视频" || info.Uploader != "哔哩哔哩 bilibili.com" || info.Filesize != 10 || info.Ext != "flv" {
		t.Errorf("info = %+v", info)
	}

	formats := parseLuxFormats(doc)
	if len(formats.Formats) != 3 {
		t.Fatalf("got %d formats", len(formats.Formats))
	}
	best := formats.Formats[0]
	if best.FormatID != "80" || best.Resolution != "1080p" || best.VCodec != "h264" || !best.HasVideo {
		t.Errorf("best = %+v", best)
	}
	if formats.Formats[1].FormatID != "32" || formats.Formats[1].Resolution != "480p" {
		t.Errorf("second = %+v", formats.Formats[1])
	}
	audio := formats.Formats[2]
	if audio.FormatID != "30280" || !audio.HasAudio || audio.HasVideo || audio.Ext != "mp4" {
		t.Errorf("audio = %+v", audio)
	}
}

func TestParseLuxDocumentErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]errclass.Kind{
		"HTTP 412 Precondition Failed":       errclass.KindRateLimited,
		`{"url":"x","err":"HTTP Error 404"}`: errclass.KindVideoUnavailable,
		"garbage":                            errclass.KindParseError,
	}
	for out, want := range tests {
		_, err := parseLuxDocument([]byte(out))
		var info *errclass.Info
		if !errors.As(err, &info) {
			t.Errorf("parseLuxDocument(%q) error = %v, want *errclass.Info", out, err)
			continue
		}
		if info.Kind != want {
			t.Errorf("parseLuxDocument(%q) kind = %q, want %q", out, info.Kind, want)
		}
	}
}

func TestParseLuxPlaylist(t *testing.T) {
	t.Parallel()

	out := `{"site":"哔哩哔哩 bilibili.com","title":"P1"}
{"site":"哔哩哔哩 bilibili.com","err":"boom"}
{"site":"哔哩哔哩 bilibili.com","title":"P3"}`

	got, err := parseLuxPlaylist([]byte(out), "", "https://www.bilibili.com/video/BV1", 10, 2)
	if err != nil {
		t.Fatalf("parseLuxPlaylist() error = %v", err)
	}
	if !got.IsPlaylist || got.ID != "bilibili" || got.Title != "Playlist from 哔哩哔哩 bilibili.com" || !got.HasMore {
		t.Errorf("playlist = %+v", got)
	}
	if len(got.Entries) != 2 || got.Entries[0].ID != "lux_11" || got.Entries[1].ID != "lux_12" || got.Entries[1].Title != "P3" {
		t.Errorf("entries = %+v", got.Entries)
	}

	if _, err := parseLuxPlaylist(nil, "request error: Get https://x: EOF", "https://b23.tv/x", 0, 10); errclass.KindOf(err) != errclass.KindNetwork {
		t.Errorf("empty listing kind = %q, want network", errclass.KindOf(err))
	}
}

func TestLuxLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		quality, res, codec string
	}{
		{"超清 4K hevc", "2160p", "h265"},
		{"1080P 60帧 av1", "1080p", "av1"},
		{"流畅 360P", "360p", ""},
		{"mp4 720p vp9", "720p", "vp9"},
		{"default", "", ""},
	}
	for _, tt := range tests {
		if got := luxResolution(tt.quality); got != tt.res {
			t.Errorf("luxResolution(%q) = %q, want %q", tt.quality, got, tt.res)
		}
		if got := luxCodec(tt.quality); got != tt.codec {
			t.Errorf("luxCodec(%q) = %q, want %q", tt.quality, got, tt.codec)
		}
	}
}
