package models

// VideoInfo is the lightweight metadata shown before a download starts.
type VideoInfo struct {
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader,omitempty"`
	Channel    string  `json:"channel,omitempty"`
	Creator    string  `json:"creator,omitempty"`
	UploaderID string  `json:"uploaderId,omitempty"`
	Thumbnail  string  `json:"thumbnail,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Filesize   int64   `json:"filesize,omitempty"`
	Ext        string  `json:"ext,omitempty"`
}

// Author picks the first populated uploader-ish field.
func (v *VideoInfo) Author() string {
	for _, s := range []string{v.Uploader, v.Channel, v.Creator, v.UploaderID} {
		if s != "" {
			return s
		}
	}
	return ""
}

// PlaylistEntry is one flat-playlist item.
type PlaylistEntry struct {
	ID        string  `json:"id"`
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration,omitempty"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Uploader  string  `json:"uploader,omitempty"`
	IsMusic   bool    `json:"isMusic"`
}

// PlaylistInfo is a page of a flat playlist enumeration.
type PlaylistInfo struct {
	IsPlaylist bool            `json:"isPlaylist"`
	ID         string          `json:"id,omitempty"`
	Title      string          `json:"title"`
	Uploader   string          `json:"uploader,omitempty"`
	Thumbnail  string          `json:"thumbnail,omitempty"`
	TotalCount int             `json:"totalCount"`
	Entries    []PlaylistEntry `json:"entries"`
	HasMore    bool            `json:"hasMore"`
}

// VideoFormat is one selectable stream.
type VideoFormat struct {
	FormatID       string  `json:"formatId"`
	Ext            string  `json:"ext"`
	Resolution     string  `json:"resolution,omitempty"`
	FPS            float64 `json:"fps,omitempty"`
	VCodec         string  `json:"vcodec,omitempty"`
	ACodec         string  `json:"acodec,omitempty"`
	Filesize       int64   `json:"filesize,omitempty"`
	FilesizeApprox int64   `json:"filesizeApprox,omitempty"`
	TBR            float64 `json:"tbr,omitempty"`
	VBR            float64 `json:"vbr,omitempty"`
	ABR            float64 `json:"abr,omitempty"`
	ASR            int     `json:"asr,omitempty"`
	FormatNote     string  `json:"formatNote,omitempty"`
	HasVideo       bool    `json:"hasVideo"`
	HasAudio       bool    `json:"hasAudio"`
	Quality        float64 `json:"quality,omitempty"`
}

// VideoFormats is the full format listing of a video.
type VideoFormats struct {
	Title       string        `json:"title"`
	Author      string        `json:"author,omitempty"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	Duration    float64       `json:"duration,omitempty"`
	Formats     []VideoFormat `json:"formats"`
	ViewCount   int64         `json:"viewCount,omitempty"`
	LikeCount   int64         `json:"likeCount,omitempty"`
	Description string        `json:"description,omitempty"`
	UploadDate  string        `json:"uploadDate,omitempty"`
	ChannelURL  string        `json:"channelUrl,omitempty"`
	ChannelID   string        `json:"channelId,omitempty"`
}

// FileInfo describes a direct file link checked with HEAD.
type FileInfo struct {
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimeType"`
	AcceptRanges bool   `json:"acceptRanges"`
}

// DependencyStatus reports an external binary's availability.
type DependencyStatus struct {
	Name      string `json:"name"`
	Installed bool   `json:"installed"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
}
