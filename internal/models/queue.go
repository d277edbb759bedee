// Package models holds the data types shared across Fetcharr's packages.
package models

import (
	"time"

	"fetcharr/internal/backends"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/errclass"
	"fetcharr/internal/proxy"
)

// DownloadOptions are the per-request choices for a download.
type DownloadOptions struct {
	OutputDir          string       `json:"outputDir,omitempty"`
	Quality            string       `json:"quality,omitempty"`
	AudioQuality       string       `json:"audioQuality,omitempty"`
	Mode               string       `json:"mode,omitempty"`
	FormatID           string       `json:"formatId,omitempty"`
	Backend            string       `json:"backend,omitempty"`
	AudioFormat        string       `json:"audioFormat,omitempty"`
	Remux              bool         `json:"remux,omitempty"`
	ConvertMP4         bool         `json:"convertMp4,omitempty"`
	SpeedLimit         string       `json:"speedLimit,omitempty"`
	Accelerate         bool         `json:"accelerate,omitempty"`
	AriaConnections    int          `json:"ariaConnections,omitempty"`
	CookiesFromBrowser string       `json:"cookiesFromBrowser,omitempty"`
	CookieFile         string       `json:"cookieFile,omitempty"`
	Proxy              proxy.Config `json:"proxy"`
	EmbedChapters      bool         `json:"embedChapters,omitempty"`
	EmbedSubs          bool         `json:"embedSubs,omitempty"`
	SubLangs           string       `json:"subLangs,omitempty"`
	EmbedThumbnail     bool         `json:"embedThumbnail,omitempty"`
	NoMetadata         bool         `json:"noMetadata,omitempty"`
	SponsorBlock       bool         `json:"sponsorBlock,omitempty"`
	PlaylistTitle      string       `json:"playlistTitle,omitempty"`
	YouTubeClient      string       `json:"youtubeClient,omitempty"`
	LuxThreads         int          `json:"luxThreads,omitempty"`
	AllowPlaylist      bool         `json:"allowPlaylist,omitempty"`
	Filename           string       `json:"filename,omitempty"`
}

// QueueItem is one requested download, owned by the download manager.
type QueueItem struct {
	ID            string               `json:"id"`
	URL           string               `json:"url"`
	NormalizedURL string               `json:"normalizedUrl"`
	Backend       backends.Kind        `json:"backend"`
	Options       DownloadOptions      `json:"options"`
	State         consts.DownloadState `json:"status"`
	StatusMessage string               `json:"statusMessage"`
	Title         string               `json:"title"`
	Author        string               `json:"author"`
	Thumbnail     string               `json:"thumbnail"`
	Duration      float64              `json:"duration"`
	Progress      float64              `json:"progress"`
	Speed         string               `json:"speed"`
	ETA           string               `json:"eta"`
	Error         *errclass.Info       `json:"error,omitempty"`
	ExitCode      int                  `json:"exitCode"`
	FilePath      string               `json:"filePath"`
	FileSize      int64                `json:"fileSize"`
	AddedAt       time.Time            `json:"addedAt"`
	CompletedAt   *time.Time           `json:"completedAt,omitempty"`
}

// Clone returns a copy safe to hand outside the manager's lock.
func (q *QueueItem) Clone() *QueueItem {
	if q == nil {
		return nil
	}
	c := *q
	if q.Error != nil {
		e := *q.Error
		c.Error = &e
	}
	if q.CompletedAt != nil {
		t := *q.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
