package models

import (
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/errclass"
)

// ProgressEvent is emitted per parsed subprocess output line.
type ProgressEvent struct {
	ItemID     string               `json:"id"`
	URL        string               `json:"url"`
	State      consts.DownloadState `json:"status"`
	Percent    float64              `json:"progress"`
	ETASeconds int                  `json:"etaSeconds"`
	Speed      string               `json:"speed"`
	Stage      string               `json:"stage,omitempty"`
	Line       string               `json:"line,omitempty"`
}

// DownloadResult is the terminal record of a download attempt.
type DownloadResult struct {
	Success  bool           `json:"success"`
	ExitCode int            `json:"exitCode"`
	FilePath string         `json:"filePath,omitempty"`
	FileSize int64          `json:"fileSize,omitempty"`
	Error    *errclass.Info `json:"error,omitempty"`
}

// StatusUpdate models updates to the download status of a queue item.
type StatusUpdate struct {
	ItemID   string
	URL      string
	Backend  string
	Status   consts.DownloadState
	Percent  float64
	FilePath string
	Error    string
}
