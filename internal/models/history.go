package models

import "time"

// HistoryItem is the persisted record of a completed download.
type HistoryItem struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	FilePath    string    `json:"filePath"`
	FileSize    int64     `json:"fileSize"`
	Backend     string    `json:"backend"`
	CompletedAt time.Time `json:"completedAt"`
}

// HistoryFromItem derives a history record from a finished queue item.
func HistoryFromItem(q *QueueItem) *HistoryItem {
	completed := time.Now()
	if q.CompletedAt != nil {
		completed = *q.CompletedAt
	}
	return &HistoryItem{
		ID:          q.ID,
		URL:         q.URL,
		Title:       q.Title,
		Author:      q.Author,
		Thumbnail:   q.Thumbnail,
		Duration:    q.Duration,
		FilePath:    q.FilePath,
		FileSize:    q.FileSize,
		Backend:     string(q.Backend),
		CompletedAt: completed,
	}
}
