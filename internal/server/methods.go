package server

import (
	"context"
	"errors"
	"fmt"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/downloads"
	"fetcharr/internal/models"
)

// itemStatus is the reply for a single item lookup.
type itemStatus struct {
	ID       string               `json:"id"`
	URL      string               `json:"url"`
	Backend  string               `json:"backend"`
	Status   consts.DownloadState `json:"status"`
	Progress float64              `json:"progress"`
	FilePath string               `json:"filePath,omitempty"`
	Error    string               `json:"error,omitempty"`
	Live     bool                 `json:"live"`
	Item     *models.QueueItem    `json:"item,omitempty"`
}

// lookupStatus prefers the live queue and falls back to the persisted status row.
func (s *server) lookupStatus(ctx context.Context, id string) (itemStatus, error) {
	if q, ok := s.Downloads.Get(id); ok {
		st := itemStatus{
			ID:       q.ID,
			URL:      q.URL,
			Backend:  string(q.Backend),
			Status:   q.State,
			Progress: q.Progress,
			FilePath: q.FilePath,
			Live:     true,
			Item:     q,
		}
		if q.Error != nil {
			st.Error = q.Error.Message
		}
		return st, nil
	}

	if s.Status == nil {
		return itemStatus{}, fmt.Errorf("download %q: %w", id, downloads.ErrNotFound)
	}
	u, err := s.Status.GetStatus(ctx, id)
	if err != nil {
		return itemStatus{}, err
	}
	return itemStatus{
		ID:       u.ItemID,
		URL:      u.URL,
		Backend:  u.Backend,
		Status:   u.Status,
		Progress: u.Percent,
		FilePath: u.FilePath,
		Error:    u.Error,
	}, nil
}

// historyPage lists one page of history. A nil store yields an empty page.
func (s *server) historyPage(ctx context.Context, limit, offset int) ([]*models.HistoryItem, error) {
	if s.History == nil {
		return []*models.HistoryItem{}, nil
	}
	items, err := s.History.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.HistoryItem{}
	}
	return items, nil
}

// deleteHistory removes one history record.
func (s *server) deleteHistory(ctx context.Context, id string) error {
	if s.History == nil {
		return errors.New("history is not available")
	}
	return s.History.Delete(ctx, id)
}
