package downloads

import (
	"context"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/models"
	"fetcharr/internal/utils/logging"
)

// StatusStore persists download status snapshots.
type StatusStore interface {
	UpsertStatuses(ctx context.Context, updates []models.StatusUpdate) error
}

// DownloadTracker coalesces status updates per item and flushes them to the store.
type DownloadTracker struct {
	updates    chan models.StatusUpdate
	flushTimer time.Duration
	done       chan struct{}
	stopped    chan struct{}
	store      StatusStore
	started    bool
}

// NewDownloadTracker returns the model used for tracking downloads.
//
// A nil store yields a tracker that discards every update.
func NewDownloadTracker(store StatusStore) *DownloadTracker {
	return &DownloadTracker{
		updates:    make(chan models.StatusUpdate, 100),
		flushTimer: 500 * time.Millisecond,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		store:      store,
	}
}

// Start starts download tracking.
func (t *DownloadTracker) Start() {
	if t.store == nil {
		return
	}
	t.started = true
	go t.processUpdates()
}

// Stop flushes pending updates and stops download tracking.
func (t *DownloadTracker) Stop() {
	close(t.done)
	if t.started {
		<-t.stopped
	}
}

// sendUpdate builds the status update for item and queues it.
func (t *DownloadTracker) sendUpdate(item *models.QueueItem) {
	if !t.started || item == nil {
		return
	}

	u := models.StatusUpdate{
		ItemID:   item.ID,
		URL:      item.URL,
		Backend:  string(item.Backend),
		Status:   item.State,
		Percent:  item.Progress,
		FilePath: item.FilePath,
	}
	if item.Error != nil {
		u.Error = item.Error.Error()
	}

	select {
	case t.updates <- u:
	case <-t.done:
	}
}

// processUpdates keeps the latest update per item and flushes on every tick.
func (t *DownloadTracker) processUpdates() {
	defer close(t.stopped)

	ticker := time.NewTicker(t.flushTimer)
	defer ticker.Stop()

	pending := make(map[string]models.StatusUpdate)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]models.StatusUpdate, 0, len(pending))
		for _, u := range pending {
			batch = append(batch, u)
		}
		clear(pending)
		t.flushUpdates(batch)
	}

	for {
		select {
		case <-t.done:
			for {
				select {
				case u := <-t.updates:
					pending[u.ItemID] = u
				default:
					flush()
					return
				}
			}

		case u := <-t.updates:
			if u.Status.Terminal() {
				logging.D(1, "Status update for %q: Status: %s Percentage: %.1f Error: %q",
					u.URL, u.Status, u.Percent, u.Error)
			}
			pending[u.ItemID] = u

		case <-ticker.C:
			flush()
		}
	}
}

// flushUpdates flushes pending download status updates to the database.
func (t *DownloadTracker) flushUpdates(updates []models.StatusUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), consts.DatabaseTimeout)
	defer cancel()

	backoff := consts.RetryBackoff
	maxRetries := 3

	for attempt := range maxRetries {
		if err := t.store.UpsertStatuses(ctx, updates); err != nil {
			if attempt == maxRetries-1 {
				logging.E("Failed to update download statuses after %d attempts: %v", maxRetries, err)
				return
			}
			logging.W("Retrying update after failure (attempt %d/%d): %v",
				attempt+1, maxRetries, err)
			time.Sleep(backoff * time.Duration(attempt+1))
			continue
		}
		break
	}
	logging.D(2, "Successfully flushed %d status updates", len(updates))
}
