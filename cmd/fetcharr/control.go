package main

import (
	"context"
	"time"

	"fetcharr/internal/downloads"
	"fetcharr/internal/utils/logging"
)

// janitorInterval is how often finished items are dropped from the in-memory queue.
const janitorInterval = 30 * time.Minute

// startQueueJanitor forgets finished queue items until ctx is done.
//
// Their final status stays queryable from the database.
func startQueueJanitor(ctx context.Context, m *downloads.Manager) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.ClearFinished(); n > 0 {
				logging.D(1, "Dropped %d finished items from the queue", n)
			}
		}
	}
}

// cleanup logs a panic raised during shutdown before re-raising it.
func cleanup() {
	if r := recover(); r != nil {
		logging.E("Panic occurred: %v", r)
		panic(r)
	}
}
