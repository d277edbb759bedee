// Package downloads runs the download queue: admission, the worker pool and per-item execution.
package downloads

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"fetcharr/internal/backends"
	"fetcharr/internal/cookies"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/errclass"
	"fetcharr/internal/models"
	"fetcharr/internal/notify"
	"fetcharr/internal/parsing"
	"fetcharr/internal/utils/logging"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown item IDs.
var ErrNotFound = errors.New("download not found")

// Binaries are the resolved external tool paths. An empty path means the tool is unavailable.
type Binaries struct {
	YtDlp  string
	Lux    string
	Aria2c string
}

// HistoryStore records completed downloads.
type HistoryStore interface {
	Add(ctx context.Context, h *models.HistoryItem) error
}

// InfoFetcher looks up display metadata for a queued URL.
type InfoFetcher interface {
	VideoInfo(ctx context.Context, rawURL string, opts models.DownloadOptions) (*models.VideoInfo, error)
}

// Config wires the manager to its collaborators. Nil collaborators are skipped.
type Config struct {
	Concurrency int
	OutputDir   string
	Bins        Binaries
	Cookies     *cookies.Manager
	Sink        notify.Sink
	Status      StatusStore
	History     HistoryStore
	Info        InfoFetcher
}

// entry is the manager's record for one queue item. Fields are guarded by Manager.mu.
type entry struct {
	item     *models.QueueItem
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	result   models.DownloadResult
	watchers map[int]chan models.ProgressEvent
	nextW    int
}

// Manager owns the queue and the bounded pool of download workers.
type Manager struct {
	cfg     Config
	sink    notify.Sink
	tracker *DownloadTracker

	mu      sync.RWMutex
	items   map[string]*entry
	order   []string
	active  map[string]string
	pending []string

	wake      chan struct{}
	ctx       context.Context
	stop      context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager starts the worker pool. Workers stop when ctx is done or Close is called.
func NewManager(ctx context.Context, cfg Config) *Manager {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = consts.DefaultConcurrency
	}
	cfg.Concurrency = min(cfg.Concurrency, consts.MaxConcurrency)

	sink := cfg.Sink
	if sink == nil {
		sink = notify.Nop{}
	}

	m := &Manager{
		cfg:     cfg,
		sink:    sink,
		tracker: NewDownloadTracker(cfg.Status),
		items:   make(map[string]*entry),
		active:  make(map[string]string),
		wake:    make(chan struct{}, 1),
	}
	m.ctx, m.stop = context.WithCancel(ctx)
	m.tracker.Start()

	for range cfg.Concurrency {
		m.wg.Add(1)
		go m.worker()
	}
	logging.D(1, "Started %d download workers", cfg.Concurrency)
	return m
}

// Close cancels running downloads, waits for the workers and flushes status updates.
//
// Close is safe to call more than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.stop()
		m.wg.Wait()

		// Items still waiting never reached a worker
		m.mu.Lock()
		waiting := m.pending
		m.pending = nil
		m.mu.Unlock()
		for _, id := range waiting {
			m.mu.RLock()
			e := m.items[id]
			m.mu.RUnlock()
			if e != nil {
				m.finish(e, outcome{exitCode: -1}, errclass.New(errclass.KindCancelled, "shutting down"))
			}
		}

		m.tracker.Stop()
	})
}

// Submit validates and queues a download.
//
// A URL that normalizes to one already queued or running returns that item with existing set.
func (m *Manager) Submit(rawURL string, opts models.DownloadOptions) (item *models.QueueItem, existing bool, err error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false, errclass.New(errclass.KindInvalidURL, rawURL)
	}
	if m.ctx.Err() != nil {
		return nil, false, errclass.New(errclass.KindCancelled, "download manager is shut down")
	}

	normalized := parsing.CleanURL(rawURL)
	kind := backends.Select(normalized, backends.ParseKind(opts.Backend))
	if kind == backends.Lux && m.cfg.Bins.Lux == "" {
		return nil, false, errclass.New(errclass.KindDependencyMissing, "lux not found")
	}

	q := &models.QueueItem{
		ID:            uuid.NewString(),
		URL:           rawURL,
		NormalizedURL: normalized,
		Backend:       kind,
		Options:       opts,
		State:         consts.StateIdle,
		StatusMessage: "Queued",
		AddedAt:       time.Now(),
	}
	if kind == backends.DirectFile {
		if name, ok := parsing.IsDirectFileURL(normalized); ok {
			q.Title = name
		}
	}

	m.mu.Lock()
	// Close drains pending under this lock after cancelling ctx.
	if m.ctx.Err() != nil {
		m.mu.Unlock()
		return nil, false, errclass.New(errclass.KindCancelled, "download manager is shut down")
	}
	if id, ok := m.active[normalized]; ok {
		if e, ok := m.items[id]; ok {
			c := e.item.Clone()
			m.mu.Unlock()
			logging.I("Skipping duplicate download for: %s", normalized)
			return c, true, nil
		}
	}
	m.items[q.ID] = &entry{
		item:     q,
		done:     make(chan struct{}),
		watchers: make(map[int]chan models.ProgressEvent),
	}
	m.order = append(m.order, q.ID)
	m.active[normalized] = q.ID
	m.pending = append(m.pending, q.ID)
	snapshot := q.Clone()
	m.mu.Unlock()

	logging.I("Queued %s download for %q (%s)", kind, normalized, q.ID)
	m.tracker.sendUpdate(snapshot)
	m.signal()

	if m.cfg.Info != nil && kind != backends.DirectFile {
		go m.enrich(q.ID, normalized, opts)
	}
	return snapshot, false, nil
}

// Get returns a snapshot of the item.
func (m *Manager) Get(id string) (*models.QueueItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[id]
	if !ok {
		return nil, false
	}
	return e.item.Clone(), true
}

// List returns snapshots of every item in submission order.
func (m *Manager) List() []*models.QueueItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.QueueItem, 0, len(m.order))
	for _, id := range m.order {
		if e, ok := m.items[id]; ok {
			out = append(out, e.item.Clone())
		}
	}
	return out
}

// Cancel stops an item. Waiting items are dropped before spawning; running ones are killed.
//
// Cancelling a finished item is a no-op.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	e, ok := m.items[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if e.item.State.Terminal() {
		m.mu.Unlock()
		return nil
	}

	if e.cancel != nil {
		cancel := e.cancel
		m.mu.Unlock()
		logging.I("Cancelling running download %q", e.item.NormalizedURL)
		cancel()
		return nil
	}

	m.pending = slices.DeleteFunc(m.pending, func(p string) bool { return p == id })
	m.mu.Unlock()

	logging.I("Cancelled queued download %q", e.item.NormalizedURL)
	m.finish(e, outcome{exitCode: -1}, errclass.New(errclass.KindCancelled, "cancelled by user"))
	return nil
}

// Remove cancels the item if needed and forgets it.
func (m *Manager) Remove(id string) error {
	if err := m.Cancel(id); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.items, id)
	m.order = slices.DeleteFunc(m.order, func(o string) bool { return o == id })
	m.mu.Unlock()
	return nil
}

// ClearFinished forgets every item in a terminal state and returns how many were removed.
func (m *Manager) ClearFinished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	m.order = slices.DeleteFunc(m.order, func(id string) bool {
		e, ok := m.items[id]
		if ok && e.item.State.Terminal() {
			delete(m.items, id)
			n++
			return true
		}
		return !ok
	})
	return n
}

// Watch subscribes to progress events for id. The channel closes when the item finishes.
//
// Events are dropped for slow readers. Call the returned func to unsubscribe early.
func (m *Manager) Watch(id string) (<-chan models.ProgressEvent, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, nil, ErrNotFound
	}

	ch := make(chan models.ProgressEvent, 64)
	if e.item.State.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}

	key := e.nextW
	e.nextW++
	e.watchers[key] = ch
	unsubscribe := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if w, ok := e.watchers[key]; ok {
			delete(e.watchers, key)
			close(w)
		}
	}
	return ch, unsubscribe, nil
}

// Wait blocks until the item finishes or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (models.DownloadResult, error) {
	m.mu.RLock()
	e, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return models.DownloadResult{}, ErrNotFound
	}

	select {
	case <-e.done:
		m.mu.RLock()
		defer m.mu.RUnlock()
		return e.result, nil
	case <-ctx.Done():
		return models.DownloadResult{}, ctx.Err()
	}
}

// Counts returns the number of running and waiting items.
func (m *Manager) Counts() (running, waiting int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.items {
		switch e.item.State {
		case consts.StateDownloading, consts.StateProcessing:
			running++
		}
	}
	return running, len(m.pending)
}

// worker pulls waiting items in FIFO order until the manager stops.
func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		e := m.next()
		if e == nil {
			select {
			case <-m.ctx.Done():
				return
			case <-m.wake:
				continue
			}
		}
		m.run(e)
	}
}

// next pops the oldest waiting item and arms its cancel func.
func (m *Manager) next() *entry {
	if m.ctx.Err() != nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.pending) > 0 {
		id := m.pending[0]
		m.pending = m.pending[1:]
		e, ok := m.items[id]
		if !ok || e.item.State != consts.StateIdle {
			continue
		}
		e.ctx, e.cancel = context.WithCancel(m.ctx)
		if len(m.pending) > 0 {
			m.signal()
		}
		return e
	}
	return nil
}

// signal wakes one idle worker without blocking.
func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// update applies f to the live item under the lock and returns a snapshot.
func (m *Manager) update(e *entry, f func(q *models.QueueItem)) *models.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(e.item)
	return e.item.Clone()
}

// enrich fills in display metadata without delaying the download.
func (m *Manager) enrich(id, rawURL string, opts models.DownloadOptions) {
	ctx, cancel := context.WithTimeout(m.ctx, consts.VideoInfoTimeout)
	defer cancel()

	info, err := m.cfg.Info.VideoInfo(ctx, rawURL, opts)
	if err != nil {
		logging.D(1, "Could not fetch metadata for %q: %v", rawURL, err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return
	}
	q := e.item
	if q.Title == "" {
		q.Title = info.Title
	}
	if q.Author == "" {
		q.Author = info.Author()
	}
	if q.Thumbnail == "" {
		q.Thumbnail = info.Thumbnail
	}
	if q.Duration == 0 {
		q.Duration = info.Duration
	}
}
