package notify

import (
	"context"
	"slices"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/models"

	"golang.org/x/time/rate"
)

const (
	// MaxSlots is the number of notifications shown at once.
	MaxSlots   = 10
	maxRecent  = 20
	cmdBacklog = 256
)

// Notification is the display state of one download.
type Notification struct {
	ID        string               `json:"id"`
	URL       string               `json:"url"`
	Title     string               `json:"title"`
	Thumbnail string               `json:"thumbnail,omitempty"`
	State     consts.DownloadState `json:"status"`
	Progress  float64              `json:"progress"`
	Speed     string               `json:"speed,omitempty"`
	ETA       int                  `json:"etaSeconds"`
	Stage     string               `json:"stage,omitempty"`
	Message   string               `json:"message,omitempty"`
	FilePath  string               `json:"filePath,omitempty"`
	Slot      int                  `json:"slot"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// boardState is only touched by the board's owner goroutine.
type boardState struct {
	active   map[string]*Notification
	limiters map[string]*rate.Limiter
	slots    [MaxSlots]string
	recent   []Notification
}

// ProgressBoard holds the shared notification map behind a single owner goroutine.
type ProgressBoard struct {
	cmds     chan func(*boardState)
	done     chan struct{}
	throttle time.Duration
}

// NewProgressBoard starts the owner goroutine, which exits when ctx is done.
func NewProgressBoard(ctx context.Context, throttle time.Duration) *ProgressBoard {
	if throttle <= 0 {
		throttle = consts.ProgressThrottle
	}
	b := &ProgressBoard{
		cmds:     make(chan func(*boardState), cmdBacklog),
		done:     make(chan struct{}),
		throttle: throttle,
	}
	go b.run(ctx)
	return b
}

func (b *ProgressBoard) run(ctx context.Context) {
	defer close(b.done)
	st := &boardState{
		active:   make(map[string]*Notification),
		limiters: make(map[string]*rate.Limiter),
	}
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-b.cmds:
			f(st)
		}
	}
}

// do queues f on the owner goroutine; it is dropped once the board stopped.
func (b *ProgressBoard) do(f func(*boardState)) {
	select {
	case b.cmds <- f:
	case <-b.done:
	}
}

// query runs f on the owner goroutine and waits for it.
func (b *ProgressBoard) query(f func(*boardState)) bool {
	finished := make(chan struct{})
	select {
	case b.cmds <- func(st *boardState) { f(st); close(finished) }:
	case <-b.done:
		return false
	}
	select {
	case <-finished:
		return true
	case <-b.done:
		return false
	}
}

// Show implements Sink.
func (b *ProgressBoard) Show(item *models.QueueItem) {
	n := Notification{
		ID:        item.ID,
		URL:       item.URL,
		Title:     item.Title,
		Thumbnail: item.Thumbnail,
		State:     item.State,
		Progress:  item.Progress,
		Message:   item.StatusMessage,
		UpdatedAt: time.Now(),
	}
	b.do(func(st *boardState) {
		if existing, ok := st.active[n.ID]; ok {
			n.Slot = existing.Slot
		} else {
			n.Slot = st.allocate(n.ID)
		}
		st.active[n.ID] = &n
		st.limiters[n.ID] = rate.NewLimiter(rate.Every(b.throttle), 1)
	})
}

// Update implements Sink. Updates faster than the throttle are dropped unless they change state.
func (b *ProgressBoard) Update(ev models.ProgressEvent) {
	b.do(func(st *boardState) {
		n, ok := st.active[ev.ItemID]
		if !ok {
			return
		}
		lim := st.limiters[ev.ItemID]
		if ev.State == n.State && lim != nil && !lim.Allow() {
			return
		}
		n.State = ev.State
		n.Progress = ev.Percent
		n.Speed = ev.Speed
		n.ETA = ev.ETASeconds
		n.Stage = ev.Stage
		n.UpdatedAt = time.Now()
	})
}

// Dismiss implements Sink.
func (b *ProgressBoard) Dismiss(id string) {
	b.do(func(st *boardState) {
		delete(st.active, id)
		delete(st.limiters, id)
		st.free(id)
	})
}

// Completed implements Sink.
func (b *ProgressBoard) Completed(item *models.QueueItem) {
	b.finish(item, "")
}

// Failed implements Sink.
func (b *ProgressBoard) Failed(item *models.QueueItem) {
	msg := item.StatusMessage
	if item.Error != nil {
		msg = item.Error.Message
	}
	b.finish(item, msg)
}

func (b *ProgressBoard) finish(item *models.QueueItem, msg string) {
	n := Notification{
		ID:        item.ID,
		URL:       item.URL,
		Title:     item.Title,
		Thumbnail: item.Thumbnail,
		State:     item.State,
		Progress:  item.Progress,
		Message:   msg,
		FilePath:  item.FilePath,
		Slot:      -1,
		UpdatedAt: time.Now(),
	}
	b.do(func(st *boardState) {
		st.recent = append(st.recent, n)
		if len(st.recent) > maxRecent {
			st.recent = slices.Delete(st.recent, 0, len(st.recent)-maxRecent)
		}
	})
}

// Active returns the shown notifications ordered by slot.
func (b *ProgressBoard) Active() []Notification {
	var out []Notification
	b.query(func(st *boardState) {
		out = make([]Notification, 0, len(st.active))
		for _, n := range st.active {
			out = append(out, *n)
		}
	})
	slices.SortFunc(out, func(a, c Notification) int { return a.Slot - c.Slot })
	return out
}

// Recent returns finished notifications, newest last.
func (b *ProgressBoard) Recent() []Notification {
	var out []Notification
	b.query(func(st *boardState) {
		out = slices.Clone(st.recent)
	})
	return out
}

// allocate takes the first free slot; overflowing notifications share the last slot.
func (st *boardState) allocate(id string) int {
	for i, owner := range st.slots {
		if owner == "" {
			st.slots[i] = id
			return i
		}
	}
	return MaxSlots - 1
}

// free releases id's slot and shifts later notifications down.
func (st *boardState) free(id string) {
	idx := slices.Index(st.slots[:], id)
	if idx < 0 {
		return
	}
	copy(st.slots[idx:], st.slots[idx+1:])
	st.slots[MaxSlots-1] = ""
	for i, owner := range st.slots {
		if n, ok := st.active[owner]; ok && owner != "" {
			n.Slot = i
		}
	}
}
