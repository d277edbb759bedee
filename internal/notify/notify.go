// Package notify fans download lifecycle events out to notification sinks.
package notify

import (
	"fetcharr/internal/models"
)

// Sink receives download lifecycle events.
//
// Show is sent on entering downloading, Update on progress, Dismiss on a terminal
// state, then Completed or Failed.
type Sink interface {
	Show(item *models.QueueItem)
	Update(ev models.ProgressEvent)
	Dismiss(id string)
	Completed(item *models.QueueItem)
	Failed(item *models.QueueItem)
}

// Multi forwards every event to each sink in order.
type Multi []Sink

// Show implements Sink.
func (m Multi) Show(item *models.QueueItem) {
	for _, s := range m {
		s.Show(item)
	}
}

// Update implements Sink.
func (m Multi) Update(ev models.ProgressEvent) {
	for _, s := range m {
		s.Update(ev)
	}
}

// Dismiss implements Sink.
func (m Multi) Dismiss(id string) {
	for _, s := range m {
		s.Dismiss(id)
	}
}

// Completed implements Sink.
func (m Multi) Completed(item *models.QueueItem) {
	for _, s := range m {
		s.Completed(item)
	}
}

// Failed implements Sink.
func (m Multi) Failed(item *models.QueueItem) {
	for _, s := range m {
		s.Failed(item)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Show(*models.QueueItem)      {}
func (Nop) Update(models.ProgressEvent) {}
func (Nop) Dismiss(string)              {}
func (Nop) Completed(*models.QueueItem) {}
func (Nop) Failed(*models.QueueItem)    {}
