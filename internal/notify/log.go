package notify

import (
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/models"
	"fetcharr/internal/utils/logging"
)

// Log writes one log line per lifecycle transition.
type Log struct{}

// Show implements Sink.
func (Log) Show(item *models.QueueItem) {
	logging.I("%s %q via %s (id %s)", paint(consts.StateDownloading, "Downloading"), item.URL, item.Backend, item.ID)
}

// Update implements Sink.
func (Log) Update(ev models.ProgressEvent) {
	logging.D(3, "Progress for %s: %.1f%% %s (stage %q)", ev.ItemID, ev.Percent, ev.Speed, ev.Stage)
}

// Dismiss implements Sink.
func (Log) Dismiss(id string) {
	logging.D(2, "Dismissed notification %s", id)
}

// Completed implements Sink.
func (Log) Completed(item *models.QueueItem) {
	done := paint(consts.StateCompleted, "Completed")
	if item.FilePath == "" {
		logging.S("%s %q (output file not resolved)", done, item.URL)
		return
	}
	logging.S("%s %q -> %q", done, item.URL, item.FilePath)
}

// Failed implements Sink.
func (Log) Failed(item *models.QueueItem) {
	failed := paint(consts.StateFailed, "Failed")
	if item.Error != nil {
		logging.E("%s %q (exit code %d): [%s] %s", failed, item.URL, item.ExitCode, item.Error.Kind, item.Error.Error())
		return
	}
	logging.E("%s %q (exit code %d)", failed, item.URL, item.ExitCode)
}

// paint colors s for the console. The log file writer strips the escapes again.
func paint(state consts.DownloadState, s string) string {
	c, ok := consts.StateColors[state]
	if !ok {
		return s
	}
	return c + s + consts.ColorReset
}
