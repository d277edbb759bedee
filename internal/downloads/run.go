package downloads

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"fetcharr/internal/backends"
	"fetcharr/internal/command/builder"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/downloads/downloaders"
	"fetcharr/internal/errclass"
	"fetcharr/internal/models"
	"fetcharr/internal/utils/logging"
)

const (
	maxErrorLines = 20
	maxTailLines  = 3
)

// outcome is what one backend execution left behind.
type outcome struct {
	exitCode int
	err      error
	dir      string
	path     string
	rank     int
	errLines []string
	tail     []string
}

// job is the running state of a single item.
type job struct {
	m     *Manager
	e     *entry
	clamp progressClamp
	stage string
	post  bool
	out   outcome
}

// run drives one item from idle to a terminal state.
func (m *Manager) run(e *entry) {
	defer e.cancel()
	ctx := e.ctx

	if ctx.Err() != nil {
		m.finish(e, outcome{exitCode: -1}, errclass.New(errclass.KindCancelled, "cancelled before start"))
		return
	}

	snap := m.update(e, func(q *models.QueueItem) {
		q.State = consts.StateDownloading
		q.Progress = 0
		q.StatusMessage = "Downloading"
	})
	m.sink.Show(snap)
	m.tracker.sendUpdate(snap)
	logging.I("Starting %s download for URL: %s", snap.Backend, snap.NormalizedURL)

	j := &job{m: m, e: e}
	j.execute(ctx)

	switch {
	case ctx.Err() != nil:
		m.finish(e, j.out, errclass.New(errclass.KindCancelled, "cancelled by user"))
	case j.out.err != nil || j.out.exitCode != 0:
		m.finish(e, j.out, classifyFailure(j.out))
	default:
		m.finish(e, j.out, nil)
	}
}

// execute runs the backend chosen at submission.
func (j *job) execute(ctx context.Context) {
	q := j.e.item
	dir := builder.TargetDir(q.Options, j.m.cfg.OutputDir)
	if err := os.MkdirAll(dir, consts.PermsDownloadDir); err != nil {
		j.out = outcome{exitCode: -1, err: fmt.Errorf("failed to create output directory %q: %w", dir, err)}
		return
	}
	j.out.dir = dir

	switch q.Backend {
	case backends.DirectFile:
		j.runDirect(ctx, dir)
	case backends.Lux:
		j.runLux(ctx, dir)
	default:
		j.runYtdlp(ctx, dir)
	}
}

// handle feeds one output line through the backend parser and updates the item.
func (j *job) handle(line string, parse downloaders.Parser) {
	j.note(line)

	l := parse(line)
	if l.Path != "" && l.PathRank >= j.out.rank {
		j.out.path, j.out.rank = l.Path, l.PathRank
	}

	switch {
	case l.PostProcess:
		j.processing(l.Stage, line)
	case l.HasPercent:
		j.progress(l.Percent, l.Speed, l.ETA, l.ETASeconds, line)
	}
}

// note keeps error lines and a short tail for classification.
func (j *job) note(line string) {
	if isErrorLine(line) {
		j.out.errLines = append(j.out.errLines, line)
		if len(j.out.errLines) > maxErrorLines {
			j.out.errLines = j.out.errLines[1:]
		}
	}
	j.out.tail = append(j.out.tail, line)
	if len(j.out.tail) > maxTailLines {
		j.out.tail = j.out.tail[1:]
	}
}

// processing moves the item into post-processing with indeterminate progress.
func (j *job) processing(stage, line string) {
	if j.post && j.stage == stage {
		return
	}
	j.post, j.stage = true, stage

	msg := "Processing"
	if stage != "" {
		msg += ": " + stage
	}
	snap := j.m.update(j.e, func(q *models.QueueItem) {
		q.State = consts.StateProcessing
		q.Progress = j.clamp.apply(consts.ProgressIndeterminate)
		q.Speed, q.ETA = "", ""
		q.StatusMessage = msg
	})
	j.emit(snap, -1, line)
}

// progress applies a determinate percentage through the clamp.
func (j *job) progress(pct float64, speed, eta string, etaSeconds int, line string) {
	snap := j.m.update(j.e, func(q *models.QueueItem) {
		q.Progress = j.clamp.apply(pct)
		q.Speed = speed
		q.ETA = eta
	})
	j.emit(snap, etaSeconds, line)
}

func (j *job) emit(snap *models.QueueItem, etaSeconds int, line string) {
	ev := models.ProgressEvent{
		ItemID:     snap.ID,
		URL:        snap.URL,
		State:      snap.State,
		Percent:    snap.Progress,
		ETASeconds: etaSeconds,
		Speed:      snap.Speed,
		Stage:      j.stage,
		Line:       line,
	}
	j.m.sink.Update(ev)
	j.m.tracker.sendUpdate(snap)
	j.m.publish(j.e, ev)
}

// publish fans ev out to watchers, dropping it for full channels.
func (m *Manager) publish(e *entry, ev models.ProgressEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range e.watchers {
		select {
		case w <- ev:
		default:
		}
	}
}

// finish moves the item into its terminal state exactly once.
//
// A nil failure means success; the output file is resolved before the state flips.
func (m *Manager) finish(e *entry, out outcome, failure *errclass.Info) {
	var (
		path string
		size int64
	)
	if failure == nil {
		path, size = resolveOutput(out.path, out.rank, out.dir)
	}
	now := time.Now()

	m.mu.Lock()
	q := e.item
	if q.State.Terminal() {
		m.mu.Unlock()
		return
	}
	q.ExitCode = out.exitCode
	q.Speed, q.ETA = "", ""
	switch {
	case failure == nil:
		q.State = consts.StateCompleted
		q.Progress = 100
		q.FilePath = path
		q.FileSize = size
		q.StatusMessage = "Completed"
		q.CompletedAt = &now
	case failure.Kind == errclass.KindCancelled:
		q.State = consts.StateCancelled
		q.Error = failure
		q.StatusMessage = "Cancelled"
	default:
		q.State = consts.StateFailed
		q.Error = failure
		q.StatusMessage = failure.Message
	}
	e.result = models.DownloadResult{
		Success:  failure == nil,
		ExitCode: out.exitCode,
		FilePath: path,
		FileSize: size,
		Error:    failure,
	}
	for k, w := range e.watchers {
		close(w)
		delete(e.watchers, k)
	}
	if m.active[q.NormalizedURL] == q.ID {
		delete(m.active, q.NormalizedURL)
	}
	snap := q.Clone()
	close(e.done)
	m.mu.Unlock()

	m.tracker.sendUpdate(snap)
	m.sink.Dismiss(snap.ID)

	switch snap.State {
	case consts.StateCompleted:
		if path == "" {
			logging.W("Download of %q finished but no output file was found in %q", snap.NormalizedURL, out.dir)
		}
		logging.S("Completed download for URL: %s", snap.NormalizedURL)
		m.recordHistory(snap)
		m.sink.Completed(snap)
	case consts.StateFailed:
		logging.E("Download of %q failed with exit code %d: %v", snap.NormalizedURL, snap.ExitCode, snap.Error)
		m.sink.Failed(snap)
	case consts.StateCancelled:
		logging.I("Download of %q cancelled", snap.NormalizedURL)
	}
}

func (m *Manager) recordHistory(q *models.QueueItem) {
	if m.cfg.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), consts.DatabaseTimeout)
	defer cancel()
	if err := m.cfg.History.Add(ctx, models.HistoryFromItem(q)); err != nil {
		logging.E("Failed to record history for %q: %v", q.NormalizedURL, err)
	}
}

// classifyFailure prefers a non-exit error, then explicit error lines, then the output tail.
func classifyFailure(out outcome) *errclass.Info {
	var exitErr *exec.ExitError
	if out.err != nil && !errors.As(out.err, &exitErr) {
		return errclass.Wrap(out.err)
	}

	for _, lines := range [][]string{out.errLines, out.tail} {
		if len(lines) == 0 {
			continue
		}
		if info := errclass.Classify(strings.Join(lines, "\n")); info.Kind != errclass.KindUnknown {
			return info
		}
	}

	if len(out.errLines) > 0 {
		return errclass.New(errclass.KindUnknown, strings.Join(out.errLines, "\n"))
	}
	return errclass.New(errclass.KindUnknown, fmt.Sprintf("process exited with code %d", out.exitCode))
}

// isErrorLine matches the error reporting styles of yt-dlp, lux and aria2c.
func isErrorLine(line string) bool {
	if strings.HasPrefix(line, "ERROR") || strings.Contains(line, "[ERROR]") {
		return true
	}
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "error") ||
		strings.Contains(lower, "error:") ||
		strings.Contains(lower, "request error") ||
		strings.Contains(lower, "exception")
}
