package downloads

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"fetcharr/internal/domain/regex"
	"fetcharr/internal/errclass"
	"fetcharr/internal/utils/logging"
)

const maxLineSize = 1024 * 1024

// runProcess starts cmd in its own process group and feeds every output line to onLine.
//
// It returns the exit code, or -1 when the process never ran or was killed by a signal.
func runProcess(ctx context.Context, cmd *exec.Cmd, onLine func(string)) (int, error) {
	if cmd == nil {
		return -1, errors.New("no command built")
	}
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("stdout pipe error: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("stderr pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return -1, errclass.New(errclass.KindDependencyMissing, fmt.Sprintf("%s not found: %v", filepath.Base(cmd.Path), err))
		}
		return -1, fmt.Errorf("failed to start %s: %w", filepath.Base(cmd.Path), err)
	}
	logging.D(2, "Started %s with PID %d", filepath.Base(cmd.Path), cmd.Process.Pid)

	// Both pipes are drained concurrently so a full stderr cannot stall stdout
	lineChan := make(chan string, 100)
	var wg sync.WaitGroup
	for _, r := range []io.Reader{stdout, stderr} {
		wg.Add(1)
		go func(r io.Reader) {
			defer wg.Done()
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
			scanner.Split(scanTerminalLines)
			for scanner.Scan() {
				lineChan <- scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				logging.D(2, "Output scanner stopped: %v", err)
			}
		}(r)
	}
	go func() {
		wg.Wait()
		close(lineChan)
	}()

	for line := range lineChan {
		line = strings.TrimSpace(regex.AnsiEscape.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		logging.D(4, "Terminal output: %q", line)
		onLine(line)
	}

	err = cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return exitCode(err), ctxErr
	}
	return exitCode(err), err
}

// exitCode extracts the process exit status from a Wait error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// scanTerminalLines splits on '\n' and on the bare '\r' progress bars redraw with.
func scanTerminalLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
