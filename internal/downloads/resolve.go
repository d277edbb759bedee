package downloads

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/downloads/downloaders"
	"fetcharr/internal/utils/logging"
)

// resolveOutput finds the file a finished download produced.
//
// The captured path wins when it exists. Otherwise the newest media file in dir is used,
// preferring files written within the recent window. An empty result is not an error.
func resolveOutput(captured string, rank int, dir string) (string, int64) {
	if captured != "" {
		if !filepath.IsAbs(captured) {
			captured = filepath.Join(dir, captured)
		}

		// Final paths are printed after the move, so give the filesystem a moment
		var wait time.Duration
		if rank == downloaders.RankFinal {
			wait = consts.FileWaitTimeout
		}
		if err := waitForFile(captured, wait); err == nil {
			if info, err := verifyDownload(captured); err == nil {
				return captured, info.Size()
			}
		}
		logging.W("Captured path %q not found on disk, scanning %q", captured, dir)
	}

	if p, size := newestFile(dir, time.Now().Add(-consts.RecentFileWindow)); p != "" {
		return p, size
	}
	if p, size := newestFile(dir, time.Time{}); p != "" {
		logging.W("No recent file in %q, falling back to newest file %q", dir, p)
		return p, size
	}
	return "", 0
}

// waitForFile polls until the file exists or the timeout passes.
func waitForFile(filePath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := os.Stat(filePath)
		if err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("unexpected error while checking file: %w", err)
		}

		if !time.Now().Before(deadline) {
			return fmt.Errorf("file not ready after %v: %s", timeout, filePath)
		}
		time.Sleep(consts.FileCheckInterval)
	}
}

// verifyDownload checks the file is a non-empty regular file.
func verifyDownload(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file verification failed: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path %q is a directory", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("file is empty: %s", path)
	}
	return info, nil
}

// newestFile returns the most recently modified candidate in dir not older than since.
func newestFile(dir string, since time.Time) (string, int64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.D(1, "Could not scan %q: %v", dir, err)
		return "", 0
	}

	var (
		best     string
		bestSize int64
		bestMod  time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !isCandidate(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		mod := info.ModTime()
		if mod.Before(since) {
			continue
		}
		if best == "" || mod.After(bestMod) {
			best = filepath.Join(dir, e.Name())
			bestSize = info.Size()
			bestMod = mod
		}
	}
	return best, bestSize
}

// isCandidate rejects partial downloads, sidecars and thumbnails.
func isCandidate(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	if slices.Contains(consts.PartialExtensions[:], ext) {
		return false
	}
	if ext == ".json" || ext == ".vtt" || ext == ".srt" {
		return false
	}
	return !downloaders.IsImagePath(name)
}
