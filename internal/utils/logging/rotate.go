package logging

import (
	"fmt"
	"os"
)

const (
	maxLogBytes   = 1 << 20
	maxLogBackups = 3
)

// rotate shifts fetcharr.log -> fetcharr.log.1 -> ... once the file exceeds maxLogBytes.
func rotate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat log file %q: %w", path, err)
	}
	if info.Size() < maxLogBytes {
		return nil
	}

	for i := maxLogBackups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", path, i)
		if _, err := os.Stat(src); err == nil {
			if err := os.Rename(src, fmt.Sprintf("%s.%d", path, i+1)); err != nil {
				return fmt.Errorf("failed to rotate %q: %w", src, err)
			}
		}
	}
	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("failed to rotate %q: %w", path, err)
	}
	return nil
}
