// Package deps locates the external binaries and reports their versions.
package deps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"fetcharr/internal/domain/command"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/models"
	"fetcharr/internal/utils/logging"
)

// ErrUnknown is returned for names outside the managed set.
var ErrUnknown = errors.New("unknown dependency")

// versionFlags maps each managed binary to the flag printing its version.
var versionFlags = map[string]string{
	command.YTDLP:  command.Version,
	command.Lux:    command.LuxVersion,
	command.Aria2c: command.Version,
	command.FFmpeg: "-version",
}

// Names lists the managed binaries in display order.
var Names = []string{command.YTDLP, command.Lux, command.Aria2c, command.FFmpeg}

// Locate finds name in binDir first, then on PATH.
func Locate(name, binDir string) (string, error) {
	if binDir != "" {
		candidate := filepath.Join(binDir, name)
		if runtime.GOOS == "windows" {
			candidate += ".exe"
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && isExecutable(info) {
			return candidate, nil
		}
	}
	return exec.LookPath(name)
}

// Check locates name and runs its version flag.
//
// A binary that exists but fails to report a version is still installed.
func Check(ctx context.Context, name, binDir string) (models.DependencyStatus, error) {
	status := models.DependencyStatus{Name: name}

	flag, ok := versionFlags[name]
	if !ok {
		return status, fmt.Errorf("%w: %q", ErrUnknown, name)
	}

	path, err := Locate(name, binDir)
	if err != nil {
		logging.D(1, "%s not found: %v", name, err)
		return status, nil
	}
	status.Installed = true
	status.Path = path

	ctx, cancel := context.WithTimeout(ctx, consts.VersionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, flag).Output()
	if err != nil {
		logging.W("Could not read %s version from %q: %v", name, path, err)
		return status, nil
	}
	status.Version = parseVersion(string(out))
	logging.D(1, "Found %s %s at %q", name, status.Version, path)
	return status, nil
}

// CheckAll checks every managed binary concurrently. Results keep the order of Names.
func CheckAll(ctx context.Context, binDir string) []models.DependencyStatus {
	out := make([]models.DependencyStatus, len(Names))

	var wg sync.WaitGroup
	for i, name := range Names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := Check(ctx, name, binDir)
			if err != nil {
				logging.E("Dependency check failed for %s: %v", name, err)
			}
			out[i] = s
		}()
	}
	wg.Wait()
	return out
}

// Path returns the located binary path, or "" when it is not installed.
func Path(name, binDir string) string {
	p, err := Locate(name, binDir)
	if err != nil {
		return ""
	}
	return p
}

// parseVersion extracts the version token from the first line of version output.
//
// Handles "2024.08.06", "ffmpeg version 6.1 Copyright ..." and "lux: version v0.24.1, A fast ...".
func parseVersion(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	line = strings.TrimSpace(line)

	fields := strings.Fields(line)
	for i, f := range fields {
		if strings.EqualFold(f, "version") && i+1 < len(fields) {
			return strings.TrimRight(fields[i+1], ",")
		}
	}
	return line
}

func isExecutable(info os.FileInfo) bool {
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
