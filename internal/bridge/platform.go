package bridge

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Desktop helper commands.
const (
	openCmd     = "open"
	explorerCmd = "explorer"
	xdgOpenCmd  = "xdg-open"
	cmdCmd      = "cmd"

	macRevealFlag      = "-R"
	windowsSelectParam = "/select,"
)

// openCommand returns the command opening path with its default application.
func openCommand(path string) (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return openCmd, []string{path}
	case "windows":
		return cmdCmd, []string{"/c", "start", "", path}
	default:
		return xdgOpenCmd, []string{path}
	}
}

// revealCommand returns the command showing path in the file manager.
//
// Selection is not standardized on Linux, so the parent directory is opened instead.
func revealCommand(path string) (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return openCmd, []string{macRevealFlag, path}
	case "windows":
		return explorerCmd, []string{windowsSelectParam + path}
	default:
		return xdgOpenCmd, []string{filepath.Dir(path)}
	}
}

func runOpener(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
