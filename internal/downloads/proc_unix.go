//go:build unix

package downloads

import (
	"os/exec"
	"syscall"

	"fetcharr/internal/utils/logging"
)

// setProcessGroup puts cmd in its own group so cancellation also reaps children like aria2c and ffmpeg.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			logging.E("Failed to kill process group %d: %v", cmd.Process.Pid, err)
			return cmd.Process.Kill()
		}
		return nil
	}
}
