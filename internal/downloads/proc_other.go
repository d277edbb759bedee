//go:build !unix

package downloads

import "os/exec"

// setProcessGroup keeps the default cancel behavior, which kills the direct child only.
func setProcessGroup(*exec.Cmd) {}
