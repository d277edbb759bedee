package builder

import (
	"strconv"

	"fetcharr/internal/domain/command"
)

// Aria2Args builds the standalone aria2c argument list for a direct file download.
func Aria2Args(r Request, filename string) []string {
	o := r.Options
	conns := strconv.Itoa(clampInt(o.AriaConnections, command.AriaDefaultConnections, 1, 16))

	args := make([]string, 0, 20)
	args = append(args, r.URL,
		command.AriaDir, r.OutputDir,
		command.AriaOut, filename,
		command.AriaConnections, conns,
		command.AriaSplits, conns,
		command.AriaMinSplit, command.AriaDefaultMinSplit,
		command.AriaContinue,
		command.AriaNoAutoRename,
		command.AriaAllowOverwrite,
		command.AriaInterval,
		command.AriaLog,
		command.AriaNoColor)

	if limit := RateLimit(o.SpeedLimit); limit != "" {
		args = append(args, command.AriaMaxDownloadLimit+limit)
	}
	if r.ProxyURL != "" {
		args = append(args, command.AriaAllProxy+r.ProxyURL)
	}
	return args
}

// Aria2Bin returns the aria2c binary for the request.
func Aria2Bin(bin string) string {
	return binOr(bin, command.Aria2c)
}
