package builder

import (
	"strconv"
	"strings"

	"fetcharr/internal/domain/command"
	"fetcharr/internal/proxy"
)

// LuxDownloadArgs builds the lux argument list for a download request.
//
// Lux has no proxy flag; pass LuxEnv as the command environment.
func LuxDownloadArgs(r Request) []string {
	o := r.Options
	args := make([]string, 0, 12)
	args = append(args, command.LuxOutputDir, r.OutputDir)

	id := strings.TrimSpace(o.FormatID)
	if _, generic := command.LuxGenericFormats[strings.ToLower(id)]; id != "" && !generic {
		args = append(args, command.LuxFormat, id)
	}

	if o.LuxThreads > 0 {
		args = append(args, command.LuxMultiThread, command.LuxThreads, strconv.Itoa(o.LuxThreads))
	}

	if r.CookieFile != "" {
		args = append(args, command.LuxCookie, r.CookieFile)
	}
	return append(args, r.URL)
}

// LuxInfoArgs builds the lux JSON info command, optionally listing a playlist range.
func LuxInfoArgs(r InfoRequest, playlist bool, start, end int) []string {
	args := []string{command.LuxJSON, command.LuxInfo}
	if playlist {
		args = append(args, command.LuxPlaylist)
		if start > 0 && end >= start {
			args = append(args,
				command.LuxStart, strconv.Itoa(start),
				command.LuxEnd, strconv.Itoa(end))
		}
	}
	if r.CookieFile != "" {
		args = append(args, command.LuxCookie, r.CookieFile)
	}
	return append(args, r.URL)
}

// LuxEnv returns the proxy environment for a lux invocation.
func LuxEnv(proxyURL string) []string {
	return proxy.Env(proxyURL)
}

// LuxBin returns the lux binary for the request.
func LuxBin(bin string) string {
	return binOr(bin, command.Lux)
}
