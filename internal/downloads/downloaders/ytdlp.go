package downloaders

import (
	"strings"

	"fetcharr/internal/domain/command"
	"fetcharr/internal/domain/regex"
)

// ParseYtdlp parses one line of yt-dlp output.
func ParseYtdlp(line string) Line {
	var l Line
	line = strings.TrimSpace(line)
	if line == "" {
		return l
	}

	// Final path from --print after_move
	if rest, ok := strings.CutPrefix(line, command.FilepathMarker); ok {
		return l.withPath(rest, RankFinal)
	}

	if m := regex.TemplateProgress.FindStringSubmatch(line); m != nil {
		l = l.withPercent(m[1])
		l.Speed = cleanField(m[2])
		l.ETA = cleanField(m[3])
		l.ETASeconds = ParseETA(l.ETA)
		return l
	}

	if m := regex.DownloadProgress.FindStringSubmatch(line); m != nil {
		l = l.withPercent(m[1])
		l.Speed = cleanField(m[2])
		l.ETA = cleanField(m[3])
		l.ETASeconds = ParseETA(l.ETA)
		return l
	}

	if m := regex.Destination.FindStringSubmatch(line); m != nil {
		return l.withPath(m[1], RankDestination)
	}

	if m := regex.AlreadyDownloaded.FindStringSubmatch(line); m != nil {
		l = l.withPath(m[1], RankPostProcess)
		return l.withPercent("100")
	}

	if m := regex.PostProcessor.FindStringSubmatch(line); m != nil {
		l.Stage = m[1]
		l.PostProcess = true

		if pm := regex.Merger.FindStringSubmatch(line); pm != nil {
			return l.withPath(pm[1], RankPostProcess)
		}
		if pm := regex.ExtractAudio.FindStringSubmatch(line); pm != nil {
			return l.withPath(pm[1], RankPostProcess)
		}
		if pm := regex.ConvertDestination.FindStringSubmatch(line); pm != nil {
			return l.withPath(pm[1], RankPostProcess)
		}
	}
	return l
}

// cleanField drops yt-dlp's placeholder values.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	switch s {
	case "NA", "N/A", "Unknown":
		return ""
	}
	return s
}
