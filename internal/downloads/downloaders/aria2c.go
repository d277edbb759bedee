package downloaders

import (
	"strings"

	"fetcharr/internal/domain/regex"
	"fetcharr/internal/utils/logging"

	"github.com/dustin/go-humanize"
)

// ParseAria2 parses one line of aria2c console output.
//
// Lines look like "[#2089b0 400.0KiB/33.2MiB(1%) CN:1 DL:115.7KiB ETA:4m51s]".
func ParseAria2(line string) Line {
	var l Line
	line = strings.TrimSpace(line)
	if line == "" {
		return l
	}

	if m := regex.AriaComplete.FindStringSubmatch(line); m != nil {
		l = l.withPath(m[1], RankFinal)
		return l.withPercent("100")
	}

	if m := regex.AriaSizes.FindStringSubmatch(line); m != nil {
		done, errDone := humanize.ParseBytes(m[1])
		total, errTotal := humanize.ParseBytes(m[2])
		if errDone == nil && errTotal == nil {
			l.Downloaded, l.Total = done, total
		} else {
			logging.D(3, "Failed to parse aria2 sizes from line %q", line)
		}
	}

	if m := regex.AriaProgress.FindStringSubmatch(line); m != nil {
		l = l.withPercent(m[1])
	} else if l.Total > 0 {
		l.Percent = float64(l.Downloaded) / float64(l.Total) * 100
		l.HasPercent = true
	}

	if m := regex.AriaSpeed.FindStringSubmatch(line); m != nil {
		l.Speed = m[1] + "/s"
	}
	if m := regex.AriaETA.FindStringSubmatch(line); m != nil {
		l.ETA = m[1]
		l.ETASeconds = ParseETA(m[1])
	}
	return l
}
