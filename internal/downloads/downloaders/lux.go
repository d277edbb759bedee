package downloaders

import (
	"strings"

	"fetcharr/internal/domain/regex"
)

var luxHeaders = [...]string{"Site:", "Title:", "Type:", "Stream:", "Quality:", "Size:", "#"}

// ParseLux parses one line of lux output.
func ParseLux(line string) Line {
	var l Line
	line = strings.TrimSpace(line)
	if line == "" {
		return l
	}

	if m := regex.LuxSaved.FindStringSubmatch(line); m != nil {
		return l.withPath(m[1], RankFinal)
	}
	if m := regex.LuxExists.FindStringSubmatch(line); m != nil {
		l = l.withPath(m[1], RankFinal)
		return l.withPercent("100")
	}

	// Info header fields can carry a literal '%' in titles
	for _, h := range luxHeaders {
		if strings.HasPrefix(line, h) {
			return l
		}
	}

	if m := regex.LuxProgress.FindStringSubmatch(line); m != nil {
		l = l.withPercent(m[1])
		if s := regex.LuxSpeed.FindStringSubmatch(line); s != nil {
			l.Speed = s[1]
		}
	}
	return l
}
