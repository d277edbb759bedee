// Package downloaders holds logic specific to external downloaders.
package downloaders

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fetcharr/internal/domain/consts"
)

// Path capture ranks. A higher rank replaces a lower one.
const (
	RankNone = iota
	RankDestination
	RankPostProcess
	RankFinal
)

// Line is what a parser extracted from one line of downloader output.
type Line struct {
	Percent    float64
	HasPercent bool
	Speed      string
	ETA        string
	ETASeconds int
	Downloaded uint64
	Total      uint64

	Path     string
	PathRank int

	// Stage is the post-processor name when the line belongs to a processing phase.
	Stage       string
	PostProcess bool
}

// Parser extracts progress and destination data from a single output line.
type Parser func(line string) Line

// IsImagePath reports whether p points at a thumbnail rather than media.
func IsImagePath(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, img := range consts.ImageExtensions {
		if ext == img {
			return true
		}
	}
	return false
}

// withPath sets the captured path unless it is empty or an image.
func (l Line) withPath(p string, rank int) Line {
	p = strings.TrimSpace(strings.Trim(strings.TrimSpace(p), `"`))
	if p == "" || IsImagePath(p) {
		return l
	}
	l.Path = p
	l.PathRank = rank
	return l
}

// withPercent sets the percentage from a numeric string.
func (l Line) withPercent(s string) Line {
	pct, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return l
	}
	l.Percent = max(0, min(pct, 100))
	l.HasPercent = true
	return l
}

// ParseETA converts "01:02:03", "02:03", "4m51s" or "12s" into seconds; unknown yields -1.
func ParseETA(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "unknown") || s == "NA" {
		return -1
	}

	if strings.Contains(s, ":") {
		total := 0
		for _, part := range strings.Split(s, ":") {
			n, err := strconv.Atoi(part)
			if err != nil {
				return -1
			}
			total = total*60 + n
		}
		return total
	}

	if d, err := time.ParseDuration(s); err == nil {
		return int(d.Seconds())
	}
	return -1
}
