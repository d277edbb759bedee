package parsing

import (
	"fmt"
	"strings"

	"github.com/araddon/dateparse"
)

// HyphenateYyyyMmDd simply hyphenates yyyymmdd date values for display.
func HyphenateYyyyMmDd(d string) string {
	d = strings.ReplaceAll(d, " ", "")
	d = strings.ReplaceAll(d, "-", "")
	if len(d) < 8 {
		return d
	}
	return d[0:4] + "-" + d[4:6] + "-" + d[6:8]
}

// NormalizeDate parses any date yt-dlp or lux may report (e.g. 20240131, Jan 2nd 2006) into YYYY-MM-DD.
func NormalizeDate(dateString string) (string, error) {
	dateString = strings.TrimSpace(dateString)
	if dateString == "" || dateString == "NA" {
		return "", nil
	}
	if len(dateString) == 8 && isDigits(dateString) {
		return HyphenateYyyyMmDd(dateString), nil
	}

	t, err := dateparse.ParseAny(dateString)
	if err != nil {
		return "", fmt.Errorf("unable to parse date %q: %w", dateString, err)
	}
	return t.Format("2006-01-02"), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
