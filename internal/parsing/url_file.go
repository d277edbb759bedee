package parsing

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"fetcharr/internal/utils/logging"
)

// URLFileParser reads download URLs from a batch file.
type URLFileParser struct {
	Filepath string
}

// NewURLFileParser returns an instance of a URLFileParser.
func NewURLFileParser(fpath string) *URLFileParser {
	return &URLFileParser{
		Filepath: fpath,
	}
}

// ParseURLs returns the cleaned, de-duplicated URLs from the file in file order.
//
// One URL per line; lines starting with '#' are comments.
func (up *URLFileParser) ParseURLs() ([]string, error) {
	f, err := os.Open(up.Filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file %q: %w", up.Filepath, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.E("Failed to close file %q: %v", up.Filepath, err)
		}
	}()

	seen := make(map[string]struct{})
	var result []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		u := strings.TrimSpace(scanner.Text())
		if u == "" || strings.HasPrefix(u, "#") {
			continue
		}

		parsedURL, err := url.Parse(u)
		if err != nil || parsedURL.Host == "" {
			logging.E("URL %q is invalid: %v", u, err)
			continue
		}

		cleaned := CleanURL(u)
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		result = append(result, cleaned)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading URL file %q: %w", up.Filepath, err)
	}
	return result, nil
}
