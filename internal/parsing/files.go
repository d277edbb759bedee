package parsing

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"fetcharr/internal/domain/regex"

	"golang.org/x/text/unicode/norm"
)

const (
	defaultFilename       = "download"
	defaultPlaylistFolder = "Playlist"
	maxFolderRunes        = 100
)

// directFileExtensions are extensions served as plain files rather than pages.
var directFileExtensions = map[string]struct{}{
	// Archives
	".zip": {}, ".rar": {}, ".7z": {}, ".tar": {}, ".gz": {}, ".tgz": {}, ".bz2": {}, ".xz": {}, ".zst": {},
	// Installers and images
	".exe": {}, ".msi": {}, ".msix": {}, ".dmg": {}, ".pkg": {}, ".deb": {}, ".rpm": {},
	".apk": {}, ".aab": {}, ".appimage": {}, ".iso": {}, ".img": {}, ".bin": {}, ".jar": {},
	// Documents
	".pdf": {}, ".epub": {}, ".mobi": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".ppt": {}, ".pptx": {}, ".csv": {}, ".txt": {}, ".torrent": {},
	// Media containers
	".mp4": {}, ".mkv": {}, ".webm": {}, ".mov": {}, ".avi": {}, ".flv": {}, ".m4v": {},
	".mp3": {}, ".m4a": {}, ".flac": {}, ".wav": {}, ".ogg": {}, ".opus": {}, ".aac": {},
	// Fonts
	".ttf": {}, ".otf": {}, ".woff": {}, ".woff2": {},
}

// dispositionParams may carry the served filename in the query string.
var dispositionParams = [...]string{"response-content-disposition", "filename", "file", "name", "download"}

// IsDirectFileURL returns the filename when the URL names a known file type.
//
// The last path segment is checked first, then content-disposition style query parameters.
func IsDirectFileURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}

	if seg := lastSegment(u.Path); hasDirectExt(seg) {
		return seg, true
	}

	q := u.Query()
	for _, p := range dispositionParams {
		v := q.Get(p)
		if v == "" {
			continue
		}
		if m := regex.DispositionFilename.FindStringSubmatch(v); m != nil {
			v = m[1]
		}
		name := path.Base(strings.Trim(v, `"' `))
		if dec, err := url.PathUnescape(name); err == nil {
			name = dec
		}
		if hasDirectExt(name) {
			return name, true
		}
	}
	return "", false
}

func hasDirectExt(name string) bool {
	if name == "" || name == "." || name == "/" {
		return false
	}
	_, ok := directFileExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FilenameFromHeaders picks a filename from Content-Disposition, then the URL path.
func FilenameFromHeaders(contentDisposition, rawURL string) string {
	if m := regex.DispositionFilename.FindStringSubmatch(contentDisposition); m != nil {
		name := strings.Trim(m[1], `"' `)
		if dec, err := url.PathUnescape(name); err == nil {
			name = dec
		}
		if name = path.Base(name); name != "" && name != "." && name != "/" {
			return name
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		if seg := lastSegment(u.Path); strings.Contains(seg, ".") {
			if dec, err := url.PathUnescape(seg); err == nil {
				return dec
			}
			return seg
		}
	}
	return defaultFilename
}

// SanitizeFilename keeps ASCII alphanumerics and ".-_ ", replacing everything else with "_".
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_', r == ' ':
			return r
		}
		return '_'
	}, name)
}

// PlaylistFolderName turns a playlist title into a safe directory name.
func PlaylistFolderName(title string) string {
	name := norm.NFC.String(title)
	name = regex.InvalidChars.ReplaceAllString(name, "_")
	name = regex.ExtraSpaces.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if utf8.RuneCountInString(name) > maxFolderRunes {
		name = string([]rune(name)[:maxFolderRunes])
	}
	name = strings.TrimRight(name, ". ")

	if name == "" {
		return defaultPlaylistFolder
	}
	return name
}
