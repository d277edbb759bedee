// Package regex compiles and caches various regex expressions.
package regex

import (
	"regexp"
)

// Terminal and text cleanup.
var (
	AnsiEscape   = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)
	ExtraSpaces  = regexp.MustCompile(`\s+`)
	InvalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
)

// yt-dlp output.
var (
	// "[progress]  42.0% 1.20MiB/s 00:31" from the injected progress template.
	TemplateProgress = regexp.MustCompile(`^\[progress\]\s+([\d.]+)%\s*(\S*)\s*(\S*)`)
	// "[download]  42.0% of ~ 10.00MiB at 1.20MiB/s ETA 00:31"
	DownloadProgress  = regexp.MustCompile(`^\[download\]\s+([\d.]+)%(?:\s+of\s+~?\s*[\d.]+\s*\w+)?(?:\s+at\s+(\S+))?(?:\s+ETA\s+([\d:]+|Unknown))?`)
	Destination       = regexp.MustCompile(`^\[download\]\s+Destination:\s+(.+)$`)
	Merger            = regexp.MustCompile(`^\[Merger\]\s+Merging formats into "(.+)"$`)
	ExtractAudio      = regexp.MustCompile(`^\[ExtractAudio\]\s+Destination:\s+(.+)$`)
	AlreadyDownloaded = regexp.MustCompile(`^\[download\]\s+(.+?)\s+has already been downloaded`)
	PostProcessor     = regexp.MustCompile(`^\[(Merger|ExtractAudio|VideoRemuxer|VideoConvertor|FixupM3u8|FixupM4a|FixupStretched|FixupDuplicateMoov|EmbedSubtitle|Metadata|SponsorBlock|ModifyChapters|EmbedThumbnail|ThumbnailsConvertor|MoveFiles)\]`)
	// "[remuxer] Remuxing video from webm to mp4; Destination: /x/y.mp4"
	ConvertDestination = regexp.MustCompile(`^\[(?:VideoRemuxer|VideoConvertor)\].*Destination:\s+(.+)$`)
)

// Lux output.
var (
	LuxProgress = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
	LuxSpeed    = regexp.MustCompile(`(\d+(?:\.\d+)?\s?[KMG]?i?B/s)`)
	LuxSaved    = regexp.MustCompile(`(?:File saved|Saved to):\s*(.+)$`)
	LuxExists   = regexp.MustCompile(`^(.+?):\s*file already exists`)
)

// Aria2c output.
var (
	// "[#2089b0 400.0KiB/33.2MiB(1%) CN:1 DL:115.7KiB ETA:4m51s]"
	AriaProgress = regexp.MustCompile(`\((\d+)%\)`)
	AriaSizes    = regexp.MustCompile(`([\d.]+[KMG]?i?B)/([\d.]+[KMG]?i?B)`)
	AriaSpeed    = regexp.MustCompile(`DL:([\d.]+[KMG]?i?B)`)
	AriaETA      = regexp.MustCompile(`ETA:(\w+)`)
	AriaComplete = regexp.MustCompile(`Download complete:\s+(.+)$`)
)

// HTTP headers.
var (
	DispositionFilename = regexp.MustCompile(`(?i)filename\*?\s*=\s*(?:UTF-8'')?"?([^";]+)"?`)
)
