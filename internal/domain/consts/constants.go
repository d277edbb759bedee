// Package consts holds various global, unchanging values.
package consts

// Program identity.
const (
	ProgramName    = "Fetcharr"
	ProgramVersion = "0.4.0"
	DefaultPort    = "8827"
)

// Temporary and sidecar extensions skipped when looking for a finished file.
var PartialExtensions = [...]string{".part", ".ytdl", ".aria2", ".temp", ".tmp"}

// ImageExtensions are thumbnail outputs, never the downloaded media itself.
var ImageExtensions = [...]string{".png", ".jpg", ".jpeg", ".webp"}

// AllVidExtensions is a list of video file extensions.
var AllVidExtensions = [...]string{".3gp", ".avi", ".f4v", ".flv", ".m4v", ".mkv",
	".mov", ".mp4", ".mpeg", ".mpg", ".ogm", ".ogv",
	".ts", ".vob", ".webm", ".wmv"}

// AllAudioExtensions is a list of audio file extensions.
var AllAudioExtensions = [...]string{".aac", ".aiff", ".alac", ".flac", ".m4a", ".mka",
	".mp3", ".ogg", ".opus", ".wav", ".wma"}

// Quality presets accepted by the format selector.
var VideoQualities = map[string]int{
	"4k":    2160,
	"2160p": 2160,
	"1440p": 1440,
	"1080p": 1080,
	"720p":  720,
	"480p":  480,
	"360p":  360,
	"240p":  240,
}

// AudioBitrates accepted by the audio format selector.
var AudioBitrates = [...]string{"320", "256", "192", "128", "96"}

// CookieBrowsers are the browser names yt-dlp accepts for --cookies-from-browser.
var CookieBrowsers = [...]string{"brave", "chrome", "chromium", "edge", "firefox", "opera", "safari", "vivaldi", "whale"}

// Download modes.
const (
	ModeVideo = "video"
	ModeAudio = "audio"
	ModeMute  = "mute"
)

// Quality sentinels.
const (
	QualityMax  = "max"
	QualityBest = "best"
)
