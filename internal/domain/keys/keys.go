// Package keys holds the viper configuration keys.
package keys

// Program
const (
	ConfigFile  string = "config"
	DebugLevel  string = "debug"
	Concurrency string = "concurrency"
	BinDir      string = "bin-dir"
	LogJSON     string = "log-json"
)

// Download options
const (
	OutputDir        string = "output-dir"
	Quality          string = "quality"
	AudioQuality     string = "audio-quality"
	Mode             string = "mode"
	FormatID         string = "format-id"
	Backend          string = "backend"
	Remux            string = "remux"
	ConvertMP4       string = "convert-mp4"
	AudioFormat      string = "audio-format"
	SpeedLimit       string = "speed-limit"
	Accelerate       string = "accelerate"
	AriaConnections  string = "aria-connections"
	EmbedChapters    string = "embed-chapters"
	EmbedSubs        string = "embed-subs"
	SubLangs         string = "sub-langs"
	EmbedThumbnail   string = "embed-thumbnail"
	NoMetadata       string = "no-metadata"
	SponsorBlock     string = "sponsorblock"
	PlaylistFolder   string = "playlist-folder"
	YouTubeClient    string = "youtube-client"
	LuxThreads       string = "lux-threads"
	AllowPlaylist    string = "allow-playlist"
	PlaylistOffset   string = "offset"
	PlaylistLimit    string = "limit"
	HistoryLimit     string = "history-limit"
	DeleteHistoryID  string = "delete"
	ClearHistory     string = "clear"
	ScrapeThumbnails string = "scrape-thumbnails"
)

// Auth
const (
	CookieSource string = "cookies-from-browser"
	CookiePath   string = "cookies"
)

// Proxy
const (
	ProxyMode     string = "proxy-mode"
	ProxyURL      string = "proxy"
	ProxyFallback string = "proxy-fallback"
)

// Notifications
const (
	NotifyURLs string = "notify"
)

// Web server
const (
	ServerHost string = "host"
	ServerPort string = "port"
)
