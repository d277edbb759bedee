// Package command holds the flag vocabulary of the external downloader binaries.
package command

// Binaries
const (
	YTDLP   = "yt-dlp"
	Lux     = "lux"
	Aria2c  = "aria2c"
	FFmpeg  = "ffmpeg"
	Version = "--version"
)

// General
const (
	AfterMovePrint       = "after_move:" + FilepathMarker + "%(filepath)s"
	CookiesFromBrowser   = "--cookies-from-browser"
	CookiePath           = "--cookies"
	Downloader           = "--downloader"
	DownloaderArgs       = "--downloader-args"
	Encoding             = "--encoding"
	EncodingUTF8         = "utf-8"
	ExtractorArgs        = "--extractor-args"
	FilenameSyntax       = "%(title)s.%(ext)s"
	Format               = "-f"
	FormatSort           = "--format-sort"
	FormatSortH264       = "vcodec:h264,acodec:aac"
	LimitRate            = "--limit-rate"
	NoPlaylist           = "--no-playlist"
	Output               = "-o"
	Print                = "--print"
	Proxy                = "--proxy"
	RecodeVideo          = "--recode-video"
	RemuxVideo           = "--remux-video"
	YtDLPOutputExtension = "--merge-output-format"
)

// Audio only
const (
	ExtractAudio = "-x"
	AudioFormat  = "--audio-format"
	AudioQuality = "--audio-quality"
)

// Embedding and post-processing
const (
	EmbedChapters     = "--embed-chapters"
	EmbedSubs         = "--embed-subs"
	EmbedThumbnail    = "--embed-thumbnail"
	NoEmbedMetadata   = "--no-embed-metadata"
	SubLangs          = "--sub-langs"
	SponsorBlockStrip = "--sponsorblock-remove"
	SponsorBlockAll   = "default"
)

// Progress reporting
const (
	Newline          = "--newline"
	Progress         = "--progress"
	ProgressTemplate = "--progress-template"
	// ProgressTemplateValue produces lines like "[progress]  42.0% 1.20MiB/s 00:31".
	ProgressTemplateValue = "download:" + ProgressMarker + "%(progress._percent_str)s %(progress._speed_str)s %(progress._eta_str)s"
)

// Output markers Fetcharr injects into yt-dlp output.
const (
	FilepathMarker = ">>>FILEPATH:"
	ProgressMarker = "[progress] "
)

// Scrape
const (
	DumpJSON          = "--dump-json"
	NoDownload        = "--no-download"
	YtDLPFlatPlaylist = "--flat-playlist"
	PlaylistItems     = "--playlist-items"
)

// YouTube player clients.
const (
	YouTubeClientsDownload = "youtube:player_client=tv,mweb,android_sdkless,web"
	YouTubeClientInfo      = "android_sdkless"
)
