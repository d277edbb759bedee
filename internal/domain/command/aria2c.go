package command

// Aria2c as yt-dlp external downloader.
const (
	AriaDownloaderArgsPrefix = "aria2c:"
	AriaFileAllocationNone   = "--file-allocation=none"
	AriaMinSplit1M           = "-k 1M"
)

// Aria2c standalone.
const (
	AriaDir              = "-d"
	AriaOut              = "-o"
	AriaConnections      = "-x"
	AriaSplits           = "-s"
	AriaMinSplit         = "-k"
	AriaContinue         = "--continue=true"
	AriaNoAutoRename     = "--auto-file-renaming=false"
	AriaAllowOverwrite   = "--allow-overwrite=true"
	AriaLog              = "--console-log-level=notice"
	AriaInterval         = "--summary-interval=1"
	AriaNoColor          = "--enable-color=false"
	AriaMaxDownloadLimit = "--max-download-limit="
	AriaAllProxy         = "--all-proxy="
)

// Aria2c defaults.
const (
	AriaDefaultConnections = 16
	AriaDefaultMinSplit    = "1M"
)
