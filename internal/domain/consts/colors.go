package consts

// Colors
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[91m"
	ColorGreen  = "\033[92m"
	ColorYellow = "\033[93m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[96m"
	ColorDim    = "\033[2m"
)

// Status coloring for terminal progress lines.
var StateColors = map[DownloadState]string{
	StateIdle:        ColorDim,
	StateDownloading: ColorCyan,
	StateProcessing:  ColorPurple,
	StateCompleted:   ColorGreen,
	StateFailed:      ColorRed,
	StateCancelled:   ColorYellow,
}
