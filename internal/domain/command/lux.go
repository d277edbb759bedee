package command

// Lux flags.
const (
	LuxJSON        = "-j"
	LuxInfo        = "-i"
	LuxPlaylist    = "-p"
	LuxStart       = "-start"
	LuxEnd         = "-end"
	LuxOutputDir   = "-o"
	LuxFormat      = "-f"
	LuxMultiThread = "-m"
	LuxThreads     = "-n"
	LuxCookie      = "-c"
	LuxVersion     = "-v"
)

// LuxGenericFormats are selector names lux does not understand as stream ids.
var LuxGenericFormats = map[string]struct{}{
	"default":             {},
	"max":                 {},
	"best":                {},
	"bestvideo+bestaudio": {},
	"bestvideo":           {},
	"bestaudio":           {},
}
