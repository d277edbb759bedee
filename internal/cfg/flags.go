package cfg

import (
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/domain/keys"
	"fetcharr/internal/domain/paths"
	"fetcharr/internal/proxy"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds every flag in the set to its viper key of the same name.
func bindFlags(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = viper.BindPFlag(f.Name, f)
	})
	return err
}

// Program
// initProgramFlags initializes user flag settings related to the core program. E.g. logging level.
func initProgramFlags(rootCmd *cobra.Command) error {
	pf := rootCmd.PersistentFlags()

	pf.String(keys.ConfigFile, "", "Config file to load (any format viper reads: yaml, toml, json...)")
	pf.IntP(keys.DebugLevel, "d", 0, "Debug level (0-5)")
	pf.Bool(keys.LogJSON, false, "Write logs to the console as JSON lines")
	pf.IntP(keys.Concurrency, "l", consts.DefaultConcurrency, "Maximum concurrent downloads")
	pf.String(keys.BinDir, paths.BinDir, "Directory searched for yt-dlp, lux, aria2c and ffmpeg before PATH")
	pf.Bool(keys.ScrapeThumbnails, true, "Scrape the page for a thumbnail when the downloader reports none")
	pf.StringSlice(keys.NotifyURLs, nil, "Webhook URLs notified when downloads finish")

	return bindFlags(pf)
}

// Downloads
// initDownloadFlags initializes the per-download option defaults.
func initDownloadFlags(rootCmd *cobra.Command) error {
	pf := rootCmd.PersistentFlags()

	pf.StringP(keys.OutputDir, "o", paths.DownloadDir, "Directory downloads are written to")
	pf.StringP(keys.Quality, "q", consts.QualityBest, "Video quality (best, max, 4k, 1080p, 720p...)")
	pf.String(keys.AudioQuality, "", "Audio bitrate in kbps for audio mode (320, 256, 192, 128, 96)")
	pf.StringP(keys.Mode, "m", consts.ModeVideo, "Download mode (video, audio, mute)")
	pf.String(keys.FormatID, "", "Exact yt-dlp format ID, overriding quality")
	pf.String(keys.Backend, "", "Force a backend (yt-dlp, lux, direct)")
	pf.String(keys.AudioFormat, "", "Audio container for audio mode (mp3, m4a, opus...)")
	pf.Bool(keys.Remux, false, "Remux the merged output")
	pf.Bool(keys.ConvertMP4, false, "Convert the output to mp4")
	pf.String(keys.SpeedLimit, "", "Download speed limit, e.g. 2M")
	pf.Bool(keys.Accelerate, false, "Use aria2c as an external downloader when available")
	pf.Int(keys.AriaConnections, 0, "aria2c connections per server")
	pf.Bool(keys.EmbedChapters, false, "Embed chapter markers")
	pf.Bool(keys.EmbedSubs, false, "Embed subtitles")
	pf.String(keys.SubLangs, "", "Subtitle languages to embed, e.g. en,ja")
	pf.Bool(keys.EmbedThumbnail, false, "Embed the thumbnail as cover art")
	pf.Bool(keys.NoMetadata, false, "Skip embedding metadata")
	pf.Bool(keys.SponsorBlock, false, "Remove SponsorBlock segments")
	pf.String(keys.PlaylistFolder, "", "Subfolder name for playlist downloads")
	pf.String(keys.YouTubeClient, "", "yt-dlp YouTube player client, e.g. android")
	pf.Int(keys.LuxThreads, 0, "lux download threads")
	pf.Bool(keys.AllowPlaylist, false, "Download the whole playlist when the URL names one")

	// Auth
	pf.String(keys.CookieSource, "", "Browser to read cookies from (chrome, firefox, edge, safari...)")
	pf.String(keys.CookiePath, "", "Netscape cookie file to pass to the downloader")

	return bindFlags(pf)
}

// Proxy
// initProxyFlags initializes proxy selection flags.
func initProxyFlags(rootCmd *cobra.Command) error {
	pf := rootCmd.PersistentFlags()

	pf.String(keys.ProxyMode, proxy.ModeSystem, "Proxy mode (none, system, custom)")
	pf.String(keys.ProxyURL, "", "Proxy URL for custom mode, e.g. socks5://127.0.0.1:1080")
	pf.Bool(keys.ProxyFallback, true, "Retry lux through a direct connection when the proxy fails")

	return bindFlags(pf)
}
