package cfg

import (
	"fetcharr/internal/domain/keys"
	"fetcharr/internal/models"
	"fetcharr/internal/proxy"

	"github.com/spf13/viper"
)

// DownloadOptions builds per-request options from the resolved settings.
func DownloadOptions() models.DownloadOptions {
	return models.DownloadOptions{
		OutputDir:          viper.GetString(keys.OutputDir),
		Quality:            viper.GetString(keys.Quality),
		AudioQuality:       viper.GetString(keys.AudioQuality),
		Mode:               viper.GetString(keys.Mode),
		FormatID:           viper.GetString(keys.FormatID),
		Backend:            viper.GetString(keys.Backend),
		AudioFormat:        viper.GetString(keys.AudioFormat),
		Remux:              viper.GetBool(keys.Remux),
		ConvertMP4:         viper.GetBool(keys.ConvertMP4),
		SpeedLimit:         viper.GetString(keys.SpeedLimit),
		Accelerate:         viper.GetBool(keys.Accelerate),
		AriaConnections:    viper.GetInt(keys.AriaConnections),
		CookiesFromBrowser: viper.GetString(keys.CookieSource),
		CookieFile:         viper.GetString(keys.CookiePath),
		Proxy: proxy.Config{
			Mode:      viper.GetString(keys.ProxyMode),
			CustomURL: viper.GetString(keys.ProxyURL),
			Fallback:  viper.GetBool(keys.ProxyFallback),
		},
		EmbedChapters:  viper.GetBool(keys.EmbedChapters),
		EmbedSubs:      viper.GetBool(keys.EmbedSubs),
		SubLangs:       viper.GetString(keys.SubLangs),
		EmbedThumbnail: viper.GetBool(keys.EmbedThumbnail),
		NoMetadata:     viper.GetBool(keys.NoMetadata),
		SponsorBlock:   viper.GetBool(keys.SponsorBlock),
		PlaylistTitle:  viper.GetString(keys.PlaylistFolder),
		YouTubeClient:  viper.GetString(keys.YouTubeClient),
		LuxThreads:     viper.GetInt(keys.LuxThreads),
		AllowPlaylist:  viper.GetBool(keys.AllowPlaylist),
	}
}
