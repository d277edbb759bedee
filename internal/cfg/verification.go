package cfg

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"fetcharr/internal/backends"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/domain/keys"
	"fetcharr/internal/proxy"
	"fetcharr/internal/utils/logging"

	"github.com/spf13/viper"
)

// verify checks and normalizes the resolved settings.
func verify() error {
	verifyDebugLevel()
	verifyConcurrencyLimit()

	return errors.Join(
		verifyMode(),
		verifyQuality(),
		verifyAudioQuality(),
		verifyBackend(),
		verifyCookieBrowser(),
		verifyProxy(),
	)
}

// verifyDebugLevel clamps the debug level to 0..5 and applies it.
func verifyDebugLevel() {
	level := viper.GetInt(keys.DebugLevel)
	switch {
	case level < 0:
		level = 0
	case level > 5:
		level = 5
	}
	viper.Set(keys.DebugLevel, level)
	logging.Level = level
}

// verifyConcurrencyLimit checks and ensures correct concurrency limit input.
func verifyConcurrencyLimit() {
	maxConcurrent := viper.GetInt(keys.Concurrency)

	switch {
	case maxConcurrent < 1:
		maxConcurrent = 1
		logging.W("Max concurrency set too low, set to minimum value: %d", maxConcurrent)
	case maxConcurrent > consts.MaxConcurrency:
		maxConcurrent = consts.MaxConcurrency
		logging.W("Max concurrency set too high, set to maximum value: %d", maxConcurrent)
	default:
		logging.D(1, "Max concurrency: %d", maxConcurrent)
	}
	viper.Set(keys.Concurrency, maxConcurrent)
}

// verifyMode lowercases the download mode.
func verifyMode() error {
	mode := strings.ToLower(strings.TrimSpace(viper.GetString(keys.Mode)))
	if mode == "" {
		mode = consts.ModeVideo
	}
	switch mode {
	case consts.ModeVideo, consts.ModeAudio, consts.ModeMute:
		viper.Set(keys.Mode, mode)
		return nil
	}
	return fmt.Errorf("invalid mode %q, must be one of %s, %s or %s", mode, consts.ModeVideo, consts.ModeAudio, consts.ModeMute)
}

// verifyQuality accepts the named presets and bare heights like "1080".
func verifyQuality() error {
	q := strings.ToLower(strings.TrimSpace(viper.GetString(keys.Quality)))
	if q == "" || q == consts.QualityBest || q == consts.QualityMax {
		viper.Set(keys.Quality, q)
		return nil
	}
	if _, ok := consts.VideoQualities[q]; ok {
		viper.Set(keys.Quality, q)
		return nil
	}
	if _, ok := consts.VideoQualities[q+"p"]; ok {
		viper.Set(keys.Quality, q+"p")
		return nil
	}
	return fmt.Errorf("invalid quality %q", q)
}

// verifyAudioQuality checks the audio bitrate against the accepted list.
func verifyAudioQuality() error {
	aq := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(viper.GetString(keys.AudioQuality))), "k")
	if aq == "" {
		return nil
	}
	if !slices.Contains(consts.AudioBitrates[:], aq) {
		return fmt.Errorf("invalid audio quality %q, must be one of %v", aq, consts.AudioBitrates)
	}
	viper.Set(keys.AudioQuality, aq)
	return nil
}

// verifyBackend rejects unknown forced backends.
func verifyBackend() error {
	b := viper.GetString(keys.Backend)
	if b == "" || strings.EqualFold(b, string(backends.Auto)) {
		return nil
	}
	if backends.ParseKind(b) == backends.Auto {
		return fmt.Errorf("invalid backend %q", b)
	}
	return nil
}

// verifyCookieBrowser checks the browser name against those yt-dlp can read.
//
// A "browser:profile" suffix is allowed.
func verifyCookieBrowser() error {
	raw := strings.ToLower(strings.TrimSpace(viper.GetString(keys.CookieSource)))
	if raw == "" {
		return nil
	}
	name, _, _ := strings.Cut(raw, ":")
	if !slices.Contains(consts.CookieBrowsers[:], name) {
		return fmt.Errorf("invalid browser %q, must be one of %v", name, consts.CookieBrowsers)
	}
	viper.Set(keys.CookieSource, raw)
	return nil
}

// verifyProxy checks the proxy mode and, for custom mode, the URL.
//
// A proxy URL given without a mode implies custom mode.
func verifyProxy() error {
	mode := strings.ToLower(strings.TrimSpace(viper.GetString(keys.ProxyMode)))
	rawURL := strings.TrimSpace(viper.GetString(keys.ProxyURL))

	if rawURL != "" && (mode == "" || !viper.IsSet(keys.ProxyMode)) {
		mode = proxy.ModeCustom
	}
	if mode == "" {
		mode = proxy.ModeSystem
	}
	viper.Set(keys.ProxyMode, mode)

	switch mode {
	case proxy.ModeNone, proxy.ModeSystem:
		return nil
	case proxy.ModeCustom:
		if err := proxy.Validate(rawURL); err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("invalid proxy mode %q, must be one of %s, %s or %s", mode, proxy.ModeNone, proxy.ModeSystem, proxy.ModeCustom)
}
