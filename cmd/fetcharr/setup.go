package main

import (
	"context"
	"fmt"
	"os"

	"fetcharr/internal/bridge"
	"fetcharr/internal/cfg"
	"fetcharr/internal/cookies"
	"fetcharr/internal/database"
	"fetcharr/internal/deps"
	"fetcharr/internal/domain/command"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/domain/keys"
	"fetcharr/internal/domain/paths"
	"fetcharr/internal/downloads"
	"fetcharr/internal/metadata"
	"fetcharr/internal/notify"
	"fetcharr/internal/repo"
	"fetcharr/internal/utils/logging"

	"github.com/spf13/viper"
)

// openRuntime sets up the database, stores and download pipeline for the current run.
func openRuntime(ctx context.Context) (*cfg.Runtime, func(), error) {
	if viper.GetBool(keys.LogJSON) {
		logging.SetOutput(os.Stderr, true)
	}

	fmt.Fprintf(os.Stderr, "\nMain %s file/dir locations:\n\nDatabase: %s\nLog file: %s\n\n",
		consts.ProgramName, paths.DBFilePath, paths.LogFilePath)

	// Database & stores
	db, err := database.InitDB(paths.DBFilePath)
	if err != nil {
		return nil, nil, err
	}
	store := repo.InitStores(db.DB)

	if n, err := store.Downloads().MarkInterrupted(ctx); err != nil {
		logging.W("Could not mark interrupted downloads: %v", err)
	} else if n > 0 {
		logging.I("Marked %d downloads from a previous run as interrupted", n)
	}

	// External tools
	binDir := viper.GetString(keys.BinDir)
	bins := downloads.Binaries{
		YtDlp:  deps.Path(command.YTDLP, binDir),
		Lux:    deps.Path(command.Lux, binDir),
		Aria2c: deps.Path(command.Aria2c, binDir),
	}
	if bins.YtDlp == "" {
		logging.W("yt-dlp was not found in %q or PATH, most downloads will fail", binDir)
	}

	cm := cookies.NewManager(paths.CookieDir)

	meta := metadata.New(metadata.Bins{YtDlp: bins.YtDlp, Lux: bins.Lux}, cm)
	meta.ScrapeThumbnails = viper.GetBool(keys.ScrapeThumbnails)

	runCtx, stop := context.WithCancel(ctx)

	// Notifications
	board := notify.NewProgressBoard(runCtx, consts.ProgressThrottle)
	sinks := notify.Multi{board, notify.Log{}}
	if wh := notify.NewWebhook(viper.GetStringSlice(keys.NotifyURLs)); wh != nil {
		sinks = append(sinks, wh)
	}

	m := downloads.NewManager(runCtx, downloads.Config{
		Concurrency: viper.GetInt(keys.Concurrency),
		OutputDir:   viper.GetString(keys.OutputDir),
		Bins:        bins,
		Cookies:     cm,
		Sink:        sinks,
		Status:      store.Downloads(),
		History:     store.History(),
		Info:        meta,
	})

	janitorDone := make(chan struct{})
	go func() {
		startQueueJanitor(runCtx, m)
		close(janitorDone)
	}()

	rt := &cfg.Runtime{
		Downloads: m,
		Meta:      meta,
		Bridge:    bridge.New(m, meta, binDir),
		Cookies:   cm,
		Store:     store,
		Board:     board,
	}

	release := func() {
		defer cleanup()
		m.Close()
		stop()
		<-janitorDone
		if err := db.Close(); err != nil {
			logging.E("Failed to close database: %v", err)
		}
	}
	return rt, release, nil
}
