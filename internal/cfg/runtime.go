package cfg

import (
	"context"

	"fetcharr/internal/bridge"
	"fetcharr/internal/cookies"
	"fetcharr/internal/downloads"
	"fetcharr/internal/metadata"
	"fetcharr/internal/notify"
	"fetcharr/internal/repo"
)

// Runtime is the wired application the subcommands act on.
type Runtime struct {
	Downloads *downloads.Manager
	Meta      *metadata.Fetcher
	Bridge    *bridge.Service
	Cookies   *cookies.Manager
	Store     *repo.Store
	Board     *notify.ProgressBoard
}

// Opener builds the Runtime once flags and the config file are resolved.
//
// The returned func releases it.
type Opener func(ctx context.Context) (*Runtime, func(), error)
