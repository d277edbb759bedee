package consts

import "time"

// Metadata fetch timeouts.
const (
	VideoInfoTimeout    = 60 * time.Second
	PlaylistInfoTimeout = 120 * time.Second
	LuxInfoTimeout      = 15 * time.Second
	VersionTimeout      = 10 * time.Second
)

// Bridge operation timeouts.
const (
	BridgeReadyTimeout = 5 * time.Second
	BridgeOpenTimeout  = 5 * time.Second
	BridgeCropTimeout  = 15 * time.Second
	BridgeFileTimeout  = 15 * time.Second
)

// Network timeouts.
const (
	HTTPClientTimeout = 10 * time.Second
	HeadCheckTimeout  = 15 * time.Second
	InstallTimeout    = 5 * time.Minute
	ProxyDialTimeout  = 50 * time.Millisecond
	DatabaseTimeout   = 5 * time.Second
	ServerReadTimeout = 15 * time.Second
)

// Download orchestration.
const (
	RecentFileWindow   = 60 * time.Second
	FileCheckInterval  = 100 * time.Millisecond
	FileWaitTimeout    = 10 * time.Second
	ProgressThrottle   = 100 * time.Millisecond
	ShutdownGrace      = 5 * time.Second
	RetryBackoff       = 100 * time.Millisecond
	DefaultConcurrency = 5
	MaxConcurrency     = 25
)
