// Package paths initializes Fetcharr's filepaths, directories, etc.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fetcharr/internal/domain/consts"
)

const (
	fDir        = ".fetcharr"
	fDBFile     = "fetcharr.db"
	fLogFile    = "fetcharr.log"
	cookiesDir  = "cookies"
	binariesDir = "bin"
)

// File and directory path strings.
var (
	HomeFetcharrDir string
	DBFilePath      string
	LogFilePath     string
	CookieDir       string
	BinDir          string
	DownloadDir     string
)

// InitProgFilesDirs initializes necessary program directories and filepaths.
func InitProgFilesDirs() error {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		return errors.New("failed to get home directory")
	}
	return initUnder(userHomeDir)
}

// initUnder builds the program tree beneath the given home directory.
func initUnder(home string) error {
	// Home Fetcharr dir ~/.fetcharr
	HomeFetcharrDir = filepath.Join(home, fDir)
	if err := os.MkdirAll(HomeFetcharrDir, consts.PermsHomeProgDir); err != nil {
		return fmt.Errorf("failed to make directories: %w", err)
	}

	CookieDir = filepath.Join(HomeFetcharrDir, cookiesDir)
	if err := os.MkdirAll(CookieDir, consts.PermsCookieDir); err != nil {
		return fmt.Errorf("failed to make cookie directory: %w", err)
	}

	// Main files
	DBFilePath = filepath.Join(HomeFetcharrDir, fDBFile)
	LogFilePath = filepath.Join(HomeFetcharrDir, fLogFile)
	BinDir = filepath.Join(HomeFetcharrDir, binariesDir)

	// Default download target ~/Downloads, created lazily by the downloader.
	DownloadDir = filepath.Join(home, "Downloads")
	return nil
}
