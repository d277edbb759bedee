// Package cfg provides configuration and command-line interface setup for Fetcharr.
package cfg

import (
	"context"
	"fmt"
	"strings"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/domain/keys"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FETCHARR_OUTPUT_DIR.
const EnvPrefix = "FETCHARR"

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "fetcharr",
		Short:         "Fetcharr queues and runs video downloads through yt-dlp, lux and plain HTTP.",
		Version:       consts.ProgramVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile := viper.GetString(keys.ConfigFile); configFile != "" {
				if err := loadConfigFile(configFile); err != nil {
					return fmt.Errorf("failed loading config file: %w", err)
				}
			}
			return verify()
		},
	}
}

// InitCommands initializes all commands and their flags.
func InitCommands(ctx context.Context, open Opener) error {
	initViper()

	if err := initProgramFlags(rootCmd); err != nil {
		return err
	}
	if err := initDownloadFlags(rootCmd); err != nil {
		return err
	}
	if err := initProxyFlags(rootCmd); err != nil {
		return err
	}

	serve := serveCmd(ctx, open)
	if err := bindFlags(serve.Flags()); err != nil {
		return err
	}

	rootCmd.AddCommand(
		downloadCmd(ctx, open),
		infoCmd(ctx, open),
		playlistCmd(ctx, open),
		formatsCmd(ctx, open),
		serve,
		historyCmd(ctx, open),
		depsCmd(ctx),
		classifyCmd(),
	)
	return nil
}

// initViper sets up environment overrides.
func initViper() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_")) // "output-dir" reads FETCHARR_OUTPUT_DIR
	viper.AutomaticEnv()
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// withRuntime opens the runtime for the duration of run.
func withRuntime(ctx context.Context, open Opener, run func(rt *Runtime) error) error {
	rt, release, err := open(ctx)
	if err != nil {
		return err
	}
	defer release()
	return run(rt)
}
