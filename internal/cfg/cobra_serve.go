package cfg

import (
	"context"
	"net"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/domain/keys"
	"fetcharr/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd runs the local HTTP API until interrupted.
func serveCmd(ctx context.Context, open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		Long:  "Serve the download queue, history and bridge operations over HTTP for the browser extension and desktop shell.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := net.JoinHostPort(viper.GetString(keys.ServerHost), viper.GetString(keys.ServerPort))

			return withRuntime(ctx, open, func(rt *Runtime) error {
				return server.Start(ctx, addr, server.Config{
					Downloads: rt.Downloads,
					Bridge:    rt.Bridge,
					Cookies:   rt.Cookies,
					Board:     rt.Board,
					History:   rt.Store.History(),
					Status:    rt.Store.Downloads(),
				})
			})
		},
	}

	cmd.Flags().String(keys.ServerHost, server.DefaultHost, "Address to listen on")
	cmd.Flags().String(keys.ServerPort, consts.DefaultPort, "Port to listen on")
	return cmd
}
