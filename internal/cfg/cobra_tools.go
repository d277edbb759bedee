package cfg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fetcharr/internal/deps"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/domain/keys"
	"fetcharr/internal/errclass"
	"fetcharr/internal/models"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// depsCmd reports which external tools are installed.
func depsCmd(ctx context.Context) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external tools",
		Long:  "Report the installed version and path of yt-dlp, lux, aria2c and ffmpeg.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(ctx, consts.VersionTimeout)
			defer cancel()

			all := deps.CheckAll(ctx, viper.GetString(keys.BinDir))
			if asJSON {
				return printJSON(cmd.OutOrStdout(), all)
			}
			printDeps(cmd.OutOrStdout(), all)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.AddCommand(depsInstallCmd(ctx), depsUninstallCmd())
	return cmd
}

// depsInstallCmd downloads yt-dlp into the bin directory.
func depsInstallCmd(ctx context.Context) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:       "install [yt-dlp]",
		Short:     "Install or update yt-dlp",
		Long:      "Download a yt-dlp release into the bin directory, replacing any copy already there. Installs the latest release unless --tag is set.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"yt-dlp"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := deps.InstallYtDlp(ctx, viper.GetString(keys.BinDir), tag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s %s at %s\n", st.Name, st.Version, st.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "Release tag to install (default latest)")
	return cmd
}

// depsUninstallCmd removes yt-dlp from the bin directory.
func depsUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "uninstall [yt-dlp]",
		Short:     "Remove the yt-dlp copy in the bin directory",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"yt-dlp"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.UninstallYtDlp(viper.GetString(keys.BinDir))
		},
	}
}

func printDeps(w io.Writer, all []models.DependencyStatus) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOL\tSTATUS\tVERSION\tPATH")
	for _, d := range all {
		status := "missing"
		if d.Installed {
			status = "ok"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, status, d.Version, d.Path)
	}
	_ = tw.Flush()
}

// classifyCmd classifies raw downloader error text.
func classifyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify [MESSAGE...]",
		Short: "Classify a downloader error message",
		Long:  "Map raw error text onto an error kind with a user-facing message. Reads stdin when no message is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.Join(args, " ")
			if msg == "" {
				in, err := readAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				msg = in
			}
			if strings.TrimSpace(msg) == "" {
				return errors.New("no message to classify")
			}

			info := errclass.Classify(msg)
			w := cmd.OutOrStdout()
			if asJSON {
				return printJSON(w, info)
			}
			fmt.Fprintf(w, "Kind:       %s\n", info.Kind)
			fmt.Fprintf(w, "Message:    %s\n", info.Message)
			if info.Suggestion != "" {
				fmt.Fprintf(w, "Suggestion: %s\n", info.Suggestion)
			}
			fmt.Fprintf(w, "Retryable:  %t\n", info.Retryable)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func readAll(r io.Reader) (string, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		b.WriteString(sc.Text())
		b.WriteByte('\n')
	}
	return b.String(), sc.Err()
}
