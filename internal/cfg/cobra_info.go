package cfg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"fetcharr/internal/domain/keys"
	"fetcharr/internal/metadata"
	"fetcharr/internal/models"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// infoCmd prints display metadata for a URL.
func infoCmd(ctx context.Context, open Opener) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info URL",
		Short: "Show video metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(ctx, open, func(rt *Runtime) error {
				info, err := rt.Meta.VideoInfo(ctx, args[0], DownloadOptions())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if asJSON {
					return printJSON(w, info)
				}
				printVideoInfo(w, info)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// playlistCmd prints one page of a playlist.
func playlistCmd(ctx context.Context, open Opener) *cobra.Command {
	var (
		asJSON        bool
		offset, limit int
	)

	cmd := &cobra.Command{
		Use:   "playlist URL",
		Short: "List playlist entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(ctx, open, func(rt *Runtime) error {
				list, err := rt.Meta.PlaylistInfo(ctx, args[0], DownloadOptions(), offset, limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if asJSON {
					return printJSON(w, list)
				}
				printPlaylist(w, list, offset)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().IntVar(&offset, keys.PlaylistOffset, 0, "Entries to skip")
	cmd.Flags().IntVar(&limit, keys.PlaylistLimit, metadata.DefaultPlaylistLimit, "Entries per page")
	return cmd
}

// formatsCmd prints the selectable streams of a URL.
func formatsCmd(ctx context.Context, open Opener) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "formats URL",
		Short: "List available formats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(ctx, open, func(rt *Runtime) error {
				f, err := rt.Meta.Formats(ctx, args[0], DownloadOptions())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if asJSON {
					return printJSON(w, f)
				}
				printFormats(w, f)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printVideoInfo(w io.Writer, info *models.VideoInfo) {
	fmt.Fprintf(w, "Title:     %s\n", info.Title)
	if a := info.Author(); a != "" {
		fmt.Fprintf(w, "Author:    %s\n", a)
	}
	if info.Duration > 0 {
		fmt.Fprintf(w, "Duration:  %s\n", formatDuration(info.Duration))
	}
	if info.Filesize > 0 {
		fmt.Fprintf(w, "Size:      %s\n", humanize.IBytes(uint64(info.Filesize)))
	}
	if info.Ext != "" {
		fmt.Fprintf(w, "Extension: %s\n", info.Ext)
	}
	if info.Thumbnail != "" {
		fmt.Fprintf(w, "Thumbnail: %s\n", info.Thumbnail)
	}
}

func printPlaylist(w io.Writer, list *models.PlaylistInfo, offset int) {
	fmt.Fprintf(w, "%s", list.Title)
	if list.Uploader != "" {
		fmt.Fprintf(w, " by %s", list.Uploader)
	}
	fmt.Fprintf(w, " (%d entries)\n", list.TotalCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, e := range list.Entries {
		kind := ""
		if e.IsMusic {
			kind = "music"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", offset+i+1, e.Title, formatDuration(e.Duration), kind, e.URL)
	}
	_ = tw.Flush()

	if list.HasMore {
		fmt.Fprintf(w, "More entries available, use --%s %d\n", keys.PlaylistOffset, offset+len(list.Entries))
	}
}

func printFormats(w io.Writer, f *models.VideoFormats) {
	fmt.Fprintf(w, "%s\n", f.Title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEXT\tRESOLUTION\tFPS\tVCODEC\tACODEC\tSIZE\tNOTE")
	for _, v := range f.Formats {
		size := v.Filesize
		if size == 0 {
			size = v.FilesizeApprox
		}
		sizeStr := ""
		if size > 0 {
			sizeStr = humanize.IBytes(uint64(size))
		}
		fps := ""
		if v.FPS > 0 {
			fps = fmt.Sprintf("%.0f", v.FPS)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.FormatID, v.Ext, v.Resolution, fps, orDash(v.VCodec), orDash(v.ACodec), sizeStr, v.FormatNote)
	}
	_ = tw.Flush()
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	total := int(time.Duration(seconds * float64(time.Second)).Round(time.Second).Seconds())
	h, m, sec := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

func orDash(s string) string {
	if s == "" || s == "none" {
		return "-"
	}
	return s
}
