package cfg

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"fetcharr/internal/domain/keys"
	"fetcharr/internal/models"
	"fetcharr/internal/utils/logging"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// historyCmd lists, deletes or clears completed downloads.
func historyCmd(ctx context.Context, open Opener) *cobra.Command {
	var (
		limit, offset int
		deleteID      string
		clearAll      bool
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show download history",
		Long:  "List completed downloads newest first, or delete entries with --delete and --clear.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(ctx, open, func(rt *Runtime) error {
				hs := rt.Store.History()

				switch {
				case clearAll:
					n, err := hs.Clear(ctx)
					if err != nil {
						return err
					}
					logging.S("Cleared %d history entries", n)
					return nil

				case deleteID != "":
					if err := hs.Delete(ctx, deleteID); err != nil {
						return err
					}
					logging.S("Deleted history entry %q", deleteID)
					return nil
				}

				items, err := hs.List(ctx, limit, offset)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if asJSON {
					if items == nil {
						items = []*models.HistoryItem{}
					}
					return printJSON(w, items)
				}
				printHistory(w, items)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, keys.HistoryLimit, 50, "Maximum entries to list (0 for all)")
	cmd.Flags().IntVar(&offset, keys.PlaylistOffset, 0, "Entries to skip")
	cmd.Flags().StringVar(&deleteID, keys.DeleteHistoryID, "", "Delete the entry with this ID")
	cmd.Flags().BoolVar(&clearAll, keys.ClearHistory, false, "Delete every entry")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printHistory(w io.Writer, items []*models.HistoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No downloads yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPLETED\tTITLE\tSIZE\tFILE")
	for _, h := range items {
		size := ""
		if h.FileSize > 0 {
			size = humanize.IBytes(uint64(h.FileSize))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", h.ID, humanize.Time(h.CompletedAt), h.Title, size, h.FilePath)
	}
	_ = tw.Flush()
}
