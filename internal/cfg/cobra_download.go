package cfg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"fetcharr/internal/downloads"
	"fetcharr/internal/models"
	"fetcharr/internal/parsing"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// downloadCmd queues the given URLs and waits for all of them.
func downloadCmd(ctx context.Context, open Opener) *cobra.Command {
	var urlFile string

	cmd := &cobra.Command{
		Use:   "download [URL...]",
		Short: "Download one or more URLs",
		Long:  "Queue URLs for download and wait until every one finishes. URLs may also be read from a file, one per line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := slices.Clone(args)
			if urlFile != "" {
				fromFile, err := parsing.NewURLFileParser(urlFile).ParseURLs()
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return errors.New("must enter at least one URL or a URL file")
			}

			return withRuntime(ctx, open, func(rt *Runtime) error {
				return runDownloads(ctx, rt.Downloads, urls, DownloadOptions(), cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringVarP(&urlFile, "file", "f", "", "File of URLs to download, one per line")
	return cmd
}

// runDownloads submits every URL, then waits for each and prints its outcome.
func runDownloads(ctx context.Context, m *downloads.Manager, urls []string, opts models.DownloadOptions, w io.Writer) error {
	var (
		ids  []string
		errs []error
	)
	for _, u := range urls {
		item, existing, err := m.Submit(u, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		if !existing {
			ids = append(ids, item.ID)
		}
	}

	failed := 0
	for _, id := range ids {
		res, err := m.Wait(ctx, id)
		if err != nil {
			return errors.Join(append(errs, err)...)
		}
		q, _ := m.Get(id)
		printResult(w, q, res)
		if !res.Success {
			failed++
		}
	}

	if failed > 0 {
		errs = append(errs, fmt.Errorf("%d of %d downloads failed", failed, len(ids)))
	}
	return errors.Join(errs...)
}

func printResult(w io.Writer, q *models.QueueItem, res models.DownloadResult) {
	name := res.FilePath
	if q != nil {
		name = q.URL
	}
	if res.Success {
		size := ""
		if res.FileSize > 0 {
			size = " (" + humanize.IBytes(uint64(res.FileSize)) + ")"
		}
		fmt.Fprintf(w, "OK      %s -> %s%s\n", name, res.FilePath, size)
		return
	}
	if res.Error != nil {
		fmt.Fprintf(w, "FAILED  %s [%s] %s\n", name, res.Error.Kind, res.Error.Message)
		if res.Error.Suggestion != "" {
			fmt.Fprintf(w, "        %s\n", res.Error.Suggestion)
		}
		return
	}
	fmt.Fprintf(w, "FAILED  %s (exit code %d)\n", name, res.ExitCode)
}
