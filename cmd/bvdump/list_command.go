package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bvdump/internal/cache"
	"bvdump/internal/metadata"
	"bvdump/internal/textutil"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached titles and their stream variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			titleIDs, err := cache.ListTitles(cfg.Paths.CacheRoot)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(titleIDs) == 0 {
				fmt.Fprintf(out, "No cached titles under %s\n", cfg.Paths.CacheRoot)
				return nil
			}

			rows := make([][]string, 0, len(titleIDs))
			for _, titleID := range titleIDs {
				rows = append(rows, listRow(cfg.Paths.CacheRoot, titleID))
			}

			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Video", "Audio", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func listRow(cacheRoot, titleID string) []string {
	layout, err := cache.Scan(cacheRoot, titleID)
	if err != nil {
		return []string{titleID, "(unreadable)", "-", "-", "-"}
	}
	doc, err := metadata.Read(layout.MetadataPath, metadata.Options{})
	if err != nil {
		return []string{titleID, "(unreadable metadata)", "-", "-", "-"}
	}
	return []string{
		titleID,
		truncate(textutil.DisplayTitle(doc.Title.Title), 48),
		variantSummary(doc.Video),
		variantSummary(doc.Audio),
		formatBytes(doc.Title.TotalSize),
	}
}

func variantSummary(variants []metadata.StreamVariant) string {
	if len(variants) == 0 {
		return "-"
	}
	best := variants[0]
	for _, variant := range variants[1:] {
		if variant.Quality > best.Quality {
			best = variant
		}
	}
	summary := metadata.BaseCodec(best.Codec) + "@" + strconv.Itoa(best.Quality)
	if len(variants) > 1 {
		summary += " (+" + strconv.Itoa(len(variants)-1) + ")"
	}
	return summary
}
