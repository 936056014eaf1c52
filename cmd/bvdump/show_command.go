package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bvdump/internal/cache"
	"bvdump/internal/metadata"
	"bvdump/internal/selector"
	"bvdump/internal/textutil"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <title-id>",
		Short: "Show the variants of one cached title and what would be selected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			layout, err := cache.Scan(cfg.Paths.CacheRoot, args[0])
			if err != nil {
				return err
			}
			doc, err := metadata.Read(layout.MetadataPath, metadata.Options{
				FailOnUnsupported: cfg.Conversion.FailOnUnsupported,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:    %s\n", textutil.DisplayTitle(doc.Title.Title))
			if doc.Title.Uploader != "" {
				fmt.Fprintf(out, "Uploader: %s\n", doc.Title.Uploader)
			}
			fmt.Fprintf(out, "Source:   %s\n\n", layout.Entry.Root)

			pair, selectErr := selector.Select(doc, selector.Policy{
				VideoCodecPriority: cfg.Conversion.VideoCodecPriority,
				AudioCodecPriority: cfg.Conversion.AudioCodecPriority,
				ForbiddenPairs:     cfg.Conversion.ForbiddenPairs,
			})

			rows := make([][]string, 0, len(doc.Video)+len(doc.Audio)+len(doc.Skipped))
			for _, variant := range doc.Video {
				rows = append(rows, variantRow(variant, selectErr == nil && variant.Dir == pair.Video.Dir))
			}
			for _, variant := range doc.Audio {
				rows = append(rows, variantRow(variant, selectErr == nil && variant.Dir == pair.Audio.Dir))
			}
			for _, skipped := range doc.Skipped {
				row := variantRow(skipped.Variant, false)
				row[len(row)-1] = "skipped: " + skipped.Reason
				rows = append(rows, row)
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Kind", "Quality", "Codec", "Fragments", "Size", "Selected"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft},
			))

			if selectErr != nil {
				fmt.Fprintf(out, "\nSelection: %v\n", selectErr)
			}
			return nil
		},
	}
}

func variantRow(variant metadata.StreamVariant, selected bool) []string {
	marker := ""
	if selected {
		marker = "*"
	}
	return []string{
		string(variant.Kind),
		strconv.Itoa(variant.Quality),
		variant.Codec,
		strconv.Itoa(variant.FragmentCount),
		formatBytes(variant.TotalSize),
		marker,
	}
}
