package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bvdump/internal/convert"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		all         bool
		autoremove  bool
		noOverwrite bool
		skipDone    bool
	)

	cmd := &cobra.Command{
		Use:   "convert [title-id]",
		Short: "Convert a cached title (or every title) into the output container",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("provide a title id or use --all")
			}
			if all && len(args) > 0 {
				return errors.New("--all does not take a title id")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if autoremove {
				cfg.Conversion.AutoremoveSource = true
			}
			if noOverwrite {
				cfg.Conversion.OverwriteExisting = false
			}
			if skipDone {
				cfg.Conversion.SkipConverted = true
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			converter := convert.New(cfg, logger, store)
			out := cmd.OutOrStdout()

			if all {
				outcomes, err := converter.ConvertAll(runCtx)
				for _, outcome := range outcomes {
					printOutcome(out, outcome)
				}
				return err
			}

			result, err := converter.Convert(runCtx, args[0])
			if err != nil {
				return err
			}
			printOutcome(out, convert.Outcome{Result: result})
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Convert every title under the cache root")
	cmd.Flags().BoolVar(&autoremove, "autoremove", false, "Remove the source cache entry after a successful conversion")
	cmd.Flags().BoolVar(&noOverwrite, "no-overwrite", false, "Skip titles whose output already exists")
	cmd.Flags().BoolVar(&skipDone, "skip-converted", false, "Skip titles already journaled as converted")
	return cmd
}

func printOutcome(out io.Writer, outcome convert.Outcome) {
	result := outcome.Result
	switch {
	case outcome.Err != nil:
		fmt.Fprintf(out, "failed    %s: %v\n", result.TitleID, outcome.Err)
	case result.Skipped:
		fmt.Fprintf(out, "skipped   %s (%s)\n", result.TitleID, result.SkipReason)
	default:
		fmt.Fprintf(out, "converted %s -> %s (%s in %s)\n",
			result.TitleID, result.OutputPath,
			formatBytes(result.OutputBytes), result.Elapsed.Round(timeRounding))
	}
}
