package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/curatorapp/curator-server/internal/parity"
	"github.com/curatorapp/curator-server/internal/seed"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import seed datasets",
	}

	var (
		base, working, userRef, dataset string
		dryRun                          bool
	)
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import a working dataset after a parity check",
		Long: `Import runs a parity check of the dataset first and refuses to write
anything unless the working copy matches base. Every tag referenced by an
article must be declared in the dataset's "tags" export. Existing tags with
the same name are reused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return withExitCode(ExitError, err)
			}
			defer a.Close()

			user, err := a.lookupUser(cmd.Context(), userRef)
			if err != nil {
				return withExitCode(ExitError, err)
			}

			checker := parity.NewChecker(base, working, a.logger)
			importer := seed.NewImporter(checker, working, a.tags, a.articles, a.logger)

			p := newPrinter(cmd.OutOrStdout(), !noColor)
			result, err := importer.Import(cmd.Context(), seed.Options{
				Dataset: dataset,
				UserID:  user.ID,
				DryRun:  dryRun,
			})
			var mismatch *seed.MismatchError
			if errors.As(err, &mismatch) {
				printReport(p, result.Report)
				return withExitCode(ExitMismatch, err)
			}
			if err != nil {
				return withExitCode(ExitError, err)
			}

			if !result.Imported {
				p.Success("dataset is at parity and valid; nothing written (dry run)")
				return nil
			}
			p.Success("imported %s for %s", dataset, user.Email)
			p.Detail("tags created:     %d", result.TagsCreated)
			p.Detail("tags reused:      %d", result.TagsReused)
			p.Detail("articles created: %d", result.ArticlesCreated)
			return nil
		},
	}
	importCmd.Flags().StringVar(&base, "base", "", "base dataset directory (required)")
	importCmd.Flags().StringVar(&working, "working", "", "working dataset directory (required)")
	importCmd.Flags().StringVar(&userRef, "user", "", "user id or email that will own the data (required)")
	importCmd.Flags().StringVar(&dataset, "dataset", seed.DefaultDataset, "dataset name")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "check parity and integrity without writing")
	_ = importCmd.MarkFlagRequired("base")
	_ = importCmd.MarkFlagRequired("working")
	_ = importCmd.MarkFlagRequired("user")

	cmd.AddCommand(importCmd)
	return cmd
}
