package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/pevans/stdpapers/dump"
	"github.com/pevans/stdpapers/store"
	"github.com/spf13/cobra"
)

func addLoadFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("update", false, "Replace documents that are already stored")
	cmd.Flags().Bool("create", false, "Create the database if it does not exist")
}

func loadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <file.json>...",
		Short: "Load scraped JSON files into the document database",
		Long: `Load one or more JSON files written by 'stdpapers scrape' into the
document database. Documents without a number and standing documents
(SD-*) are skipped. Documents that are already stored are reported as
errors unless --update is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, _ := cmd.Flags().GetBool("update")
			create, _ := cmd.Flags().GetBool("create")
			cleanFirst, _ := cmd.Flags().GetBool("clean-first")
			ctx := cmd.Context()

			s, err := a.openStore(create)
			if err != nil {
				if errors.Is(err, store.ErrNoDatabase) {
					return fmt.Errorf("%w (use --create to create it)", err)
				}
				return err
			}
			defer s.Close()

			if cleanFirst {
				a.logger.Info("Deleting stored documents before loading", "db", a.settings.DSN)
				if err := s.Reset(ctx); err != nil {
					return err
				}
			}

			loader := store.NewLoader(s, a.logger)
			sum := &store.Summary{}
			for _, path := range args {
				docs, err := dump.ReadFile(path)
				if err != nil {
					return err
				}
				loader.LoadAll(ctx, path, docs, update, sum)
			}

			if printSummary(cmd.OutOrStdout(), cmd.ErrOrStderr(), sum) {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	addLoadFlags(cmd)
	cmd.Flags().Bool("clean-first", false, "Delete every stored document before loading")
	return cmd
}

// printSummary writes one line per failed document and the summary line.
// Reports whether any document failed.
func printSummary(out, errOut io.Writer, sum *store.Summary) bool {
	for _, lerr := range sum.Errors {
		fmt.Fprintln(errOut, lerr.Error())
	}
	fmt.Fprintln(out, sum.String())
	return len(sum.Errors) > 0
}
