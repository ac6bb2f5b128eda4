package main

import (
	"fmt"

	"github.com/pevans/stdpapers/store"
	"github.com/spf13/cobra"
)

func syncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <url-or-file>...",
		Short: "Scrape listing pages straight into the document database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, _ := cmd.Flags().GetBool("update")
			create, _ := cmd.Flags().GetBool("create")
			ctx := cmd.Context()
			opts := a.fetchOptions(cmd)

			s, err := a.openStore(create)
			if err != nil {
				return err
			}
			defer s.Close()

			loader := store.NewLoader(s, a.logger)
			sum := &store.Summary{}
			failed := false

			// A page that cannot be fetched or parsed is reported and the rest
			// are still synced.
			for _, addr := range args {
				result, err := a.scrape(ctx, addr, opts)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
					failed = true
					continue
				}
				if len(result.Errors) > 0 {
					reportParseErrors(cmd.ErrOrStderr(), addr, result.Errors)
					failed = true
				}
				loader.LoadAll(ctx, addr, result.Docs, update, sum)
			}

			if printSummary(cmd.OutOrStdout(), cmd.ErrOrStderr(), sum) || failed {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	addLoadFlags(cmd)
	addFetchFlags(cmd)
	return cmd
}
