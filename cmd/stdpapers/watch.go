package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/pevans/stdpapers/fetch"
	"github.com/pevans/stdpapers/listing"
	"github.com/pevans/stdpapers/store"
	"github.com/pevans/stdpapers/watch"
	"github.com/spf13/cobra"
)

func watchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Load saved listing pages whenever they change",
		Long: `Watch a directory of saved listing pages. Every page that is created or
rewritten with new content is parsed and loaded into the document database.
Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, _ := cmd.Flags().GetBool("update")
			create, _ := cmd.Flags().GetBool("create")
			if d, _ := cmd.Flags().GetDuration("debounce"); d > 0 {
				a.settings.Debounce = d
			}

			s, err := a.openStore(create)
			if err != nil {
				return err
			}
			defer s.Close()

			w, err := watch.New(args[0], watch.Options{
				Debounce:   a.settings.Debounce,
				Extensions: a.settings.Extensions,
				Logger:     a.logger,
			})
			if err != nil {
				return err
			}
			defer w.Close()

			loader := store.NewLoader(s, a.logger)
			err = w.Run(cmd.Context(), func(ctx context.Context, path string) error {
				return a.loadPage(ctx, loader, path, update)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	addLoadFlags(cmd)
	cmd.Flags().Duration("debounce", 0, "Wait this long for more changes before loading (overrides config)")
	return cmd
}

// loadPage parses a saved page and loads its documents, logging the outcome.
func (a *app) loadPage(ctx context.Context, loader *store.Loader, path string, update bool) error {
	doc, err := fetch.File(path)
	if err != nil {
		return err
	}

	result, err := (&listing.Parser{Logger: a.logger}).Parse(doc)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, perr := range result.Errors {
		a.logger.Warn("Row not parsed", "path", path, "error", perr.Error())
	}

	sum := &store.Summary{}
	loader.LoadAll(ctx, path, result.Docs, update, sum)
	for _, lerr := range sum.Errors {
		a.logger.Warn("Document not loaded", "path", path, "error", lerr.Error())
	}

	a.logger.Info("Loaded listing page",
		"path", path,
		"added", sum.Added(),
		"updated", sum.Updated,
		"skipped", sum.Skipped,
		"errors", len(sum.Errors)+len(result.Errors))
	return nil
}
