package main

import (
	"context"
	"fmt"
	"io"

	"github.com/pevans/stdpapers/dump"
	"github.com/pevans/stdpapers/fetch"
	"github.com/pevans/stdpapers/listing"
	"github.com/spf13/cobra"
)

// Exit statuses of scrape.
const (
	exitOK      = 0
	exitPartial = 1 // some rows failed, some documents were parsed
	exitFailed  = 2 // nothing usable came out of the page
)

func scrapeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape <url-or-file>",
		Short: "Parse a listing page and print its documents as JSON",
		Long: `Parse a committee paper listing page and write the documents it lists
as a JSON array. Rows that cannot be parsed are reported on stderr.

Exit status is 0 when every row parsed, 1 when some rows failed, and 2
when the page could not be parsed or yielded no documents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			result, err := a.scrape(cmd.Context(), args[0], a.fetchOptions(cmd))
			if err != nil {
				return &exitError{code: exitFailed, err: err}
			}

			reportParseErrors(cmd.ErrOrStderr(), args[0], result.Errors)

			if output == "" || output == "-" {
				err = dump.Write(cmd.OutOrStdout(), result.Docs)
			} else {
				err = dump.WriteFile(output, result.Docs)
			}
			if err != nil {
				return &exitError{code: exitFailed, err: fmt.Errorf("failed to write documents: %w", err)}
			}

			a.logger.Info("Scraped listing page",
				"source", args[0],
				"documents", len(result.Docs),
				"errors", len(result.Errors))

			if code := scrapeStatus(result); code != exitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Write JSON to this file instead of stdout")
	addFetchFlags(cmd)
	return cmd
}

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", 0, "HTTP timeout (overrides config)")
	cmd.Flags().String("user-agent", "", "HTTP User-Agent (overrides config)")
}

// fetchOptions applies per-command flags on top of resolved settings.
func (a *app) fetchOptions(cmd *cobra.Command) fetch.Options {
	opts := fetch.Options{
		Timeout:   a.settings.Timeout,
		UserAgent: a.settings.UserAgent,
	}
	if cmd.Flags().Lookup("timeout") == nil {
		return opts
	}
	if d, _ := cmd.Flags().GetDuration("timeout"); d > 0 {
		opts.Timeout = d
	}
	if ua, _ := cmd.Flags().GetString("user-agent"); ua != "" {
		opts.UserAgent = ua
	}
	return opts
}

// scrape fetches and parses one listing page.
func (a *app) scrape(ctx context.Context, addr string, opts fetch.Options) (*listing.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	doc, err := fetch.Page(ctx, addr, opts)
	if err != nil {
		return nil, err
	}

	p := &listing.Parser{Logger: a.logger}
	result, err := p.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", addr, err)
	}
	return result, nil
}

// scrapeStatus maps a parse result to the scrape exit status.
func scrapeStatus(result *listing.Result) int {
	switch {
	case len(result.Errors) == 0:
		return exitOK
	case len(result.Docs) > 0:
		return exitPartial
	default:
		return exitFailed
	}
}

func reportParseErrors(w io.Writer, source string, errs []listing.ParseError) {
	for _, perr := range errs {
		fmt.Fprintf(w, "Error: %s: %s\n", source, perr.Error())
	}
}
