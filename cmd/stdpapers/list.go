package main

import (
	"errors"
	"fmt"

	"github.com/pevans/stdpapers/dump"
	"github.com/pevans/stdpapers/listing"
	"github.com/pevans/stdpapers/store"
	"github.com/spf13/cobra"
)

func listCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")

			s, err := a.openStore(false)
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				docs := make([]listing.Doc, len(records))
				for i, rec := range records {
					docs[i] = rec.Doc
				}
				return dump.Write(out, docs)
			case "table":
				if len(records) == 0 {
					fmt.Fprintln(out, "No documents stored.")
					return nil
				}
				fmt.Fprintf(out, "%-10s %-10s %s\n", "NUMBER", "DATE", "TITLE")
				for _, rec := range records {
					fmt.Fprintf(out, "%-10s %-10s %s\n", rec.Doc.Number, orDash(rec.Doc.Date), truncate(rec.Doc.Title, 70))
				}
				return nil
			default:
				return fmt.Errorf("unknown format %q (want table or json)", format)
			}
		},
	}

	cmd.Flags().String("format", "table", "Output format: table or json")
	return cmd
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <number>",
		Short: "Show one stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(false)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.Get(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("document %s not found", args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Number:       %s\n", rec.Doc.Number)
			fmt.Fprintf(out, "Title:        %s\n", rec.Doc.Title)
			fmt.Fprintf(out, "Authors:      %s\n", joinOrDash(rec.Doc.Authors))
			fmt.Fprintf(out, "Date:         %s\n", orDash(rec.Doc.Date))
			fmt.Fprintf(out, "Mailing date: %s\n", orDash(rec.Doc.MailingDate))
			fmt.Fprintf(out, "URL:          %s\n", orDash(rec.Doc.URL))
			if rec.Doc.PrevVersion != "" {
				fmt.Fprintf(out, "Previous:     %s\n", rec.Doc.PrevVersion)
			}
			fmt.Fprintf(out, "Subgroups:    %s\n", joinOrDash(rec.Doc.Subgroups))
			if rec.Doc.Disposition != "" {
				fmt.Fprintf(out, "Disposition:  %s\n", rec.Doc.Disposition)
			}
			fmt.Fprintf(out, "Revision:     %s (updated %s)\n", rec.Rev, rec.UpdatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}
