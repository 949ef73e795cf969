package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/storefront-reviews/internal/metrics"
	"github.com/JakeFAU/storefront-reviews/internal/render"
	"github.com/JakeFAU/storefront-reviews/internal/reviews"
	"github.com/JakeFAU/storefront-reviews/internal/table"
)

type fetchOptions struct {
	region  string
	limit   int
	sortKey string
	kind    string
	out     string
	noCSV   bool
}

func newFetchCmd() *cobra.Command {
	opts := &fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch <storefront-url>",
		Short: "Fetch reviews once, print them, and write a CSV export",
		Long: `Resolves the storefront URL, fetches the most recent reviews, prints the
first --limit of them, and writes <app>_reviews.csv (or --out) containing
exactly the printed rows.

Regions: auto (read from the URL), au, br, ca, cn, fr, de, it, jp, pl, es, gb, us.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.region, "region", reviews.AutoRegion, "storefront region code, or auto")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "number of reviews to show and export (default from table.default_window)")
	cmd.Flags().StringVar(&opts.sortKey, "sort", "", "sort by date, version, rating, author, or content")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "comparison for --sort: numeric, date, or lexical")
	cmd.Flags().StringVar(&opts.out, "out", "", "CSV output path (default <app>_reviews.csv)")
	cmd.Flags().BoolVar(&opts.noCSV, "no-csv", false, "skip writing the CSV export")
	return cmd
}

func runFetch(cmd *cobra.Command, rawURL string, opts *fetchOptions) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	r := render.New(out)

	s := appInstance.NewSession()
	res, err := s.Fetch(cmd.Context(), rawURL, opts.region)
	if errors.Is(err, reviews.ErrEmptyResult) {
		fmt.Fprint(out, r.Status(s.Table().Summary(), s.Message()))
		return nil
	}
	if err != nil {
		return errors.New(s.Message())
	}

	tbl := s.Table()
	if opts.sortKey != "" {
		key, err := table.ParseKey(opts.sortKey)
		if err != nil {
			return err
		}
		kind, err := table.ParseKind(opts.kind, key)
		if err != nil {
			return err
		}
		tbl.SortBy(key, kind)
	}
	if cmd.Flags().Changed("limit") {
		tbl.SetWindow(opts.limit)
	}

	title := s.AppName()
	if title == "" {
		title = fmt.Sprintf("App %s (%s)", res.Target.AppID, res.Target.Region)
	}
	fmt.Fprint(out, r.Table(title, tbl.Window()))
	fmt.Fprint(out, r.Status(tbl.Summary(), ""))

	if opts.noCSV {
		return nil
	}
	data, err := tbl.SerializeCSV()
	metrics.ObserveExport("csv", err)
	if err != nil {
		return err
	}
	path := opts.out
	if path == "" {
		path = s.ExportFilename()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(out, "wrote %s\n", filepath.Clean(path))
	return nil
}
