package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tool-recommender/internal/recommendations"
)

// parseCmd parses a saved model response without calling the API.
func parseCmd() *cobra.Command {
	var file, format, sort string

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a saved model response",
		Long:  `Parse a raw model response (JSON or markdown) from a file or stdin and print the recommendations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			raw, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			field, err := recommendations.ParseSortField(sort)
			if err != nil {
				return err
			}

			recs, source := recommendations.ParseWithFormat(string(raw))
			fmt.Fprintf(cmd.ErrOrStderr(), "Parsed %d recommendations (%s mode)\n", len(recs), source)
			return render(cmd.OutOrStdout(), recommendations.NewSet(recs).SortBy(field), format)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "response file, - for stdin")
	cmd.Flags().StringVar(&format, "format", "table", "output: table|csv|tsv|json")
	cmd.Flags().StringVar(&sort, "sort", "score", "sort by: score|name|price|features")
	return cmd
}

// optionsCmd lists accepted values for the request flags.
func optionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List accepted business sizes, categories and complexities",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Business sizes:")
			for _, s := range recommendations.BusinessSizes {
				fmt.Fprintf(w, "  %-22s %s\n", s, s.Label())
			}
			fmt.Fprintln(w, "Categories:")
			for _, c := range recommendations.Categories {
				fmt.Fprintf(w, "  %-22s %s\n", c, c.Label())
			}
			fmt.Fprintln(w, "Complexities:")
			for _, c := range recommendations.Complexities {
				fmt.Fprintf(w, "  %s\n", c)
			}
			return nil
		},
	}
}
