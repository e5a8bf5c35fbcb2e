package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"tool-recommender/internal/recommendations"
)

// render writes the set as an aligned table or as an export document.
func render(w io.Writer, set recommendations.Set, format string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == "table" {
		return renderTable(w, set)
	}
	body, err := set.Export(recommendations.ExportFormat(format))
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// checkFormat rejects an unknown output format before any upstream call is made.
func checkFormat(format string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == "table" {
		return nil
	}
	_, err := recommendations.ParseExportFormat(format)
	return err
}

func renderTable(w io.Writer, set recommendations.Set) error {
	if set.Len() == 0 {
		_, err := fmt.Fprintln(w, "No recommendations.")
		return err
	}
	table := set.Table()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	// Name, Match Score, Pricing, Best For, Degraded
	cols := []int{0, 1, 2, 3, len(table.Header) - 1}
	writeRow(tw, table.Header, cols)
	for _, row := range table.Rows {
		writeRow(tw, row, cols)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if n := set.DegradedCount(); n > 0 {
		_, err := fmt.Fprintf(w, "\n%d of %d recommendations used fallback values.\n", n, set.Len())
		return err
	}
	return nil
}

func writeRow(w io.Writer, row []string, cols []int) {
	cells := make([]string, 0, len(cols))
	for _, i := range cols {
		cells = append(cells, truncate(row[i], 48))
	}
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

type stderrProgress struct {
	w io.Writer
}

func (p stderrProgress) OnFetchEvent(s recommendations.RetryState) {
	switch s.State {
	case recommendations.StateAttempting:
		fmt.Fprintf(p.w, "Requesting recommendations (attempt %d/%d)...\n", s.Attempt, s.MaxAttempts)
	case recommendations.StateBackoff:
		fmt.Fprintf(p.w, "Service busy, retrying in %s...\n", s.Delay.Round(100*time.Millisecond))
	case recommendations.StateExhausted:
		fmt.Fprintln(p.w, "Service still overloaded, giving up.")
	}
}
