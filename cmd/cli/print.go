package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"phrasehub/pkg/models"
)

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printBatch(w io.Writer, b models.BatchRecord) {
	for _, s := range b.Sources {
		fmt.Fprintf(w, "[%s] %s\n", s.Backend, sourceLine(s))
		for _, sn := range s.Snippets {
			fmt.Fprintf(w, "    %s\n", sn.Text)
		}
	}
}

func sourceLine(s models.SourceRecord) string {
	var extra []string
	if len(s.Authors) > 0 {
		extra = append(extra, strings.Join(s.Authors, ", "))
	}
	if s.PublishedYear != nil {
		extra = append(extra, strconv.Itoa(*s.PublishedYear))
	}
	if len(extra) == 0 {
		return s.Title
	}
	return s.Title + " (" + strings.Join(extra, ", ") + ")"
}

// printSummary writes the top word tallies side by side.
func printSummary(w io.Writer, rec models.SearchRecord, top int) {
	fmt.Fprintf(w, "\n%q: %d sources, %d snippets, %d backend failures\n",
		rec.Query, rec.Stats.Sources, rec.Stats.Snippets, rec.Stats.BackendFailures)

	left := trim(rec.LeftWords, top)
	right := trim(rec.RightWords, top)
	if len(left) == 0 && len(right) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BEFORE\tCOUNT\tAFTER\tCOUNT")
	for i := 0; i < max(len(left), len(right)); i++ {
		var l, r models.WordCount
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Word, countCell(l), r.Word, countCell(r))
	}
	_ = tw.Flush()
}

func countCell(wc models.WordCount) string {
	if wc.Count == 0 {
		return ""
	}
	return strconv.Itoa(wc.Count)
}

func trim(words []models.WordCount, n int) []models.WordCount {
	if n > 0 && len(words) > n {
		return words[:n]
	}
	return words
}
