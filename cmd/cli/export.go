package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"phrasehub/pkg/models"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:       "export <json|csv> <id>",
		Short:     "Export a stored search",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"json", "csv"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, id := args[0], args[1]
			if format != "json" && format != "csv" {
				return fmt.Errorf("unknown format %q, want json or csv", format)
			}
			rec, err := fetchRecord(cmd.Context(), g, id)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = filepath.Join("exports", rec.ID+"."+format)
			}
			if format == "json" {
				err = writeJSONFile(outPath, rec)
			} else {
				err = writeCSVFile(outPath, *rec)
			}
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "exported to", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default exports/<id>.<format>)")
	return cmd
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeCSVFile(path string, rec models.SearchRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeCSV(file, rec)
}

// writeCSV writes one row per snippet.
func writeCSV(w io.Writer, rec models.SearchRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{
		"backend", "title", "authors", "year", "snippet", "word_before", "word_after",
	}); err != nil {
		return err
	}
	for _, s := range rec.Sources {
		year := ""
		if s.PublishedYear != nil {
			year = strconv.Itoa(*s.PublishedYear)
		}
		for _, sn := range s.Snippets {
			if err := writer.Write([]string{
				s.Backend,
				s.Title,
				strings.Join(s.Authors, "; "),
				year,
				sn.Text,
				sn.WordFromLeft,
				sn.WordFromRight,
			}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
