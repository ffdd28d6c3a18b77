package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"phrasehub/pkg/models"
)

type searchListResponse struct {
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Items  []models.SearchSummary `json:"items"`
}

func newHistoryCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse stored searches",
	}

	var q string
	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored searches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := endpoint(g.baseURL, "/searches", url.Values{
				"q":      {q},
				"limit":  {strconv.Itoa(limit)},
				"offset": {strconv.Itoa(offset)},
			})
			if err != nil {
				return err
			}
			var resp searchListResponse
			if err := doJSON(cmd.Context(), g.httpClient(), http.MethodGet, u, nil, &resp); err != nil {
				return fmt.Errorf("list failed: %w", err)
			}
			printSearchList(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	list.Flags().StringVarP(&q, "query", "q", "", "only searches whose phrase contains this text")
	list.Flags().IntVar(&limit, "limit", 20, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "offset")

	var top int
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := fetchRecord(cmd.Context(), g, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printBatch(out, models.BatchRecord{Sources: rec.Sources})
			printSummary(out, *rec, top)
			return nil
		},
	}
	show.Flags().IntVar(&top, "top", 10, "number of surrounding words to show (0 for all)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := endpoint(g.baseURL, "/searches/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			if err := doJSON(cmd.Context(), g.httpClient(), http.MethodDelete, u, nil, nil); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func fetchRecord(ctx context.Context, g *globalFlags, id string) (*models.SearchRecord, error) {
	u, err := endpoint(g.baseURL, "/searches/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var rec models.SearchRecord
	if err := doJSON(ctx, g.httpClient(), http.MethodGet, u, nil, &rec); err != nil {
		return nil, fmt.Errorf("show failed: %w", err)
	}
	return &rec, nil
}

func printSearchList(w io.Writer, resp searchListResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUERY\tSTARTED\tSOURCES")
	for _, s := range resp.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.ID, s.Query, s.StartedAt.Local().Format(time.DateTime), s.SourceCount)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d of %d\n", len(resp.Items), resp.Total)
}
