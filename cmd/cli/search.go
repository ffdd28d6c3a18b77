package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"phrasehub/internal/app"
	"phrasehub/internal/grpcserver"
	"phrasehub/pkg/models"
)

type searchFlags struct {
	local  bool
	stream bool
	grpc   bool
	top    int
	asJSON bool
}

func newSearchCmd(g *globalFlags) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search <phrase>",
		Short: "Search every backend for a phrase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			ctx := cmd.Context()

			out := cmd.OutOrStdout()
			onBatch := func(b models.BatchRecord) {
				if !f.asJSON {
					printBatch(out, b)
				}
			}

			var rec *models.SearchRecord
			var err error
			switch {
			case f.local:
				rec, err = searchLocal(ctx, g.configPath, query, onBatch)
			case f.grpc:
				rec, err = searchGRPC(ctx, g.grpcAddr, query, f.top, onBatch)
			case f.stream:
				rec, err = searchStream(ctx, g, query, onBatch)
			default:
				rec, err = searchOnce(ctx, g, query, f.top, onBatch)
			}
			if err != nil {
				return err
			}
			if f.asJSON {
				return printJSON(out, rec)
			}
			printSummary(out, *rec, f.top)
			return nil
		},
	}
	cmd.Flags().BoolVar(&f.local, "local", false, "run the search in-process instead of calling the API")
	cmd.Flags().BoolVar(&f.stream, "stream", false, "print batches as they arrive (server-sent events)")
	cmd.Flags().BoolVar(&f.grpc, "grpc", false, "call the gRPC server instead of the HTTP API")
	cmd.Flags().IntVar(&f.top, "top", 10, "number of surrounding words to show (0 for all)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the final record as JSON")
	cmd.MarkFlagsMutuallyExclusive("local", "stream", "grpc")
	return cmd
}

func searchLocal(ctx context.Context, configPath, query string, onBatch func(models.BatchRecord)) (*models.SearchRecord, error) {
	a, err := app.Load(configPath)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	run, err := a.Search.Start(ctx, query)
	if err != nil {
		return nil, err
	}
	for b := range run.Batches() {
		onBatch(b.Record())
	}
	rec := run.Wait()
	return &rec, nil
}

func searchGRPC(ctx context.Context, addr, query string, top int, onBatch func(models.BatchRecord)) (*models.SearchRecord, error) {
	client, err := grpcserver.Dial(addr)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return client.Search(ctx, query, top, onBatch)
}

func searchOnce(ctx context.Context, g *globalFlags, query string, top int, onBatch func(models.BatchRecord)) (*models.SearchRecord, error) {
	u, err := endpoint(g.baseURL, "/search", url.Values{"q": {query}, "top": {strconv.Itoa(top)}})
	if err != nil {
		return nil, err
	}
	var rec models.SearchRecord
	if err := doJSON(ctx, g.httpClient(), http.MethodGet, u, nil, &rec); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	onBatch(models.BatchRecord{Sources: rec.Sources})
	return &rec, nil
}

func searchStream(ctx context.Context, g *globalFlags, query string, onBatch func(models.BatchRecord)) (*models.SearchRecord, error) {
	u, err := endpoint(g.baseURL, "/search/stream", url.Values{"q": {query}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// the stream lives as long as the search; only ctx bounds it
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search stream failed: %s", strings.TrimSpace(string(body)))
	}

	var rec *models.SearchRecord
	err = readSSE(resp.Body, func(event string, data []byte) error {
		switch event {
		case "batch":
			var b models.BatchRecord
			if err := json.Unmarshal(data, &b); err != nil {
				return fmt.Errorf("decode batch: %w", err)
			}
			onBatch(b)
		case "summary":
			rec = new(models.SearchRecord)
			if err := json.Unmarshal(data, rec); err != nil {
				return fmt.Errorf("decode summary: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("stream ended without a summary")
	}
	return rec, nil
}
