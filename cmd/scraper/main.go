package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"phrasehub/internal/app"
)

// scraper runs one search per argument and stores each in the history
// database, e.g. scraper -config phrasehub.yaml "making it" "on purpose".
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: scraper [-config file] <phrase>...")
		os.Exit(2)
	}
	if err := run(*configPath, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "scraper:", err)
		os.Exit(1)
	}
}

func run(configPath string, queries []string) error {
	a, err := app.Load(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, q := range queries {
		job, err := a.Search.Start(ctx, q)
		if err != nil {
			a.Logger.Warn("skipping query", "query", q, "err", err)
			failed++
			continue
		}
		rec := job.Wait()
		if err := job.SaveErr(); err != nil {
			failed++
			continue
		}
		fmt.Printf("%s\t%q\t%d sources\t%d snippets\n", rec.ID, rec.Query, rec.Stats.Sources, rec.Stats.Snippets)
		if ctx.Err() != nil {
			break
		}
	}

	a.Logger.Info("scrape finished", "queries", len(queries), "failed", failed, "db", a.DBPath)
	if failed > 0 {
		return fmt.Errorf("%d of %d queries failed", failed, len(queries))
	}
	return nil
}
