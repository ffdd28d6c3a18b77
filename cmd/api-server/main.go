package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"phrasehub/internal/app"
	"phrasehub/internal/live"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "api-server:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	a, err := app.Load(configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	tcpSrv := live.NewServer(a.Config.TCPAddr, a.Hub)

	g, gctx := errgroup.WithContext(ctx)

	// start the TCP feed first so binding errors show up early
	g.Go(func() error {
		return tcpSrv.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("http api listening", "addr", httpSrv.Addr, "db", a.DBPath)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("servers stopped")
	return nil
}
