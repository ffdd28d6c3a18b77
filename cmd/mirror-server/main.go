package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"phrasehub/internal/logging"
	"phrasehub/internal/mirror"
)

func main() {
	// serves data/mirror/*.json in the shape of the live APIs; point the
	// backends' base_url at it for offline runs
	dataDir := flag.String("data", "data/mirror", "fixture directory")
	addr := flag.String("addr", ":9000", "listen address")
	flag.Parse()

	cleanup, err := logging.Setup(logging.Config{Level: "info"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	fixtures, err := mirror.Load(*dataDir)
	if err != nil {
		slog.Error("loading fixtures failed", "err", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	fixtures.RegisterRoutes(router)

	slog.Info("mirror-server listening", "addr", *addr,
		"google_books", len(fixtures.GoogleBooks), "open_library", len(fixtures.OpenLibrary))
	if err := router.Run(*addr); err != nil {
		slog.Error("mirror-server stopped", "err", err)
		os.Exit(1)
	}
}
