package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

const (
	defaultBaseURL  = "http://localhost:8080"
	defaultGRPCAddr = "localhost:9092"
	defaultTCPAddr  = "127.0.0.1:9090"
)

type globalFlags struct {
	baseURL    string
	grpcAddr   string
	configPath string
	timeout    time.Duration
}

func (g *globalFlags) httpClient() *http.Client {
	return &http.Client{Timeout: g.timeout}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "phrasehub",
		Short:         "Search books for a phrase and see which words surround it",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.baseURL, "api", defaultBaseURL, "API base URL")
	cmd.PersistentFlags().StringVar(&g.grpcAddr, "grpc-addr", defaultGRPCAddr, "gRPC server address")
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file for --local searches")
	cmd.PersistentFlags().DurationVar(&g.timeout, "timeout", 3*time.Minute, "HTTP request timeout")

	cmd.AddCommand(
		newSearchCmd(g),
		newHistoryCmd(g),
		newExportCmd(g),
		newListenCmd(),
		newSubscribeCmd(g),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
