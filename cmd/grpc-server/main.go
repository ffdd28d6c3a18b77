package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"phrasehub/internal/app"
	"phrasehub/internal/grpcserver"
	"phrasehub/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "grpc-server:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	a, err := app.Load(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	listener, err := net.Listen("tcp", a.Config.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen failed: %w", err)
	}

	grpcServer := grpc.NewServer()
	grpcserver.RegisterSearchServiceServer(grpcServer,
		grpcserver.NewServer(a.Search, a.History, logging.Component(a.Logger, "grpc")))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		a.Logger.Info("stopping grpc server")
		grpcServer.GracefulStop()
	}()

	a.Logger.Info("grpc server listening", "addr", a.Config.GRPCAddr)
	return grpcServer.Serve(listener)
}
