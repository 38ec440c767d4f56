package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nativewrap/nativewrap/config"
	"github.com/nativewrap/nativewrap/internal/server"
)

func main() {
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	configPath := flag.String("config", "config/config.json", "Config file path")
	storageDir := flag.String("storage", "", "State storage directory (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("WARNING: %v, using defaults", err)
		cfg = &config.Config{ListenPort: 8547}
	}

	// Allow environment variable override
	if envPort := os.Getenv("PORT"); envPort != "" {
		if p, err := strconv.Atoi(envPort); err == nil {
			cfg.ListenPort = p
		}
	}
	if *port != 0 {
		cfg.ListenPort = *port
	}
	if envDir := os.Getenv("NATIVEWRAP_STORAGE"); envDir != "" {
		cfg.StorageDir = envDir
	}
	if *storageDir != "" {
		cfg.StorageDir = *storageDir
	}
	if envRelayer := os.Getenv("NATIVEWRAP_RELAYER"); envRelayer != "" {
		cfg.Relayer = envRelayer
	}

	srv := server.NewServer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(fmt.Sprintf(":%d", cfg.ListenPort))
	})
	g.Go(func() error {
		<-ctx.Done()
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
