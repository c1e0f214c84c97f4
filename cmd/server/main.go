package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/config"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/server"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	host := flag.String("host", "", "Listen host (overrides HOST)")
	envFile := flag.String("env", ".env", "Optional dotenv file")
	dev := flag.Bool("dev", false, "Development mode (console logs, debug level)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.Run(ctx)
	_ = srv.Close()
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
