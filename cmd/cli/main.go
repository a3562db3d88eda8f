package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"

	"github.com/dmitrijs2005/careerkit/internal/client/cli"
	"github.com/dmitrijs2005/careerkit/internal/client/config"
	"github.com/dmitrijs2005/careerkit/internal/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	l, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, cli.WithLogger(l))
	if err != nil {
		return fmt.Errorf("start client: %w", err)
	}
	defer app.Close()

	banner()
	app.Run(ctx)
	return nil
}

func banner() {
	figure.NewFigure("careerkit", "cybermedium", true).Print()
	fmt.Println()
}
