// Package main provides the LINE bot server entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/butecodosdevs/buteco-linebot-go/internal/app"
	"github.com/butecodosdevs/buteco-linebot-go/internal/config"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "buteco-linebot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	application, err := app.Initialize(ctx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	return application.Run()
}
