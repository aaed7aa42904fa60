// Command videoconverterd runs the conversion HTTP service with no CLI
// surface. It is the container entrypoint; configuration comes from the
// default config path, VIDEOCONVERTER_CONFIG, and environment overrides.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"videoconverter/internal/app"
	"videoconverter/internal/config"
	"videoconverter/internal/logging"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, strings.TrimSpace(os.Getenv("VIDEOCONVERTER_CONFIG"))); err != nil && !errors.Is(err, context.Canceled) {
		cancel()
		log.Fatal(err)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("assemble service: %w", err)
	}
	defer a.Close()

	if err := a.Serve(ctx, version); err != nil {
		return err
	}
	logger.Info("videoconverterd shutting down")
	return nil
}
