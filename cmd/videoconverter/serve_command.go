package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"videoconverter/internal/app"
	"videoconverter/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			runCtx := commandCtx(cmd)
			a, err := app.New(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(runCtx, version)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override the configured listen port")
	return cmd
}
