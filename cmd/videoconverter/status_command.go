package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"videoconverter/internal/app"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show transcoder, engine, and dependency status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app.App) error {
				status := a.Status(runCtx)
				if done, err := writeStructured(cmd, format, status); done {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderStatus(status, shouldColorize(out)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")
	return cmd
}
