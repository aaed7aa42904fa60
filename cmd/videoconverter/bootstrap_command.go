package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"videoconverter/internal/api"
	"videoconverter/internal/app"
	"videoconverter/internal/bootstrap"
)

func newBootstrapCommand(ctx *commandContext) *cobra.Command {
	var retry bool
	var output string

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Acquire the speech model and transcoder and wait for them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app.App) error {
				snapshots := a.Bootstrap(runCtx, retry)
				if err := runCtx.Err(); err != nil {
					return err
				}
				if done, err := writeStructured(cmd, format, api.FromSnapshots(snapshots)); done {
					if err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					if len(snapshots) == 0 {
						fmt.Fprintln(out, "No dependencies to acquire")
						return nil
					}
					fmt.Fprintln(out, renderSnapshots(snapshots))
				}
				return bootstrapError(snapshots)
			})
		},
	}

	cmd.Flags().BoolVar(&retry, "retry", false, "Reset failed dependencies before acquiring")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")
	return cmd
}

func renderSnapshots(snapshots []bootstrap.Snapshot) string {
	rows := make([][]string, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, []string{s.Name, s.StateName, strconv.Itoa(s.Attempts), s.Path, s.Error})
	}
	return renderTable(
		[]string{"Dependency", "State", "Attempts", "Path", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

// bootstrapError reports dependencies that did not become ready so the
// command exits non-zero.
func bootstrapError(snapshots []bootstrap.Snapshot) error {
	var failed []string
	for _, s := range snapshots {
		if s.State != bootstrap.StateReady {
			failed = append(failed, s.Name)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("dependencies not ready: %v (rerun with --retry)", failed)
}
