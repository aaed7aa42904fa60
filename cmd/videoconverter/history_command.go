package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"videoconverter/internal/api"
	"videoconverter/internal/app"
	"videoconverter/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var output string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app.App) error {
				if a.History == nil {
					return errors.New("conversion history is disabled in the configuration")
				}
				entries, err := a.History.List(runCtx, limit)
				if err != nil {
					return err
				}
				resp := api.HistoryResponse{Entries: api.FromHistory(entries)}
				if done, err := writeStructured(cmd, format, resp); done {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No conversions recorded")
					return nil
				}
				fmt.Fprintln(out, renderHistory(entries))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json, yaml)")
	return cmd
}

func renderHistory(entries []history.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		result := string(e.Status)
		if e.FailureKind != "" {
			result = e.FailureKind
		}
		detail := e.Format
		if e.Kind == "text" {
			detail = strconv.Itoa(e.WordCount) + " words"
			if e.Language != "" {
				detail += " (" + e.Language + ")"
			}
		}
		rows = append(rows, []string{
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Kind,
			e.FileName,
			result,
			detail,
			e.Duration.Round(time.Millisecond).String(),
		})
	}
	return renderTable(
		[]string{"When", "Kind", "File", "Result", "Detail", "Took"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}
