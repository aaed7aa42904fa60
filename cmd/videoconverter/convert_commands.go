package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"videoconverter/internal/app"
	"videoconverter/internal/config"
	"videoconverter/internal/convert"
	"videoconverter/internal/fileutil"
	"videoconverter/internal/media"
)

func newAudioCommand(ctx *commandContext) *cobra.Command {
	var format string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "audio FILE",
		Short: "Extract the audio track of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app.App) error {
				path, duration, err := convertAudio(runCtx, a, args[0], format, outputDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", audioSummary(path, duration))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", media.DefaultAudioFormat,
		"Audio format ("+strings.Join(media.AudioFormats(), ", ")+")")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory for the converted file")
	return cmd
}

func newTextCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "text FILE",
		Short: "Transcribe the speech in a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app.App) error {
				transcript, err := convertText(runCtx, a, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if strings.TrimSpace(outputPath) == "" {
					fmt.Fprintln(out, transcript.Text)
					return nil
				}
				path, err := writeTranscript(outputPath, transcript)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s (%d words", path, transcript.WordCount)
				if transcript.Language != "" {
					fmt.Fprintf(out, ", language %s", transcript.Language)
				}
				fmt.Fprintln(out, ")")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the transcript to this file instead of stdout")
	return cmd
}

// convertAudio converts path and writes the artifact into dir. It returns
// the written file and the probed duration, zero when unknown.
func convertAudio(ctx context.Context, a *app.App, path, format, dir string) (string, time.Duration, error) {
	outcome := a.ConvertFile(ctx, path, convert.OutputAudio, format)
	if outcome.Failure != nil {
		return "", 0, outcome.Failure
	}
	artifact := outcome.Audio
	if artifact == nil {
		return "", 0, errors.New("conversion produced no audio")
	}

	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}
	dir, err := config.ExpandPath(dir)
	if err != nil {
		return "", 0, fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create output directory: %w", err)
	}
	target := filepath.Join(dir, artifact.FileName)
	if err := writeOutput(target, artifact.Data); err != nil {
		return "", 0, err
	}
	return target, artifact.Duration, nil
}

func audioSummary(path string, duration time.Duration) string {
	if duration <= 0 {
		return path
	}
	return fmt.Sprintf("%s (%s)", path, duration.Round(time.Millisecond))
}

func convertText(ctx context.Context, a *app.App, path string) (*convert.Transcript, error) {
	outcome := a.ConvertFile(ctx, path, convert.OutputText, "")
	if outcome.Failure != nil {
		return nil, outcome.Failure
	}
	if outcome.Transcript == nil {
		return nil, errors.New("conversion produced no transcript")
	}
	return outcome.Transcript, nil
}

func writeTranscript(path string, transcript *convert.Transcript) (string, error) {
	target, err := config.ExpandPath(strings.TrimSpace(path))
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	text := transcript.Text
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := writeOutput(target, []byte(text)); err != nil {
		return "", err
	}
	return target, nil
}

func writeOutput(path string, data []byte) error {
	if _, err := fileutil.WriteAtomic(path, bytes.NewReader(data), 0o644, int64(len(data))); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
