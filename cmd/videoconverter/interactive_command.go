package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"videoconverter/internal/app"
	"videoconverter/internal/convert"
	"videoconverter/internal/media"
)

// errNotInteractive is returned when stdin cannot drive prompts.
var errNotInteractive = errors.New("interactive mode needs a terminal; use the audio or text commands in scripts")

// prompter asks the user for values. Tests swap in a scripted one.
type prompter interface {
	Input(message, defaultValue string) (string, error)
	Select(message string, options []string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(message, defaultValue string) (string, error) {
	var result string
	prompt := &survey.Input{Message: message, Default: defaultValue}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (surveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	var result string
	prompt := &survey.Select{Message: message, Options: options, Default: defaultValue}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (surveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{Message: message, Default: defaultValue}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

var (
	defaultPrompter prompter = surveyPrompter{}
	stdinIsTerminal          = func() bool {
		fd := os.Stdin.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
)

func newInteractiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Convert files by answering prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !stdinIsTerminal() {
				return errNotInteractive
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app.App) error {
				return runInteractive(runCtx, cmd, a, defaultPrompter)
			})
		},
	}
}

func runInteractive(ctx context.Context, cmd *cobra.Command, a *app.App, p prompter) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Video converter")
	fmt.Fprintf(out, "Supported inputs: %s\n\n", strings.Join(media.VideoExtensions(), ", "))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := interactiveRound(ctx, cmd, a, p); err != nil {
			var failure *convert.Failure
			if !errors.As(err, &failure) {
				return err
			}
			fmt.Fprintf(out, "Conversion failed: %s\n", failure.Message)
		}
		again, err := p.Confirm("Convert another file?", false)
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
		fmt.Fprintln(out)
	}
}

func interactiveRound(ctx context.Context, cmd *cobra.Command, a *app.App, p prompter) error {
	out := cmd.OutOrStdout()

	path, err := p.Input("Video file", "")
	if err != nil {
		return err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		fmt.Fprintln(out, "No video file provided")
		return nil
	}

	kind, err := p.Select("Convert to", []string{string(convert.OutputAudio), string(convert.OutputText)}, string(convert.OutputAudio))
	if err != nil {
		return err
	}

	if convert.OutputKind(kind) == convert.OutputAudio {
		format, err := p.Select("Audio format", media.AudioFormats(), media.DefaultAudioFormat)
		if err != nil {
			return err
		}
		dir, err := p.Input("Output directory", ".")
		if err != nil {
			return err
		}
		target, duration, err := convertAudio(ctx, a, path, format, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", audioSummary(target, duration))
		return nil
	}

	dest, err := p.Input("Transcript file (leave blank to print)", "")
	if err != nil {
		return err
	}
	transcript, err := convertText(ctx, a, path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(dest) == "" {
		fmt.Fprintln(out, transcript.Text)
	} else {
		written, err := writeTranscript(dest, transcript)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", written)
	}
	fmt.Fprintf(out, "Words: %d\n", transcript.WordCount)
	return nil
}
