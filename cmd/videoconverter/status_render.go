package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"videoconverter/internal/api"
	"videoconverter/internal/bootstrap"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusKinds = map[statusKind]struct {
	label string
	color text.Color
}{
	statusInfo:  {"INFO", text.FgBlue},
	statusOK:    {"OK", text.FgGreen},
	statusWarn:  {"WARN", text.FgYellow},
	statusError: {"ERROR", text.FgRed},
}

const statusLabelWidth = 20

// renderStatusLine formats "  Label:   [KIND] message", coloured whole when
// colorize is set.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusKinds[kind]
	line := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.color.Sprint(line)
	}
	return line
}

// statusReport accumulates sections of status lines.
type statusReport struct {
	lines    []string
	colorize bool
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	header := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(header))
	if r.colorize {
		header, rule = text.FgBlue.Sprint(header), text.FgBlue.Sprint(rule)
	}
	r.lines = append(r.lines, header, rule)
}

func (r *statusReport) line(label string, kind statusKind, message string) {
	r.lines = append(r.lines, renderStatusLine(label, kind, message, r.colorize))
}

func (r *statusReport) String() string {
	return strings.Join(r.lines, "\n") + "\n"
}

// dependencyKind maps a bootstrap state onto a status colour.
func dependencyKind(state string) statusKind {
	switch state {
	case bootstrap.StateReady.String():
		return statusOK
	case bootstrap.StateFailed.String():
		return statusError
	case bootstrap.StateAcquiring.String():
		return statusWarn
	default:
		return statusInfo
	}
}

func renderStatus(status api.Status, colorize bool) string {
	r := &statusReport{colorize: colorize}

	r.section("Service")
	r.line("Environment", statusInfo, status.Environment)
	r.line("Engine", statusInfo, status.Engine)
	if status.ToolAvailable {
		r.line("Transcoder", statusOK, "available: yes")
	} else {
		r.line("Transcoder", statusError, "available: no")
	}
	r.line("Inputs", statusInfo, strings.Join(status.SupportedInputExtensions, ", "))
	r.line("Audio outputs", statusInfo, strings.Join(status.SupportedAudioOutputs, ", "))
	r.line("Text outputs", statusInfo, strings.Join(status.SupportedTextOutputs, ", "))

	r.section("Dependencies")
	if len(status.Dependencies) == 0 {
		r.line("None", statusInfo, "nothing to acquire")
	}
	for _, dep := range status.Dependencies {
		message := dep.State
		if dep.Error != "" {
			message += ": " + dep.Error
		}
		r.line(dep.Name, dependencyKind(dep.State), message)
	}

	if len(status.Tools) > 0 {
		r.section("Tools")
		for _, tool := range status.Tools {
			switch {
			case tool.Available:
				r.line(tool.Name, statusOK, tool.Command)
			case tool.Optional:
				r.line(tool.Name, statusWarn, tool.Detail)
			default:
				r.line(tool.Name, statusError, tool.Detail)
			}
		}
	}
	return r.String()
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
