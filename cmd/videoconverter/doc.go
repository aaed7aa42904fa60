// Command videoconverter is the console front-end for the converter.
//
// It runs the HTTP service (serve), converts single files from the shell
// (audio, text, interactive), and inspects local state (status, bootstrap,
// history, config). Every subcommand assembles the same internal/app wiring
// the server uses, so console and HTTP conversions share one pipeline.
package main
