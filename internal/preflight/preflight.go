package preflight

import (
	"context"

	"videoconverter/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir)}
	if results[0].Passed {
		// One upload plus its converted output must fit at the same time.
		results = append(results, CheckFreeSpace("Temp space", cfg.Paths.TempDir, 2*cfg.MaxUploadBytes()))
	}

	if cfg.ModelRequired() {
		results = append(results, CheckDirectoryAccess("Model directory", cfg.Paths.ModelDir))
	}
	if cfg.TranscoderBootstrapped() {
		results = append(results, CheckDirectoryAccess("Tools directory", cfg.Paths.ToolsDir))
	}
	if cfg.Recognition.Engine == config.EngineOpenAI {
		results = append(results, CheckOpenAI(ctx, cfg.Recognition.OpenAIBaseURL, cfg.Recognition.OpenAIAPIKey))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
