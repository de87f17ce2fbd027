// Package preflight provides readiness checks for the external services and
// filesystem paths the pipeline depends on. The CLI "ministory status"
// command runs them before reporting session state so a doomed run fails in
// seconds instead of mid-stage.
package preflight

import (
	"context"
	"path/filepath"

	"ministory/internal/config"
	"ministory/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Sessions directory", cfg.Paths.SessionsDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if dir := filepath.Dir(cfg.Paths.LedgerPath); dir != "" && dir != "." {
		results = append(results, CheckDirectoryAccess("Ledger directory", dir))
	}

	results = append(results, CheckLLM(ctx, cfg.LLM))
	results = append(results, CheckAPIKey("Image service", cfg.Image.APIKey))
	results = append(results, CheckAPIKey("Speech service", cfg.Speech.APIKey))
	results = append(results, CheckAPIKey("Video service", cfg.Video.APIKey))
	results = append(results, CheckFFmpeg(cfg))

	return results
}

// CheckFFmpeg verifies the assembly binary is on PATH.
func CheckFFmpeg(cfg *config.Config) Result {
	statuses := deps.CheckBinaries([]deps.Requirement{{
		Name:        "FFmpeg",
		Command:     cfg.FFmpegBinary(),
		Description: "Required for final video assembly",
	}})
	status := statuses[0]
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail}
	}
	return Result{Name: status.Name, Passed: true, Detail: status.Command}
}
