// Package stage defines the contract pipeline stages implement and the
// prerequisite graph that orders them.
package stage

import (
	"context"
	"log/slog"

	"ministory/internal/artifacts"
	"ministory/internal/config"
	"ministory/internal/regen"
	"ministory/internal/session"
)

// Context carries the per-session collaborators a stage needs. The pipeline
// runner builds one Context per action and hands it to every handler call.
type Context struct {
	Session *session.Session
	Store   *artifacts.Store
	Config  *config.Config
	Regen   *regen.Controller
	Ledger  *regen.Ledger
	Logger  *slog.Logger

	// CorrelationID ties log lines from one action together.
	CorrelationID string
}

// Handler is implemented by each pipeline stage.
//
// Prepare validates inputs and loads artifacts but performs no generation.
// Execute does the work. HealthCheck reports whether the stage's external
// dependencies are reachable enough to attempt a run.
type Handler interface {
	Prepare(ctx context.Context, sc *Context) error
	Execute(ctx context.Context, sc *Context) error
	HealthCheck(ctx context.Context) Health
}
