// Package pipeline runs stages against a session: it resolves the handler,
// checks prerequisites, serializes access with the session lock, and records
// stage completion in the session metadata.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"ministory/internal/config"
	"ministory/internal/logging"
	"ministory/internal/regen"
	"ministory/internal/services"
	"ministory/internal/session"
	"ministory/internal/stage"
)

// Runner executes pipeline stages one at a time.
type Runner struct {
	registry *stage.Registry
	cfg      *config.Config
	logger   *slog.Logger

	// ConfigureRegen, when set, adjusts the per-run regeneration controller
	// before the stage executes. The regenerate command uses it to apply
	// stage, scene, and shot force scopes.
	ConfigureRegen func(*regen.Controller)
}

// NewRunner builds a runner over a populated registry.
func NewRunner(registry *stage.Registry, cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{registry: registry, cfg: cfg, logger: logger}
}

// RunStage executes one named stage for the session. On success the stage is
// marked completed and the session's stage pointer advances to the next
// stage, if any. Failure leaves the metadata untouched.
func (r *Runner) RunStage(ctx context.Context, sess *session.Session, name string) error {
	handler, err := r.registry.Resolve(name)
	if err != nil {
		return err
	}

	store := sess.Artifacts()
	if err := stage.CheckPrerequisites(store, name); err != nil {
		return err
	}

	release, err := sess.Acquire(ctx)
	if err != nil {
		return services.Wrap(services.ErrValidation, name, "acquire session lock",
			sess.ID, err)
	}
	defer release()

	ledger, err := regen.OpenLedger(r.cfg.Paths.LedgerPath)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, name, "open generation ledger",
			r.cfg.Paths.LedgerPath, err)
	}
	defer ledger.Close()

	correlationID := uuid.NewString()[:8]
	logger := logging.NewComponentLogger(r.logger, name).With(
		logging.String(logging.FieldSessionID, sess.ID),
		logging.String(logging.FieldCorrelationID, correlationID),
	)

	sc := &stage.Context{
		Session:       sess,
		Store:         store,
		Config:        r.cfg,
		Regen:         regen.NewController(store, logger),
		Ledger:        ledger,
		Logger:        logger,
		CorrelationID: correlationID,
	}
	if r.ConfigureRegen != nil {
		r.ConfigureRegen(sc.Regen)
	}

	logger.Info("stage starting", logging.String(logging.FieldStage, name))
	if err := handler.Prepare(ctx, sc); err != nil {
		return err
	}
	if err := handler.Execute(ctx, sc); err != nil {
		return err
	}

	if err := r.markCompleted(sess, name); err != nil {
		return err
	}
	logger.Info("stage completed", logging.String(logging.FieldStage, name))
	return nil
}

// RunAll executes every stage from the session's current stage pointer
// through the end of the pipeline, stopping at the first failure.
func (r *Runner) RunAll(ctx context.Context, sess *session.Session) error {
	for i := sess.Stage(); i < len(session.Stages); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.RunStage(ctx, sess, session.Stages[i]); err != nil {
			return err
		}
	}
	return nil
}

// Health reports readiness for every registered stage in pipeline order.
func (r *Runner) Health(ctx context.Context) []stage.Health {
	names := r.registry.Names()
	reports := make([]stage.Health, 0, len(names))
	for _, name := range names {
		handler, err := r.registry.Resolve(name)
		if err != nil {
			reports = append(reports, stage.Unhealthy(name, err.Error()))
			continue
		}
		reports = append(reports, handler.HealthCheck(ctx))
	}
	return reports
}

func (r *Runner) markCompleted(sess *session.Session, name string) error {
	if err := sess.MarkCompleted(name, true); err != nil {
		return services.Wrap(services.ErrValidation, name, "mark completed", "", err)
	}
	index := session.StageIndex(name)
	if next := index + 1; next < len(session.Stages) && sess.Stage() <= index {
		if err := sess.SetStage(next); err != nil {
			return services.Wrap(services.ErrValidation, name, "advance stage pointer", "", err)
		}
	}
	return nil
}
