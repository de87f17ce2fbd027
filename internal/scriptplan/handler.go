package scriptplan

import (
	"context"
	"errors"

	"ministory/internal/artifacts"
	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/services"
	"ministory/internal/stage"
)

// Handler is the script stage: outline then shots, persisted as
// scenes_info.json and formatted_script.json. The embedded character and
// location lists seed the registries the later stages persist.
type Handler struct {
	text generate.TextGenerator

	rawScript string
}

// NewHandler builds the script stage handler.
func NewHandler(text generate.TextGenerator) *Handler {
	return &Handler{text: text}
}

// Prepare loads the raw story text saved when the session was created.
func (h *Handler) Prepare(_ context.Context, sc *stage.Context) error {
	raw, err := sc.Store.LoadRawScript()
	if err != nil {
		if errors.Is(err, artifacts.ErrMissing) {
			return services.Wrap(services.ErrPrerequisite, "script", "load raw script",
				"no story text in session; create the session with a script file", err)
		}
		return services.Wrap(services.ErrValidation, "script", "load raw script", "", err)
	}
	h.rawScript = raw
	return nil
}

// Execute runs both planning passes and persists every artifact.
func (h *Handler) Execute(ctx context.Context, sc *stage.Context) error {
	planner := NewPlanner(h.text, sc.Config.Pipeline.MaxScenes, sc.Logger)

	outline, err := planner.GenerateOutline(ctx, h.rawScript)
	if err != nil {
		return err
	}
	if err := sc.Store.Save(artifacts.KindScenesInfo, outline); err != nil {
		return services.Wrap(services.ErrValidation, "script", "save scenes info", "", err)
	}
	sc.Logger.Info("outline generated",
		logging.Int("scenes", len(outline.Scenes)),
		logging.Int("characters", len(outline.Characters)),
		logging.Int("locations", len(outline.Locations)))

	script, err := planner.FormatScript(ctx, outline)
	if err != nil {
		return err
	}
	if err := sc.Store.Save(artifacts.KindFormattedScript, script); err != nil {
		return services.Wrap(services.ErrValidation, "script", "save formatted script", "", err)
	}
	return nil
}

// HealthCheck pings the text generator.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.text.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("script", err.Error())
	}
	return stage.Healthy("script")
}
