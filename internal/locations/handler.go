// Package locations implements the locations stage: an establishing-shot
// render per location with the prompt retained on the record, persisted to
// locations.json.
package locations

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ministory/internal/artifacts"
	"ministory/internal/fileutil"
	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/regen"
	"ministory/internal/services"
	"ministory/internal/stage"
	"ministory/internal/story"
)

var titleCaser = cases.Title(language.English)

// Handler is the locations stage.
type Handler struct {
	image generate.ImageGenerator

	locations []story.Location
}

// NewHandler builds the locations stage handler.
func NewHandler(image generate.ImageGenerator) *Handler {
	return &Handler{image: image}
}

// Prepare loads the location registry from the formatted script.
func (h *Handler) Prepare(_ context.Context, sc *stage.Context) error {
	var script story.Script
	if err := sc.Store.Load(artifacts.KindFormattedScript, &script); err != nil {
		return services.Wrap(services.ErrValidation, "locations", "load formatted script", "", err)
	}
	if len(script.Locations) == 0 {
		return services.Wrap(services.ErrValidation, "locations", "load formatted script",
			"script has no locations", nil)
	}
	h.locations = script.Locations
	return nil
}

// Execute renders one image per location that does not already have one and
// persists locations.json. Per-location failures are recorded and skipped.
func (h *Handler) Execute(ctx context.Context, sc *stage.Context) error {
	dir := sc.Store.LocationImagesDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrValidation, "locations", "create images dir", "", err)
	}

	for i := range h.locations {
		loc := &h.locations[i]
		// Extracted names arrive in script casing (often all caps); normalize
		// for display before the record is persisted.
		loc.Name = titleCaser.String(loc.Name)

		path := filepath.Join(dir, loc.LocationID+"_location.png")
		prompt := ImagePrompt(*loc)
		loc.LocationImagePrompt = prompt

		if fileutil.FileExists(path) && loc.ImagePath != "" {
			sc.Logger.Debug("location image exists, skipping",
				logging.String("location_id", loc.LocationID))
			continue
		}

		data, err := h.image.GenerateImage(ctx, prompt, nil)
		status := regen.StatusSuccess
		if err != nil {
			logging.WarnWithContext(sc.Logger, "location image generation failed",
				"location_generation_failed",
				logging.String("location_id", loc.LocationID),
				logging.String("error", err.Error()))
			status = regen.StatusFailed
		} else {
			if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
				return services.Wrap(services.ErrValidation, "locations", "write image",
					loc.LocationID, err)
			}
			loc.ImagePath = path
		}

		if sc.Ledger != nil {
			record := regen.Record{
				SessionID: sc.Session.ID,
				SceneID:   loc.LocationID,
				ShotID:    "location",
				Kind:      regen.KindSceneImage,
				Path:      path,
				Status:    status,
				Prompt:    prompt,
			}
			if err := sc.Ledger.Append(ctx, record); err != nil {
				sc.Logger.Warn("ledger append failed", logging.String("error", err.Error()))
			}
		}
	}

	doc := artifacts.LocationsDoc{Locations: h.locations}
	if err := sc.Store.Save(artifacts.KindLocations, &doc); err != nil {
		return services.Wrap(services.ErrValidation, "locations", "save locations", "", err)
	}
	return nil
}

// HealthCheck reports ready; readiness is established by the first
// generation call.
func (h *Handler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("locations")
}
