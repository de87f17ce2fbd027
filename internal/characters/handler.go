// Package characters implements the characters stage: one portrait per
// registry character, with a placeholder render when the image service
// refuses, persisted to characters.json with image paths filled in.
package characters

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"ministory/internal/artifacts"
	"ministory/internal/fileutil"
	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/regen"
	"ministory/internal/services"
	"ministory/internal/stage"
	"ministory/internal/story"
)

// Handler is the characters stage.
type Handler struct {
	image generate.ImageGenerator

	characters []story.Character
}

// NewHandler builds the characters stage handler.
func NewHandler(image generate.ImageGenerator) *Handler {
	return &Handler{image: image}
}

// Prepare loads the character registry from the formatted script.
func (h *Handler) Prepare(_ context.Context, sc *stage.Context) error {
	var script story.Script
	if err := sc.Store.Load(artifacts.KindFormattedScript, &script); err != nil {
		return services.Wrap(services.ErrValidation, "characters", "load formatted script", "", err)
	}
	if len(script.Characters) == 0 {
		return services.Wrap(services.ErrValidation, "characters", "load formatted script",
			"script has no characters", nil)
	}
	h.characters = script.Characters
	return nil
}

// Execute renders a portrait for every character that does not already have
// one on disk, then persists characters.json. Per-character generation
// failures fall back to a placeholder and do not abort the stage.
func (h *Handler) Execute(ctx context.Context, sc *stage.Context) error {
	dir := sc.Store.PortraitsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrValidation, "characters", "create portraits dir", "", err)
	}

	for i := range h.characters {
		char := &h.characters[i]
		path := filepath.Join(dir, char.ID+"_character.png")
		if fileutil.FileExists(path) && char.ImagePath != "" {
			sc.Logger.Debug("portrait exists, skipping",
				logging.String(logging.FieldCharacterID, char.ID))
			continue
		}

		data, prompt, err := h.renderPortrait(ctx, *char)
		status := regen.StatusSuccess
		if err != nil {
			logging.WarnWithContext(sc.Logger, "portrait generation failed, using placeholder",
				"portrait_generation_failed",
				logging.String(logging.FieldCharacterID, char.ID),
				logging.String("error", err.Error()))
			data, err = placeholderPortrait()
			if err != nil {
				return services.Wrap(services.ErrValidation, "characters", "render placeholder",
					char.ID, err)
			}
			status = regen.StatusFailed
		}
		if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
			return services.Wrap(services.ErrValidation, "characters", "write portrait", char.ID, err)
		}
		char.ImagePath = path

		if sc.Ledger != nil {
			record := regen.Record{
				SessionID: sc.Session.ID,
				SceneID:   char.ID,
				ShotID:    "portrait",
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

	doc := artifacts.CharactersDoc{Characters: h.characters}
	if err := sc.Store.Save(artifacts.KindCharacters, &doc); err != nil {
		return services.Wrap(services.ErrValidation, "characters", "save characters", "", err)
	}
	return nil
}

// HealthCheck reports ready; the image service has no ping endpoint, so
// readiness is established by the first generation call.
func (h *Handler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("characters")
}

// renderPortrait tries the detailed prompt, then the simple prompt.
func (h *Handler) renderPortrait(ctx context.Context, char story.Character) ([]byte, string, error) {
	prompt := PortraitPrompt(char)
	data, err := h.image.GenerateImage(ctx, prompt, nil)
	if err == nil {
		return data, prompt, nil
	}
	prompt = SimplePortraitPrompt(char)
	data, retryErr := h.image.GenerateImage(ctx, prompt, nil)
	if retryErr == nil {
		return data, prompt, nil
	}
	return nil, "", fmt.Errorf("detailed prompt: %w; simple prompt: %w", err, retryErr)
}

// placeholderPortrait renders the flat gray stand-in used when generation
// fails, so downstream reference attachment still has an image path.
func placeholderPortrait() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	gray := color.RGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}
	for y := 0; y < 400; y++ {
		for x := 0; x < 400; x++ {
			img.Set(x, y, gray)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
