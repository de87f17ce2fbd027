// Package scenes implements the scenes stage: reference attachment, outfit
// continuity, per-shot prompt bundles, then gated image and video rendering.
package scenes

import (
	"context"
	"fmt"
	"os"

	"ministory/internal/artifacts"
	"ministory/internal/fileutil"
	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/outfits"
	"ministory/internal/refattach"
	"ministory/internal/regen"
	"ministory/internal/services"
	"ministory/internal/stage"
	"ministory/internal/story"
)

// Handler is the scenes stage.
type Handler struct {
	text  generate.TextGenerator
	image generate.ImageGenerator
	video generate.VideoGenerator

	// Force marks every shot artifact of the stage for regeneration.
	Force bool

	script     *story.Script
	characters []story.Character
	locations  []story.Location
}

// NewHandler builds the scenes stage handler.
func NewHandler(text generate.TextGenerator, image generate.ImageGenerator, video generate.VideoGenerator) *Handler {
	return &Handler{text: text, image: image, video: video}
}

// Prepare loads the script tree and both registries.
func (h *Handler) Prepare(_ context.Context, sc *stage.Context) error {
	var script story.Script
	if err := sc.Store.Load(artifacts.KindFormattedScript, &script); err != nil {
		return services.Wrap(services.ErrValidation, "scenes", "load formatted script", "", err)
	}
	var chars artifacts.CharactersDoc
	if err := sc.Store.Load(artifacts.KindCharacters, &chars); err != nil {
		return services.Wrap(services.ErrValidation, "scenes", "load characters", "", err)
	}
	var locs artifacts.LocationsDoc
	if err := sc.Store.Load(artifacts.KindLocations, &locs); err != nil {
		return services.Wrap(services.ErrValidation, "scenes", "load locations", "", err)
	}
	h.script = &script
	h.characters = chars.Characters
	h.locations = locs.Locations
	return nil
}

// Execute runs the consistency passes and renders every pending shot.
// Cancellation is honored between scenes only, so a scene's artifacts are
// never left half-written by an interrupt.
func (h *Handler) Execute(ctx context.Context, sc *stage.Context) error {
	// The registry documents carry image paths the formatted script predates.
	h.script.Characters = h.characters
	h.script.Locations = h.locations

	report := refattach.Attach(h.script, h.characters, h.locations, sc.Logger)
	sc.Logger.Info("references attached",
		logging.Int("characters_attached", report.CharactersAttached),
		logging.Int("locations_attached", report.LocationsAttached),
		logging.Int("warnings", len(report.Warnings)))

	tracker := outfits.NewTracker(sc.Logger)
	tracker.ProcessScript(h.script)
	if err := tracker.Save(sc.Store.Path(artifacts.KindOutfitTracking)); err != nil {
		return services.Wrap(services.ErrValidation, "scenes", "save outfit tracking", "", err)
	}

	for _, dir := range []string{sc.Store.ImagesDir(), sc.Store.VideosDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrValidation, "scenes", "create output dirs", "", err)
		}
	}

	sc.Regen.Rescan(h.script)
	describer := NewDescriber(h.text, sc.Logger)

	var failed int
	for i := range h.script.Scenes {
		if err := ctx.Err(); err != nil {
			return err
		}
		scene := &h.script.Scenes[i]
		sceneID := scene.SceneInfo.SceneID
		for j := range scene.Shots {
			shot := &scene.Shots[j]
			if shot.SceneDescription == nil {
				shot.SceneDescription = describer.Describe(ctx, *shot)
			}
			if !h.renderShot(ctx, sc, sceneID, shot) {
				failed++
			}
		}
		// Persist after every scene so an interrupt loses at most one scene
		// of description work.
		if err := sc.Store.Save(artifacts.KindScriptWithDescriptions, h.script); err != nil {
			return services.Wrap(services.ErrValidation, "scenes", "save script with descriptions", "", err)
		}
	}

	if failed > 0 && !sc.Config.Pipeline.ContinueOnError {
		return services.Wrap(services.ErrExternalService, "scenes", "render shots",
			fmt.Sprintf("%d shot(s) failed to render", failed), nil)
	}
	return nil
}

// HealthCheck pings the text generator; the image and video services have no
// ping endpoints.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.text.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("scenes", err.Error())
	}
	return stage.Healthy("scenes")
}

// renderShot generates the shot image and, when the image exists, the shot
// clip. Returns false when any pending render failed.
func (h *Handler) renderShot(ctx context.Context, sc *stage.Context, sceneID string, shot *story.Shot) bool {
	ok := true
	imagePath := sc.Regen.ArtifactPath(sceneID, shot.ShotID, regen.KindSceneImage)

	if sc.Regen.ShouldRegenerate(sceneID, shot.ShotID, regen.KindSceneImage, h.Force) {
		if !h.renderImage(ctx, sc, sceneID, shot, imagePath) {
			ok = false
		}
	}

	if !fileutil.FileExists(imagePath) {
		// No seed frame; video generation would fail anyway.
		return ok
	}
	if sc.Regen.ShouldRegenerate(sceneID, shot.ShotID, regen.KindShotVideo, h.Force) {
		if !h.renderVideo(ctx, sc, sceneID, shot, imagePath) {
			ok = false
		}
	}
	return ok
}

func (h *Handler) renderImage(ctx context.Context, sc *stage.Context, sceneID string, shot *story.Shot, path string) bool {
	prompt := shot.SceneDescription.SceneImagePrompt
	refs, refIDs := h.referenceImages(sc, shot)

	data, err := h.image.GenerateImage(ctx, prompt, refs)
	if err != nil {
		sc.Regen.RecordResult(sceneID, shot.ShotID, regen.KindSceneImage, regen.StatusFailed, err.Error())
		h.appendLedger(ctx, sc, sceneID, shot.ShotID, regen.KindSceneImage, path, regen.StatusFailed, prompt, refIDs)
		return false
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		sc.Regen.RecordResult(sceneID, shot.ShotID, regen.KindSceneImage, regen.StatusFailed, err.Error())
		return false
	}
	sc.Regen.RecordResult(sceneID, shot.ShotID, regen.KindSceneImage, regen.StatusSuccess, "")
	h.appendLedger(ctx, sc, sceneID, shot.ShotID, regen.KindSceneImage, path, regen.StatusSuccess, prompt, refIDs)
	return true
}

func (h *Handler) renderVideo(ctx context.Context, sc *stage.Context, sceneID string, shot *story.Shot, imagePath string) bool {
	path := sc.Regen.ArtifactPath(sceneID, shot.ShotID, regen.KindShotVideo)
	prompt := videoPromptText(shot.SceneDescription.SceneVideoPrompt)

	seed, err := os.ReadFile(imagePath)
	if err != nil {
		sc.Regen.RecordResult(sceneID, shot.ShotID, regen.KindShotVideo, regen.StatusFailed, err.Error())
		return false
	}
	data, err := h.video.GenerateVideo(ctx, prompt, seed)
	if err != nil {
		sc.Regen.RecordResult(sceneID, shot.ShotID, regen.KindShotVideo, regen.StatusFailed, err.Error())
		h.appendLedger(ctx, sc, sceneID, shot.ShotID, regen.KindShotVideo, path, regen.StatusFailed, prompt, nil)
		return false
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		sc.Regen.RecordResult(sceneID, shot.ShotID, regen.KindShotVideo, regen.StatusFailed, err.Error())
		return false
	}
	sc.Regen.RecordResult(sceneID, shot.ShotID, regen.KindShotVideo, regen.StatusSuccess, "")
	h.appendLedger(ctx, sc, sceneID, shot.ShotID, regen.KindShotVideo, path, regen.StatusSuccess, prompt, nil)
	return true
}

// referenceImages loads the portrait of every focus character plus the scene
// location render. Unreadable references are skipped; the prompt still names
// them.
func (h *Handler) referenceImages(sc *stage.Context, shot *story.Shot) ([][]byte, []string) {
	var refs [][]byte
	var ids []string
	for _, ref := range shot.FocusCharacterImages {
		if ref.ImagePath == "" {
			continue
		}
		data, err := os.ReadFile(ref.ImagePath)
		if err != nil {
			sc.Logger.Debug("character reference unreadable",
				logging.String(logging.FieldCharacterID, ref.CharacterID))
			continue
		}
		refs = append(refs, data)
		ids = append(ids, ref.CharacterID)
	}
	if shot.LocationReference != nil && shot.LocationReference.ImagePath != "" {
		if data, err := os.ReadFile(shot.LocationReference.ImagePath); err == nil {
			refs = append(refs, data)
			ids = append(ids, shot.LocationReference.LocationID)
		}
	}
	return refs, ids
}

func (h *Handler) appendLedger(ctx context.Context, sc *stage.Context, sceneID, shotID string, kind regen.Kind, path, status, prompt string, refIDs []string) {
	if sc.Ledger == nil {
		return
	}
	record := regen.Record{
		SessionID:    sc.Session.ID,
		SceneID:      sceneID,
		ShotID:       shotID,
		Kind:         kind,
		Path:         path,
		Status:       status,
		Prompt:       prompt,
		ReferenceIDs: refIDs,
	}
	if err := sc.Ledger.Append(ctx, record); err != nil {
		sc.Logger.Warn("ledger append failed", logging.String("error", err.Error()))
	}
}

func videoPromptText(vp story.VideoPrompt) string {
	prompt := "Cinematic video sequence: " + vp.SceneDescription +
		" Camera: " + vp.CameraAngle +
		". Characters: " + vp.CharacterVisualDescription +
		". Mood: " + vp.MoodEmotion +
		". Lighting: " + vp.Lighting + "."
	if vp.Dialogue != "" {
		prompt += " Dialogue: " + vp.Dialogue
	}
	if vp.Narration != "" {
		prompt += " Narration: " + vp.Narration
	}
	return prompt
}
