package voice

import (
	"context"
	"fmt"
	"os"

	"ministory/internal/artifacts"
	"ministory/internal/assembly"
	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/regen"
	"ministory/internal/services"
	"ministory/internal/stage"
	"ministory/internal/story"
)

// Handler runs the video stage: dialog mapping, voice assignment, speech
// synthesis, then final assembly of the rendered shot clips.
type Handler struct {
	text   generate.TextGenerator
	speech generate.SpeechGenerator

	// Force resynthesizes audio for shots that already have tracks on disk.
	Force bool

	// RunCommand overrides ffmpeg execution during assembly, for tests.
	RunCommand func(ctx context.Context, name string, args ...string) error

	script     *story.Script
	characters []story.Character
}

// NewHandler builds the video stage handler.
func NewHandler(text generate.TextGenerator, speech generate.SpeechGenerator) *Handler {
	return &Handler{text: text, speech: speech}
}

func (h *Handler) Prepare(_ context.Context, sc *stage.Context) error {
	h.script = &story.Script{}
	if err := sc.Store.Load(artifacts.KindScriptWithDescriptions, h.script); err != nil {
		return services.Wrap(services.ErrValidation, "video", "load described script", "", err)
	}
	var doc artifacts.CharactersDoc
	if err := sc.Store.Load(artifacts.KindCharacters, &doc); err != nil {
		return services.Wrap(services.ErrValidation, "video", "load characters", "", err)
	}
	h.characters = doc.Characters
	return nil
}

func (h *Handler) Execute(ctx context.Context, sc *stage.Context) error {
	h.script.Characters = h.characters

	mapper := NewMapper(h.text, sc.Logger)
	mapping := mapper.MapScript(ctx, h.script)
	if err := sc.Store.Save(artifacts.KindDialogMapping, mapping); err != nil {
		return services.Wrap(services.ErrValidation, "video", "save dialog mapping", "", err)
	}
	sc.Logger.Info("dialog mapping saved", logging.Int("scenes", len(mapping.Scenes)))

	if err := h.assignVoices(ctx, sc); err != nil {
		return err
	}

	failed, err := h.synthesizeAudio(ctx, sc, mapping)
	if err != nil {
		return err
	}
	if failed > 0 && !sc.Config.Pipeline.ContinueOnError {
		return services.Wrap(services.ErrExternalService, "video", "synthesize audio",
			fmt.Sprintf("%d shot(s) failed to synthesize", failed), nil)
	}

	return h.assemble(ctx, sc)
}

// HealthCheck pings the text generator; the speech service is exercised
// lazily on the first synthesis call.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.text.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("video", err.Error())
	}
	return stage.Healthy("video")
}

// assignVoices matches registry characters against the speech service's
// catalog and persists the updated registry. An unreachable catalog is not
// fatal; characters fall back to the default voice at synthesis time.
func (h *Handler) assignVoices(ctx context.Context, sc *stage.Context) error {
	voices, err := h.speech.ListVoices(ctx)
	if err != nil {
		logging.WarnWithContext(sc.Logger, "voice catalog unavailable, using default voice",
			"voice_catalog_failed",
			logging.String("error", err.Error()))
	}
	AssignVoices(h.characters, voices, sc.Config.Speech.DefaultVoice, sc.Logger)
	h.script.Characters = h.characters
	if err := sc.Store.Save(artifacts.KindCharacters, &artifacts.CharactersDoc{Characters: h.characters}); err != nil {
		return services.Wrap(services.ErrValidation, "video", "save voice assignments", "", err)
	}
	return nil
}

func (h *Handler) synthesizeAudio(ctx context.Context, sc *stage.Context, mapping *MappingDoc) (int, error) {
	audioDir := sc.Store.AudioDir()
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return 0, services.Wrap(services.ErrValidation, "video", "create audio dir", "", err)
	}

	synth := NewSynthesizer(h.speech, sc.Config.Speech.DefaultVoice, sc.Logger)
	results := synth.Synthesize(ctx, mapping, h.characters, audioDir, func(sceneID, shotID string) bool {
		return sc.Regen.ShouldRegenerate(sceneID, shotID, regen.KindDialogAudio, h.Force)
	})

	var failed int
	for _, result := range results {
		if result.Skipped {
			continue
		}
		status := regen.StatusSuccess
		detail := ""
		if result.Err != nil {
			failed++
			status = regen.StatusFailed
			detail = result.Err.Error()
			logging.WarnWithContext(sc.Logger, "shot audio synthesis failed", "audio_synthesis_failed",
				logging.String(logging.FieldSceneID, result.SceneID),
				logging.String(logging.FieldShotID, result.ShotID),
				logging.String("error", detail))
		}
		sc.Regen.RecordResult(result.SceneID, result.ShotID, regen.KindDialogAudio, status, detail)
		if sc.Ledger != nil {
			rec := regen.Record{
				SessionID: sessionID(sc),
				SceneID:   result.SceneID,
				ShotID:    result.ShotID,
				Kind:      regen.KindDialogAudio,
				Path:      sc.Regen.ArtifactPath(result.SceneID, result.ShotID, regen.KindDialogAudio),
				Status:    status,
			}
			if err := sc.Ledger.Append(ctx, rec); err != nil {
				sc.Logger.Debug("ledger append failed", logging.String("error", err.Error()))
			}
		}
	}
	return failed, nil
}

func (h *Handler) assemble(ctx context.Context, sc *stage.Context) error {
	assembler := assembly.NewAssembler(sc.Store, sc.Config.FFmpegBinary(), sc.Logger)
	if h.RunCommand != nil {
		assembler.WithCommandRunner(h.RunCommand)
	}
	plan := assembler.BuildPlan(h.script)
	report := assembly.Readiness(plan)
	sc.Logger.Info("assembly readiness",
		logging.Int("total_shots", report.TotalShots),
		logging.Int("shots_with_video", report.ShotsWithVideo),
		logging.Int("shots_with_audio", report.ShotsWithAudio))
	if !report.Ready {
		return services.Wrap(services.ErrPrerequisite, "video", "assemble final video",
			"no rendered shot clips found", nil)
	}

	output, err := assembler.Assemble(ctx, plan)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "video", "assemble final video", "", err)
	}
	sc.Logger.Info("final video ready", logging.String("path", output))
	return nil
}

func sessionID(sc *stage.Context) string {
	if sc.Session != nil {
		return sc.Session.ID
	}
	return ""
}
