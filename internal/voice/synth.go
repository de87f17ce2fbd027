package voice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ministory/internal/fileutil"
	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/regen"
	"ministory/internal/story"
)

// ShotAudio is the synthesis outcome for one shot. Files are ordered
// narration first, then dialog lines in script order; the lexicographic sort
// of the filenames matches that order.
type ShotAudio struct {
	SceneID string
	ShotID  string
	Files   []string
	Skipped bool
	Err     error
}

// Synthesizer turns a dialog mapping into audio files under the session's
// audio directory.
type Synthesizer struct {
	speech         generate.SpeechGenerator
	narrationVoice string
	logger         *slog.Logger
}

// NewSynthesizer builds a synthesizer. narrationVoice speaks every narration
// line; dialog lines use the speaking character's assigned voice.
func NewSynthesizer(speech generate.SpeechGenerator, narrationVoice string, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Synthesizer{speech: speech, narrationVoice: narrationVoice, logger: logger}
}

// AudioPrefix returns the shared filename prefix of a shot's audio files.
func AudioPrefix(sceneID, shotID string) string {
	return regen.FilePrefix(sceneID, shotID, regen.KindDialogAudio)
}

// HasShotAudio reports whether any audio file for the shot exists in dir.
func HasShotAudio(dir, sceneID, shotID string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	prefix := AudioPrefix(sceneID, shotID)
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			return true
		}
	}
	return false
}

// Synthesize generates the audio for every shot in the mapping. regenerate
// decides per shot whether existing audio is rerendered; a nil regenerate
// skips any shot that already has tracks on disk. A failed line fails the
// shot but not its siblings.
func (s *Synthesizer) Synthesize(ctx context.Context, doc *MappingDoc, characters []story.Character, dir string, regenerate func(sceneID, shotID string) bool) []ShotAudio {
	var results []ShotAudio
	for _, scene := range doc.Scenes {
		for _, shot := range scene.Shots {
			if !shot.HasDialog && !shot.HasNarration {
				continue
			}
			results = append(results, s.synthesizeShot(ctx, scene.SceneID, shot, characters, dir, regenerate))
		}
	}
	return results
}

func (s *Synthesizer) synthesizeShot(ctx context.Context, sceneID string, shot ShotDialog, characters []story.Character, dir string, regenerate func(sceneID, shotID string) bool) ShotAudio {
	result := ShotAudio{SceneID: sceneID, ShotID: shot.ShotID}
	if regenerate != nil {
		if !regenerate(sceneID, shot.ShotID) {
			result.Skipped = true
			return result
		}
	} else if HasShotAudio(dir, sceneID, shot.ShotID) {
		result.Skipped = true
		return result
	}

	prefix := AudioPrefix(sceneID, shot.ShotID)

	if shot.HasNarration && strings.TrimSpace(shot.Narration) != "" {
		path := filepath.Join(dir, prefix+"_00_narration.mp3")
		if err := s.render(ctx, shot.Narration, s.narrationVoice, path); err != nil {
			result.Err = fmt.Errorf("narration: %w", err)
		} else {
			result.Files = append(result.Files, path)
		}
	}

	for i, line := range shot.CharacterDialogs {
		if strings.TrimSpace(line.Dialog) == "" {
			continue
		}
		voiceID := characterVoice(line.CharacterID, characters)
		if voiceID == "" {
			voiceID = s.narrationVoice
			logging.WarnWithContext(s.logger, "speaker has no voice, using narration voice",
				"voice_unassigned",
				logging.String(logging.FieldShotID, shot.ShotID),
				logging.String(logging.FieldCharacterID, line.CharacterID))
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%02d_%s.mp3", prefix, i+1, speakerToken(line)))
		if err := s.render(ctx, line.Dialog, voiceID, path); err != nil {
			result.Err = fmt.Errorf("dialog %s: %w", line.CharacterName, err)
			continue
		}
		result.Files = append(result.Files, path)
	}
	return result
}

func (s *Synthesizer) render(ctx context.Context, text, voiceID, path string) error {
	data, err := s.speech.Synthesize(ctx, voiceID, strings.TrimSpace(text))
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

func characterVoice(characterID string, characters []story.Character) string {
	for _, char := range characters {
		if char.ID == characterID {
			return char.VoiceID
		}
	}
	return ""
}

func speakerToken(line CharacterDialog) string {
	token := line.CharacterID
	if token == "" {
		token = strings.ReplaceAll(strings.ToLower(line.CharacterName), " ", "_")
	}
	if token == "" {
		token = "unknown"
	}
	return token
}
