package voice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ministory/internal/generate"
	"ministory/internal/identity"
	"ministory/internal/logging"
	"ministory/internal/story"
)

const mappingSystemPrompt = `You are a professional script analyzer specializing in dialog and narration mapping for video production.

Your task is to analyze each shot in a scene and determine:
1. Which character speaks which dialog
2. What narration (if any) accompanies the shot
3. The timing and context of speech

IMPORTANT RULES:
- Map dialog ONLY to characters who are present in the shot (check Focus_Characters)
- If dialog mentions a character but they're not in the shot, it's likely narration
- Narration is typically scene-setting, internal thoughts, or omniscient commentary
- Some shots may have no dialog or narration
- Dialog should match the character's personality and role
- Keep dialog natural and conversational

Return ONLY valid JSON in this exact format:
{
  "scene_id": "SC_01",
  "shots": [
    {
      "shot_id": "SC1_SH1",
      "character_dialogs": [
        {"character_id": "char_01", "character_name": "John", "dialog": "Hello there!"}
      ],
      "narration": "The morning sun cast long shadows across the room",
      "has_dialog": true,
      "has_narration": true
    }
  ]
}`

// CharacterDialog is one spoken line attributed to a registry character.
type CharacterDialog struct {
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name"`
	Dialog        string `json:"dialog"`
}

// ShotDialog carries the speech content of one shot.
type ShotDialog struct {
	ShotID           string            `json:"shot_id"`
	CharacterDialogs []CharacterDialog `json:"character_dialogs"`
	Narration        string            `json:"narration,omitempty"`
	HasDialog        bool              `json:"has_dialog"`
	HasNarration     bool              `json:"has_narration"`
}

// SceneDialogMapping groups the shot dialogs of one scene.
type SceneDialogMapping struct {
	SceneID string       `json:"scene_id"`
	Shots   []ShotDialog `json:"shots"`
}

// MappingDoc is the shot_dialog_mapping.json document.
type MappingDoc struct {
	Scenes []SceneDialogMapping `json:"scenes"`
}

// Mapper attributes dialog lines and narration to speakers, one scene per
// LLM call. A failed call falls back to the attribution already present in
// the script so audio generation can proceed.
type Mapper struct {
	text   generate.TextGenerator
	logger *slog.Logger
}

// NewMapper builds a mapper.
func NewMapper(text generate.TextGenerator, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Mapper{text: text, logger: logger}
}

// MapScript produces the dialog mapping for every scene in the script.
func (m *Mapper) MapScript(ctx context.Context, script *story.Script) *MappingDoc {
	doc := &MappingDoc{Scenes: make([]SceneDialogMapping, 0, len(script.Scenes))}
	for i := range script.Scenes {
		scene := &script.Scenes[i]
		doc.Scenes = append(doc.Scenes, m.mapScene(ctx, scene, script.Characters))
	}
	return doc
}

func (m *Mapper) mapScene(ctx context.Context, scene *story.Scene, characters []story.Character) SceneDialogMapping {
	sceneID := scene.SceneInfo.SceneID
	userPrompt := "Analyze this scene and create dialog mapping:\n\n" + sceneContext(scene, characters)

	content, err := m.text.CompleteJSON(ctx, mappingSystemPrompt, userPrompt)
	if err != nil {
		logging.WarnWithContext(m.logger, "dialog mapping generation failed, deriving from script",
			"dialog_mapping_failed",
			logging.String(logging.FieldSceneID, sceneID),
			logging.String("error", err.Error()))
		return deriveMapping(scene, characters)
	}

	var mapping SceneDialogMapping
	if err := generate.DecodeJSON(content, &mapping); err != nil || len(mapping.Shots) == 0 {
		logging.WarnWithContext(m.logger, "dialog mapping unparseable, deriving from script",
			"dialog_mapping_failed",
			logging.String(logging.FieldSceneID, sceneID))
		return deriveMapping(scene, characters)
	}
	if mapping.SceneID == "" {
		mapping.SceneID = sceneID
	}
	return mapping
}

// deriveMapping builds the mapping straight from the script's Dialog entries,
// resolving speaker names against the registry.
func deriveMapping(scene *story.Scene, characters []story.Character) SceneDialogMapping {
	mapping := SceneDialogMapping{
		SceneID: scene.SceneInfo.SceneID,
		Shots:   make([]ShotDialog, 0, len(scene.Shots)),
	}
	for _, shot := range scene.Shots {
		sd := ShotDialog{ShotID: shot.ShotID}
		for _, line := range shot.Dialog {
			for name, text := range line {
				if strings.TrimSpace(text) == "" {
					continue
				}
				cd := CharacterDialog{CharacterName: name, Dialog: text}
				if match, err := identity.ResolveCharacter(name, characters); err == nil {
					cd.CharacterID = match.ID
					cd.CharacterName = match.Name
				}
				sd.CharacterDialogs = append(sd.CharacterDialogs, cd)
			}
		}
		sd.HasDialog = len(sd.CharacterDialogs) > 0
		if narration := strings.TrimSpace(shot.Narration); narration != "" {
			sd.Narration = narration
			sd.HasNarration = true
		}
		mapping.Shots = append(mapping.Shots, sd)
	}
	return mapping
}

func sceneContext(scene *story.Scene, characters []story.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SCENE: %s\n", scene.SceneInfo.SceneID)
	fmt.Fprintf(&b, "SETTING: %s\n", scene.SceneInfo.Location)
	if scene.SceneInfo.SceneTone != "" {
		fmt.Fprintf(&b, "TONE: %s\n", scene.SceneInfo.SceneTone)
	}

	b.WriteString("\nCHARACTERS IN STORY:\n")
	for _, char := range characters {
		description := char.OverallDescription
		if len(description) > 100 {
			description = description[:100] + "..."
		}
		fmt.Fprintf(&b, "- %s (ID: %s): %s - %s\n", char.Name, char.ID, char.Role, description)
	}

	b.WriteString("\nSCENE CHARACTERS:\n")
	for _, sc := range scene.SceneInfo.SceneCharacters {
		fmt.Fprintf(&b, "- %s (ID: %s)\n", sc.CharacterName, sc.CharacterID)
	}

	b.WriteString("\nSHOTS TO ANALYZE:\n")
	for _, shot := range scene.Shots {
		fmt.Fprintf(&b, "\n--- %s ---\n", shot.ShotID)
		fmt.Fprintf(&b, "Description: %s\n", shot.Description)
		fmt.Fprintf(&b, "Focus Characters: %s\n", strings.Join(shot.FocusCharacters, ", "))
		if shot.Camera != "" {
			fmt.Fprintf(&b, "Camera: %s\n", shot.Camera)
		}
		for _, line := range shot.Dialog {
			for name, text := range line {
				fmt.Fprintf(&b, "Dialog: %s: %s\n", name, text)
			}
		}
		if shot.Narration != "" {
			fmt.Fprintf(&b, "Narration: %s\n", shot.Narration)
		}
		if shot.Emotion != "" {
			fmt.Fprintf(&b, "Emotion: %s\n", shot.Emotion)
		}
	}
	return b.String()
}
