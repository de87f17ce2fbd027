package scenes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/story"
)

const describerSystemPrompt = `You are a professional visual director and cinematographer creating cinematic prompts for AI image and video generation.

Analyze the shot information and generate prompts optimized for:
1. Scene image generation (reference images of characters and locations are provided)
2. Scene video generation (the scene image is used as the seed frame)

SCENE IMAGE PROMPT GUIDELINES:
- Use character names with gender markers: "Arjun(male)" and "Priya(female)"
- Specify character positioning and how characters align with the location image
- Include detailed character outfit descriptions for visual consistency
- Use cinematic terminology: composition, framing, lens, lighting
- Format: "Cinematic scene: [description] with [character_name(male/female)] in [location] setting, [camera_angle], [lighting], [mood]"

SCENE VIDEO PROMPT GUIDELINES:
- Describe camera movements, character actions, and environmental dynamics
- Include timing, pacing, and the emotional arc of the shot
- Include exact dialogue and narration when present

OUTPUT FORMAT (JSON only):
{
  "scene_image_prompt": "Cinematic scene: ...",
  "scene_video_prompt": {
    "camera_angle": "specific angle and lens details",
    "scene_description": "detailed visual description of setting and action",
    "character_visual_description": "physical appearance and styling of characters present",
    "mood_emotion": "emotional tone",
    "lighting": "lighting setup and color temperature",
    "dialogue": "exact dialogue if present",
    "narration": "exact narration if present"
  }
}`

// Describer turns shots into image/video prompt bundles. A model failure
// never propagates; the fallback description keeps the pipeline moving.
type Describer struct {
	text   generate.TextGenerator
	logger *slog.Logger
}

// NewDescriber builds a describer.
func NewDescriber(text generate.TextGenerator, logger *slog.Logger) *Describer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Describer{text: text, logger: logger}
}

// Describe generates the prompt bundle for one shot.
func (d *Describer) Describe(ctx context.Context, shot story.Shot) *story.SceneDescription {
	userPrompt := "Generate a detailed cinematic description for this shot:\n\n" + shotContext(shot)
	content, err := d.text.CompleteJSON(ctx, describerSystemPrompt, userPrompt)
	if err != nil {
		logging.WarnWithContext(d.logger, "scene description generation failed, using fallback",
			"scene_description_failed",
			logging.String(logging.FieldShotID, shot.ShotID),
			logging.String("error", err.Error()))
		return fallbackDescription(shot)
	}
	var description story.SceneDescription
	if err := generate.DecodeJSON(content, &description); err != nil || description.SceneImagePrompt == "" {
		logging.WarnWithContext(d.logger, "scene description unparseable, using fallback",
			"scene_description_failed",
			logging.String(logging.FieldShotID, shot.ShotID))
		return fallbackDescription(shot)
	}
	return &description
}

func shotContext(shot story.Shot) string {
	var b strings.Builder
	b.WriteString("SHOT INFORMATION:\n")
	fmt.Fprintf(&b, "- Shot ID: %s\n- Description: %s\n- Focus Characters: %s\n- Camera: %s\n- Emotion: %s\n- Narration: %s\n- Lighting: %s\n- Shot Tone: %s\n",
		shot.ShotID, shot.Description, strings.Join(shot.FocusCharacters, ", "),
		shot.Camera, shot.Emotion, shot.Narration, shot.Lighting, shot.ShotTone)
	for _, line := range shot.Dialog {
		for name, text := range line {
			fmt.Fprintf(&b, "- Dialog: %s: %s\n", name, text)
		}
	}

	b.WriteString("\nCHARACTER OUTFIT DETAILS:\n")
	if len(shot.ShotCharacters) == 0 {
		b.WriteString("- No detailed character outfit information available\n")
	}
	for _, sc := range shot.ShotCharacters {
		fmt.Fprintf(&b, "- %s (%s):\n  * Outfit: %s\n  * Outfit Continuity: %s\n  * Action: %s\n",
			sc.CharacterName, sc.CharacterID, sc.OutfitDescription,
			sc.OutfitContinuity, sc.CharacterAction)
	}

	if len(shot.FocusCharacterImages) > 0 {
		b.WriteString("\nCHARACTER REFERENCES:\n")
		for _, ref := range shot.FocusCharacterImages {
			fmt.Fprintf(&b, "- %s: %s (%s) - %s\n",
				ref.CharacterID, ref.CharacterName, ref.Gender, ref.OverallDescription)
		}
	}
	if shot.LocationReference != nil {
		loc := shot.LocationReference
		b.WriteString("\nLOCATION REFERENCE:\n")
		fmt.Fprintf(&b, "- Name: %s\n- Environment: %s\n- Lighting: %s\n- Atmosphere: %s\n",
			loc.Name, loc.Environment, loc.Lighting, loc.Atmosphere)
	}
	return b.String()
}

func fallbackDescription(shot story.Shot) *story.SceneDescription {
	description := shot.Description
	if description == "" {
		description = "A cinematic scene"
	}
	camera := shot.Camera
	if camera == "" {
		camera = "medium shot"
	}
	emotion := shot.Emotion
	if emotion == "" {
		emotion = "neutral"
	}
	lighting := shot.Lighting
	if lighting == "" {
		lighting = "natural lighting"
	}
	var dialogue []string
	for _, line := range shot.Dialog {
		for name, text := range line {
			dialogue = append(dialogue, name+": "+text)
		}
	}
	return &story.SceneDescription{
		SceneImagePrompt: "Cinematic scene: " + description,
		SceneVideoPrompt: story.VideoPrompt{
			CameraAngle:                camera,
			SceneDescription:           description,
			CharacterVisualDescription: "Characters as described in the script",
			MoodEmotion:                emotion,
			Lighting:                   lighting,
			Dialogue:                   strings.Join(dialogue, " "),
			Narration:                  shot.Narration,
		},
	}
}
