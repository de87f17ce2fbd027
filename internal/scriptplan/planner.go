// Package scriptplan implements the script stage: LLM scene structuring into
// scenes_info.json, per-scene shot breakdowns into formatted_script.json, and
// the extraction fallbacks that recover characters and locations when the
// model omits them.
package scriptplan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/services"
	"ministory/internal/story"
)

// Planner turns raw story text into the structured script tree.
type Planner struct {
	text      generate.TextGenerator
	maxScenes int
	logger    *slog.Logger
}

// NewPlanner builds a planner. maxScenes caps how many scenes the outline
// keeps; zero means no cap.
func NewPlanner(text generate.TextGenerator, maxScenes int, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Planner{text: text, maxScenes: maxScenes, logger: logger}
}

// GenerateOutline runs the scene structuring pass over the raw script and
// returns the outline with repaired character ids and extracted locations.
func (p *Planner) GenerateOutline(ctx context.Context, rawScript string) (*story.Outline, error) {
	rawScript = strings.TrimSpace(rawScript)
	if rawScript == "" {
		return nil, services.Wrap(services.ErrValidation, "script", "generate outline",
			"raw script is empty", nil)
	}

	userPrompt := "Analyze these script scenes and generate complete scene-level information " +
		"for ALL scenes. Ensure character consistency across scenes:\n\n" + rawScript
	content, err := p.text.CompleteJSON(ctx, outlineSystemPrompt, userPrompt)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "script", "generate outline", "", err)
	}

	var outline story.Outline
	if err := generate.DecodeJSON(content, &outline); err != nil {
		return nil, services.Wrap(services.ErrValidation, "script", "parse outline", "", err)
	}
	if len(outline.Scenes) == 0 {
		return nil, services.Wrap(services.ErrValidation, "script", "parse outline",
			"model returned no scenes", nil)
	}
	if p.maxScenes > 0 && len(outline.Scenes) > p.maxScenes {
		p.logger.Warn("outline truncated",
			logging.Int("scenes", len(outline.Scenes)),
			logging.Int("max_scenes", p.maxScenes))
		outline.Scenes = outline.Scenes[:p.maxScenes]
	}
	for i := range outline.Scenes {
		if strings.TrimSpace(outline.Scenes[i].GivenScript) == "" {
			outline.Scenes[i].GivenScript = rawScript
		}
	}

	story.RepairCharacterIDs(outline.Characters)
	if len(outline.Locations) == 0 {
		outline.Locations = ExtractLocations(outline.Scenes)
	}
	return &outline, nil
}

// GenerateShots runs the shot breakdown pass for one scene.
func (p *Planner) GenerateShots(ctx context.Context, scene story.SceneInfo) ([]story.Shot, error) {
	content, err := p.text.CompleteJSON(ctx, shotSystemPrompt, sceneContext(scene))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "script", "generate shots",
			scene.SceneID, err)
	}
	var parsed struct {
		Shots []story.Shot `json:"shots"`
	}
	if err := generate.DecodeJSON(content, &parsed); err != nil {
		return nil, services.Wrap(services.ErrValidation, "script", "parse shots",
			scene.SceneID, err)
	}
	if len(parsed.Shots) == 0 {
		return nil, services.Wrap(services.ErrValidation, "script", "parse shots",
			scene.SceneID+": model returned no shots", nil)
	}
	return parsed.Shots, nil
}

// FormatScript generates shots for every scene of the outline and assembles
// the script tree.
func (p *Planner) FormatScript(ctx context.Context, outline *story.Outline) (*story.Script, error) {
	script := &story.Script{
		Characters: outline.Characters,
		Locations:  outline.Locations,
	}
	for _, sceneInfo := range outline.Scenes {
		p.logger.Info("generating shots",
			logging.String(logging.FieldSceneID, sceneInfo.SceneID),
			logging.String("title", sceneInfo.Title))
		shots, err := p.GenerateShots(ctx, sceneInfo)
		if err != nil {
			return nil, err
		}
		script.Scenes = append(script.Scenes, story.Scene{SceneInfo: sceneInfo, Shots: shots})
	}
	if len(script.Characters) == 0 {
		script.Characters = ExtractCharacters(script)
		p.logger.Info("characters recovered from scenes and shots",
			logging.Int("count", len(script.Characters)))
	}
	return script, nil
}

// sceneContext renders the scene record into the user prompt for the shot
// breakdown pass, including per-character outfit detail so the model can keep
// wardrobe continuity.
func sceneContext(scene story.SceneInfo) string {
	var characterDetails []string
	for _, char := range scene.SceneCharacters {
		detail := fmt.Sprintf("Character ID: %s, Name: %s, Emotion: %s, Basic Outfit: %s",
			char.CharacterID, char.CharacterName,
			orNA(char.Emotion), orNA(char.Outfit))
		if char.DetailedOutfit != nil {
			detail += fmt.Sprintf(", Detailed Outfit: %s, Outfit Type: %s, Clothing Items: %s, Colors: %s, Accessories: %s, Context: %s",
				char.DetailedOutfit.OutfitDescription,
				char.DetailedOutfit.OutfitType,
				strings.Join(char.DetailedOutfit.ClothingItems, ", "),
				strings.Join(char.DetailedOutfit.Colors, ", "),
				strings.Join(char.DetailedOutfit.Accessories, ", "),
				char.DetailedOutfit.OutfitContext)
		}
		detail += ", Scene Behavior: " + orNA(char.SceneDescription)
		characterDetails = append(characterDetails, detail)
	}

	var b strings.Builder
	b.WriteString("Generate detailed shots for this scene:\n\n")
	b.WriteString("Scene Information:\n")
	fmt.Fprintf(&b, "- Scene ID: %s\n- Title: %s\n- Location: %s\n- Scene Tone: %s\n",
		scene.SceneID, scene.Title, scene.Location, scene.SceneTone)
	if scene.Plot != nil {
		fmt.Fprintf(&b, "- Plot Summary: %s\n", scene.Plot.Summary)
	}
	fmt.Fprintf(&b, "- Original Script: %s\n", scene.GivenScript)
	b.WriteString("\nCharacter Details with Outfits:\n")
	b.WriteString(strings.Join(characterDetails, "\n"))
	if scene.SetInfo != nil {
		b.WriteString("\n\nEnvironment Details:\n")
		fmt.Fprintf(&b, "- Environment: %s\n- Time: %s\n- Lighting: %s\n- Background SFX: %s\n",
			orNA(scene.SetInfo.Environment), orNA(scene.SetInfo.Time),
			orNA(scene.SetInfo.Lighting), strings.Join(scene.SetInfo.BackgroundSFX, ", "))
	}
	b.WriteString("\nIMPORTANT: For each shot where characters are in focus, include detailed " +
		"Shot_Characters information with outfit descriptions based on the character details " +
		"above. Maintain outfit continuity throughout the scene.")
	return b.String()
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}
