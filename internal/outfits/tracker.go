package outfits

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"ministory/internal/fileutil"
	"ministory/internal/identity"
	"ministory/internal/logging"
	"ministory/internal/story"
)

// ChangeEvent is one append-only history entry: the outfit a character wore
// before an explicit change, and where that outfit last appeared.
type ChangeEvent struct {
	Outfit   string `json:"outfit"`
	SceneID  string `json:"scene_id"`
	ShotID   string `json:"shot_id"`
	Sequence int    `json:"sequence"`
}

// State is the tracked outfit state for one character.
type State struct {
	CharacterID   string        `json:"character_id"`
	CharacterName string        `json:"character_name"`
	CurrentOutfit string        `json:"current_outfit"`
	OutfitType    string        `json:"outfit_type"`
	ClothingItems []string      `json:"clothing_items"`
	Colors        []string      `json:"colors"`
	Accessories   []string      `json:"accessories"`
	LastSceneID   string        `json:"last_scene_id"`
	LastShotID    string        `json:"last_shot_id"`
	History       []ChangeEvent `json:"outfit_history"`
}

// Tracker manages outfit continuity across one script. Not safe for
// concurrent use; the pipeline processes scenes synchronously.
type Tracker struct {
	states       map[string]*State
	registry     []story.Character
	sceneChanges map[string][]string
	logger       *slog.Logger
}

// NewTracker returns an empty tracker.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		states:       make(map[string]*State),
		sceneChanges: make(map[string][]string),
		logger:       logger,
	}
}

// Initialize seeds one state per registry character from its role template.
// Characters without an id are skipped.
func (t *Tracker) Initialize(characters []story.Character) {
	t.registry = characters
	for _, char := range characters {
		if char.ID == "" {
			continue
		}
		initial := InitialOutfit(char)
		t.states[char.ID] = &State{
			CharacterID:   char.ID,
			CharacterName: char.Name,
			CurrentOutfit: initial.OutfitDescription,
			OutfitType:    initial.OutfitType,
			ClothingItems: initial.ClothingItems,
			Colors:        initial.Colors,
			Accessories:   initial.Accessories,
		}
	}
}

// State returns the tracked state for a character id.
func (t *Tracker) State(characterID string) (*State, bool) {
	state, ok := t.states[characterID]
	return state, ok
}

// ApplyToScene reconciles every scene-character entry with the tracker. An
// upstream detailed outfit is authoritative and updates the tracked state;
// otherwise the entry inherits the character's current outfit with a context
// note referencing its last appearance.
func (t *Tracker) ApplyToScene(scene *story.Scene) {
	sceneID := scene.SceneInfo.SceneID
	for i := range scene.SceneInfo.SceneCharacters {
		sceneChar := &scene.SceneInfo.SceneCharacters[i]
		state, ok := t.states[sceneChar.CharacterID]
		if !ok {
			continue
		}
		if sceneChar.DetailedOutfit != nil {
			t.updateState(state, *sceneChar.DetailedOutfit, sceneID, "")
			continue
		}
		outfit := t.consistentOutfit(state)
		sceneChar.DetailedOutfit = &outfit
	}
}

// ApplyToShot fills shot-character outfit gaps from tracked state. When the
// shot carries no character entries at all, they are synthesized from the
// free-text focus list; names that fail to resolve are skipped.
func (t *Tracker) ApplyToShot(shot *story.Shot, sceneID string) {
	if len(shot.ShotCharacters) > 0 {
		for i := range shot.ShotCharacters {
			shotChar := &shot.ShotCharacters[i]
			state, ok := t.states[shotChar.CharacterID]
			if !ok {
				continue
			}
			if shotChar.OutfitDescription == "" {
				shotChar.OutfitDescription = state.CurrentOutfit
				shotChar.OutfitContinuity = "same as scene outfit"
			}
			state.LastShotID = shot.ShotID
		}
		return
	}

	for _, name := range shot.FocusCharacters {
		match, err := identity.ResolveCharacter(name, t.registry)
		if err != nil {
			t.logger.Debug("focus character not tracked",
				logging.String(logging.FieldSceneID, sceneID),
				logging.String(logging.FieldShotID, shot.ShotID),
				logging.String("reference", name),
			)
			continue
		}
		state, ok := t.states[match.ID]
		if !ok {
			continue
		}
		shot.ShotCharacters = append(shot.ShotCharacters, story.ShotCharacter{
			CharacterID:       state.CharacterID,
			CharacterName:     name,
			OutfitDescription: state.CurrentOutfit,
			OutfitContinuity:  "consistent with scene",
			CharacterAction:   "appears in shot",
		})
		state.LastShotID = shot.ShotID
	}
}

// ProcessScript initializes from the script's character registry and applies
// continuity to every scene and shot in order.
func (t *Tracker) ProcessScript(script *story.Script) {
	t.Initialize(script.Characters)
	for si := range script.Scenes {
		scene := &script.Scenes[si]
		t.ApplyToScene(scene)
		for shi := range scene.Shots {
			t.ApplyToShot(&scene.Shots[shi], scene.SceneInfo.SceneID)
		}
	}
}

func (t *Tracker) updateState(state *State, outfit story.CharacterOutfit, sceneID, shotID string) {
	state.History = append(state.History, ChangeEvent{
		Outfit:   state.CurrentOutfit,
		SceneID:  state.LastSceneID,
		ShotID:   state.LastShotID,
		Sequence: len(state.History),
	})
	state.CurrentOutfit = outfit.OutfitDescription
	state.OutfitType = outfit.OutfitType
	state.ClothingItems = outfit.ClothingItems
	state.Colors = outfit.Colors
	state.Accessories = outfit.Accessories
	state.LastSceneID = sceneID
	state.LastShotID = shotID

	for _, id := range t.sceneChanges[sceneID] {
		if id == state.CharacterID {
			return
		}
	}
	t.sceneChanges[sceneID] = append(t.sceneChanges[sceneID], state.CharacterID)
}

func (t *Tracker) consistentOutfit(state *State) story.CharacterOutfit {
	context := state.LastSceneID
	if context == "" {
		context = "initial setup"
	}
	return story.CharacterOutfit{
		OutfitDescription: state.CurrentOutfit,
		OutfitType:        state.OutfitType,
		ClothingItems:     state.ClothingItems,
		Colors:            state.Colors,
		Accessories:       state.Accessories,
		OutfitContext:     fmt.Sprintf("Consistent with previous appearance in %s", context),
	}
}

// CharacterSummary is one row of the tracker summary.
type CharacterSummary struct {
	Name          string `json:"name"`
	CurrentOutfit string `json:"current_outfit"`
	OutfitType    string `json:"outfit_type"`
	LastScene     string `json:"last_scene"`
	OutfitChanges int    `json:"outfit_changes"`
}

// Summary reports tracked state per character plus which characters changed
// outfits in which scenes.
type Summary struct {
	CharacterCount int                         `json:"character_count"`
	Characters     map[string]CharacterSummary `json:"characters"`
	OutfitChanges  map[string][]string         `json:"outfit_changes"`
}

// Summary builds the current summary.
func (t *Tracker) Summary() Summary {
	summary := Summary{
		CharacterCount: len(t.states),
		Characters:     make(map[string]CharacterSummary, len(t.states)),
		OutfitChanges:  t.sceneChanges,
	}
	for id, state := range t.states {
		summary.Characters[id] = CharacterSummary{
			Name:          state.CharacterName,
			CurrentOutfit: state.CurrentOutfit,
			OutfitType:    state.OutfitType,
			LastScene:     state.LastSceneID,
			OutfitChanges: len(state.History),
		}
	}
	return summary
}

type snapshot struct {
	CharacterOutfits  map[string]*State   `json:"character_outfits"`
	SceneOutfitChange map[string][]string `json:"scene_outfit_changes"`
	Summary           Summary             `json:"summary"`
}

// Save writes the tracking snapshot to path as indented JSON.
func (t *Tracker) Save(path string) error {
	data, err := json.MarshalIndent(snapshot{
		CharacterOutfits:  t.states,
		SceneOutfitChange: t.sceneChanges,
		Summary:           t.Summary(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode outfit tracking: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write outfit tracking: %w", err)
	}
	return nil
}
