package story

// SceneCharacter is a scene-level appearance of a registry character: a weak
// reference by id plus scene-specific emotion and outfit overrides.
type SceneCharacter struct {
	CharacterID      string           `json:"character_id"`
	CharacterName    string           `json:"character_name"`
	Emotion          string           `json:"emotion,omitempty"`
	Outfit           string           `json:"outfit,omitempty"`
	DetailedOutfit   *CharacterOutfit `json:"detailed_outfit,omitempty"`
	SceneDescription string           `json:"scene_description,omitempty"`
}

// SetInfo describes the physical setting of a scene.
type SetInfo struct {
	Environment   string   `json:"Environment,omitempty"`
	Time          string   `json:"Time,omitempty"`
	Lighting      string   `json:"Lighting,omitempty"`
	BackgroundSFX []string `json:"Background_SFX,omitempty"`
}

// Plot summarizes what happens in a scene.
type Plot struct {
	Summary string `json:"summary"`
	Theme   string `json:"theme,omitempty"`
}

// Transition links a scene to its successor.
type Transition struct {
	TransitionTo string `json:"Transition_To"`
	Type         string `json:"type,omitempty"`
}

// SceneInfo is the planning-stage description of one scene. Location is free
// text (for example "EXT. CRIME SCENE - NIGHT") and is the join key resolved
// against the location registry.
type SceneInfo struct {
	SceneID           string           `json:"Scene_ID"`
	Title             string           `json:"Title"`
	Location          string           `json:"Location"`
	Narration         bool             `json:"Narration"`
	SceneTone         string           `json:"Scene_Tone,omitempty"`
	SetInfo           *SetInfo         `json:"Set_Info,omitempty"`
	SceneCharacters   []SceneCharacter `json:"Scene_Characters"`
	Plot              *Plot            `json:"Plot,omitempty"`
	Transition        *Transition      `json:"Transition,omitempty"`
	GivenScript       string           `json:"Given_Script"`
	LocationReference *LocationRef     `json:"location_reference,omitempty"`
}

// ShotCharacter is the shot-level outfit and action record for one character.
type ShotCharacter struct {
	CharacterID       string `json:"character_id"`
	CharacterName     string `json:"character_name"`
	OutfitDescription string `json:"outfit_description"`
	OutfitContinuity  string `json:"outfit_continuity"`
	CharacterAction   string `json:"character_action"`
}

// VideoPrompt is the structured video-generation prompt attached to a shot.
type VideoPrompt struct {
	CameraAngle                string `json:"camera_angle"`
	SceneDescription           string `json:"scene_description"`
	CharacterVisualDescription string `json:"character_visual_description"`
	MoodEmotion                string `json:"mood_emotion"`
	Lighting                   string `json:"lighting"`
	Dialogue                   string `json:"dialogue,omitempty"`
	Narration                  string `json:"narration,omitempty"`
}

// SceneDescription is the image/video prompt bundle injected into a shot by
// the scene creation stage.
type SceneDescription struct {
	SceneImagePrompt string      `json:"scene_image_prompt"`
	SceneVideoPrompt VideoPrompt `json:"scene_video_prompt"`
}

// Shot is one camera setup inside a scene. Dialog entries map a character
// name to a line of dialog, matching the planner's output shape.
type Shot struct {
	ShotID               string              `json:"Shot_ID"`
	Description          string              `json:"Description"`
	FocusCharacters      []string            `json:"Focus_Characters"`
	ShotCharacters       []ShotCharacter     `json:"Shot_Characters,omitempty"`
	Camera               string              `json:"Camera,omitempty"`
	Emotion              string              `json:"Emotion,omitempty"`
	Narration            string              `json:"Narration,omitempty"`
	BackgroundSFX        []string            `json:"Background_SFX,omitempty"`
	Lighting             string              `json:"Lighting,omitempty"`
	ShotTone             string              `json:"Shot_Tone,omitempty"`
	SetDetails           string              `json:"Set_Details,omitempty"`
	Dialog               []map[string]string `json:"Dialog,omitempty"`
	FocusCharacterImages []CharacterRef      `json:"focus_character_images"`
	LocationReference    *LocationRef        `json:"location_reference,omitempty"`
	SceneDescription     *SceneDescription   `json:"scene_description,omitempty"`
}

// Scene pairs a SceneInfo with its ordered shots.
type Scene struct {
	SceneInfo SceneInfo `json:"scene_info"`
	Shots     []Shot    `json:"shots"`
}

// Outline is the scenes-info artifact produced by script planning, before
// shots exist.
type Outline struct {
	Scenes     []SceneInfo `json:"scenes"`
	Characters []Character `json:"characters"`
	Locations  []Location  `json:"locations,omitempty"`
}

// Script is the formatted script tree consumed by every downstream stage.
type Script struct {
	Scenes     []Scene     `json:"scenes"`
	Characters []Character `json:"characters"`
	Locations  []Location  `json:"locations,omitempty"`
}

// Scene returns the scene with the given id, or nil.
func (s *Script) Scene(sceneID string) *Scene {
	for i := range s.Scenes {
		if s.Scenes[i].SceneInfo.SceneID == sceneID {
			return &s.Scenes[i]
		}
	}
	return nil
}

// Shot returns the shot with the given ids, or nil.
func (s *Script) Shot(sceneID, shotID string) *Shot {
	scene := s.Scene(sceneID)
	if scene == nil {
		return nil
	}
	for i := range scene.Shots {
		if scene.Shots[i].ShotID == shotID {
			return &scene.Shots[i]
		}
	}
	return nil
}
