package story

import "fmt"

// Character is a session-registry entity created at script planning time and
// enriched later with a portrait path and a synthesized voice id.
type Character struct {
	Name                 string `json:"name"`
	ID                   string `json:"id"`
	Age                  int    `json:"age,omitempty"`
	Role                 string `json:"role,omitempty"`
	FirstAppearanceScene string `json:"first_appearance_scene,omitempty"`
	VoiceInformation     string `json:"voice_information,omitempty"`
	Gender               string `json:"gender,omitempty"`
	OverallDescription   string `json:"overall_description,omitempty"`
	ImagePath            string `json:"image_path,omitempty"`
	VoiceID              string `json:"voice_id,omitempty"`
}

// CharacterRef is the strong reference materialized onto a shot once a focus
// character resolves against the registry.
type CharacterRef struct {
	CharacterID        string `json:"character_id"`
	CharacterName      string `json:"character_name"`
	ImagePath          string `json:"image_path"`
	OverallDescription string `json:"overall_description"`
	Gender             string `json:"gender"`
}

// Ref returns the strong reference for c, defaulting gender to "unknown" the
// way the portrait prompts expect.
func (c Character) Ref() CharacterRef {
	gender := c.Gender
	if gender == "" {
		gender = "unknown"
	}
	return CharacterRef{
		CharacterID:        c.ID,
		CharacterName:      c.Name,
		ImagePath:          c.ImagePath,
		OverallDescription: c.OverallDescription,
		Gender:             gender,
	}
}

// RepairCharacterIDs reassigns duplicated ids in place. The first occurrence
// of each id is untouched; later occurrences get a position-derived id,
// 1-indexed and zero-padded to two digits. Returns the ids that changed,
// keyed by character name.
func RepairCharacterIDs(characters []Character) map[string]string {
	seen := make(map[string]struct{}, len(characters))
	reassigned := make(map[string]string)
	for i := range characters {
		id := characters[i].ID
		if _, dup := seen[id]; dup {
			fresh := fmt.Sprintf("char_%02d", i+1)
			characters[i].ID = fresh
			reassigned[characters[i].Name] = fresh
			id = fresh
		}
		seen[id] = struct{}{}
	}
	return reassigned
}
