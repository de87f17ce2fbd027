package scriptplan

import (
	"strings"

	"ministory/internal/identity"
	"ministory/internal/story"
)

// ExtractCharacters recovers a character registry from scene and shot data
// when the structuring pass returned none. Scene characters keep their ids;
// focus-only names get synthetic char_<name> ids. Duplicate ids are repaired
// positionally afterwards.
func ExtractCharacters(script *story.Script) []story.Character {
	var characters []story.Character
	seen := make(map[string]bool)

	add := func(c story.Character) {
		if c.ID == "" || seen[c.ID] {
			return
		}
		seen[c.ID] = true
		characters = append(characters, c)
	}

	for _, scene := range script.Scenes {
		for _, sc := range scene.SceneInfo.SceneCharacters {
			description := sc.SceneDescription
			if description == "" {
				description = "Character from script"
			}
			add(story.Character{
				ID:                 sc.CharacterID,
				Name:               sc.CharacterName,
				Role:               "supporting",
				VoiceInformation:   "Default voice",
				Gender:             "unknown",
				OverallDescription: description,
			})
		}
		for _, shot := range scene.Shots {
			for _, name := range shot.FocusCharacters {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				add(story.Character{
					ID:                 "char_" + strings.ReplaceAll(strings.ToLower(name), " ", "_"),
					Name:               name,
					Role:               "supporting",
					VoiceInformation:   "Default voice",
					Gender:             "unknown",
					OverallDescription: "Character " + name + " from script",
				})
			}
		}
	}

	story.RepairCharacterIDs(characters)
	return characters
}

// ExtractLocations derives the location registry from scene location strings:
// one Location per distinct cleaned string, id taken from the first scene
// that uses it (SC_ prefix swapped for LOC_).
func ExtractLocations(scenes []story.SceneInfo) []story.Location {
	var locations []story.Location
	seen := make(map[string]bool)

	for _, scene := range scenes {
		raw := strings.TrimSpace(scene.Location)
		if raw == "" {
			continue
		}
		key := strings.ToLower(identity.CleanLocation(raw))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		locationType := raw
		timeOfDay := ""
		if parts := strings.SplitN(raw, " - ", 2); len(parts) == 2 {
			locationType = strings.TrimSpace(parts[0])
			timeOfDay = strings.TrimSpace(parts[1])
		}

		location := story.Location{
			LocationID:   strings.Replace(scene.SceneID, "SC_", "LOC_", 1),
			Name:         identity.CleanLocation(raw),
			LocationType: locationType,
			TimeOfDay:    timeOfDay,
			Mood:         scene.SceneTone,
			Atmosphere:   scene.SceneTone,
		}
		if location.Mood == "" {
			location.Mood = "neutral"
		}
		if scene.SetInfo != nil {
			location.Environment = scene.SetInfo.Environment
			location.Lighting = scene.SetInfo.Lighting
			location.BackgroundSFX = scene.SetInfo.BackgroundSFX
			location.SetDetails = setDetails(scene)
		}
		locations = append(locations, location)
	}
	return locations
}

func setDetails(scene story.SceneInfo) string {
	var details []string
	if scene.SetInfo.Environment != "" {
		details = append(details, "Environment: "+scene.SetInfo.Environment)
	}
	if scene.SetInfo.Lighting != "" {
		details = append(details, "Lighting: "+scene.SetInfo.Lighting)
	}
	if scene.Plot != nil && scene.Plot.Summary != "" {
		summary := scene.Plot.Summary
		if len(summary) > 100 {
			summary = summary[:100] + "..."
		}
		details = append(details, "Context: "+summary)
	}
	return strings.Join(details, " | ")
}
