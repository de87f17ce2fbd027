package refattach

import (
	"fmt"
	"log/slog"

	"ministory/internal/identity"
	"ministory/internal/logging"
	"ministory/internal/story"
)

// Report summarizes one attachment pass.
type Report struct {
	CharactersAttached int
	LocationsAttached  int
	Warnings           []string
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Attach resolves every shot's focus characters and every scene's location
// against the registries and writes the materialized references into the
// script tree. The scene's location reference is copied verbatim onto each of
// its shots so sibling shots always carry identical location metadata. Shots
// are the only thing mutated; the returned report lists every miss.
func Attach(script *story.Script, characters []story.Character, locations []story.Location, logger *slog.Logger) *Report {
	if logger == nil {
		logger = logging.NewNop()
	}
	report := &Report{}

	for si := range script.Scenes {
		scene := &script.Scenes[si]
		attachShotCharacters(scene, characters, logger, report)
		attachSceneLocation(scene, locations, logger, report)
	}
	return report
}

func attachShotCharacters(scene *story.Scene, characters []story.Character, logger *slog.Logger, report *Report) {
	for shi := range scene.Shots {
		shot := &scene.Shots[shi]
		shot.FocusCharacterImages = make([]story.CharacterRef, 0, len(shot.FocusCharacters))
		for _, ref := range shot.FocusCharacters {
			match, err := identity.ResolveCharacter(ref, characters)
			if err != nil {
				report.warnf("character %q not found for shot %s", ref, shot.ShotID)
				logging.WarnWithContext(logger, "focus character not in registry", "character_not_found",
					logging.String(logging.FieldSceneID, scene.SceneInfo.SceneID),
					logging.String(logging.FieldShotID, shot.ShotID),
					logging.String(logging.FieldCharacterID, ref),
				)
				continue
			}
			shot.FocusCharacterImages = append(shot.FocusCharacterImages, match.Ref())
			report.CharactersAttached++
		}
	}
}

func attachSceneLocation(scene *story.Scene, locations []story.Location, logger *slog.Logger, report *Report) {
	match, err := identity.ResolveLocation(scene.SceneInfo.Location, locations)
	if err != nil {
		report.warnf("no location match for scene %s (%q)", scene.SceneInfo.SceneID, scene.SceneInfo.Location)
		logging.WarnWithContext(logger, "scene location unresolved", "location_not_found",
			logging.String(logging.FieldSceneID, scene.SceneInfo.SceneID),
			logging.String("location", scene.SceneInfo.Location),
		)
		return
	}

	ref := match.Ref()
	scene.SceneInfo.LocationReference = &ref
	for shi := range scene.Shots {
		shotRef := ref
		scene.Shots[shi].LocationReference = &shotRef
	}
	report.LocationsAttached++
	logger.Debug("location reference attached",
		logging.String(logging.FieldSceneID, scene.SceneInfo.SceneID),
		logging.String("location_id", ref.LocationID),
	)
}
