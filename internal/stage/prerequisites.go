package stage

import (
	"strings"

	"ministory/internal/artifacts"
	"ministory/internal/services"
)

// prerequisites maps each stage to the artifacts that must exist before it
// may run. A stage with no entry has no artifact prerequisites.
var prerequisites = map[string][]artifacts.Kind{
	"characters": {artifacts.KindFormattedScript},
	"locations":  {artifacts.KindFormattedScript},
	"scenes": {
		artifacts.KindFormattedScript,
		artifacts.KindCharacters,
		artifacts.KindLocations,
	},
	"video": {
		artifacts.KindScriptWithDescriptions,
		artifacts.KindCharacters,
	},
}

// Prerequisites returns the artifact kinds required before the named stage
// can run. The returned slice must not be modified.
func Prerequisites(stage string) []artifacts.Kind {
	return prerequisites[stage]
}

// CheckPrerequisites verifies every required artifact for a stage exists in
// the store. It returns an ErrPrerequisite-tagged error naming each missing
// artifact, or nil when the stage is runnable.
func CheckPrerequisites(store *artifacts.Store, stage string) error {
	var missing []string
	for _, kind := range prerequisites[stage] {
		if !store.Exists(kind) {
			missing = append(missing, string(kind))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(services.ErrPrerequisite, stage, "check prerequisites",
		"missing artifacts: "+strings.Join(missing, ", "), nil)
}
