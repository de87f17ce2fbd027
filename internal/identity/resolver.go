package identity

import (
	"errors"
	"strings"

	"ministory/internal/story"
	"ministory/internal/textutil"
)

// ErrNotFound reports that no registry entity matched the reference.
var ErrNotFound = errors.New("identity: no match")

// ResolveCharacter matches reference against the character registry. Rules in
// order, first match wins: exact id, case-insensitive exact name,
// case-insensitive containment (reference inside the name, or the name starts
// with the reference). Duplicate names resolve to the first entity in
// registry order. An empty reference never matches.
func ResolveCharacter(reference string, registry []story.Character) (*story.Character, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrNotFound
	}

	for i := range registry {
		if registry[i].ID == reference {
			return &registry[i], nil
		}
	}

	lower := strings.ToLower(reference)
	for i := range registry {
		if strings.ToLower(registry[i].Name) == lower {
			return &registry[i], nil
		}
	}
	for i := range registry {
		name := strings.ToLower(registry[i].Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, lower) || strings.HasPrefix(name, lower) {
			return &registry[i], nil
		}
	}
	return nil, ErrNotFound
}

// ResolveLocation matches a scene's free-text location string (for example
// "EXT. CRIME SCENE - NIGHT") against the location registry. A location whose
// name appears inside the raw string wins first; otherwise the string is
// cleaned (type prefix and trailing time segment stripped) and any location
// sharing a token with it matches. First in registry order wins.
func ResolveLocation(sceneLocation string, registry []story.Location) (*story.Location, error) {
	raw := strings.TrimSpace(sceneLocation)
	if raw == "" {
		return nil, ErrNotFound
	}

	for i := range registry {
		if registry[i].LocationID == raw {
			return &registry[i], nil
		}
	}

	lower := strings.ToLower(raw)
	for i := range registry {
		name := strings.ToLower(registry[i].Name)
		if name != "" && strings.Contains(lower, name) {
			return &registry[i], nil
		}
	}

	tokens := textutil.Tokens(CleanLocation(raw))
	for i := range registry {
		name := strings.ToLower(registry[i].Name)
		for _, token := range tokens {
			if strings.Contains(name, token) {
				return &registry[i], nil
			}
		}
	}
	return nil, ErrNotFound
}

// CleanLocation strips the EXT./INT. type prefix and the trailing "- TIME"
// segment from a scene location string.
func CleanLocation(sceneLocation string) string {
	cleaned := strings.ReplaceAll(sceneLocation, "EXT.", "")
	cleaned = strings.ReplaceAll(cleaned, "INT.", "")
	if idx := strings.Index(cleaned, "-"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	return strings.TrimSpace(cleaned)
}
