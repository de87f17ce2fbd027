package voice

import (
	"log/slog"
	"strings"

	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/story"
)

// AssignVoices fills in the voice id of every character that lacks one,
// picking the best available match from the catalog. Existing assignments
// are kept, then EnsureUniqueVoices repairs collisions. defaultVoice is used
// when the catalog is empty or nothing scores.
func AssignVoices(characters []story.Character, voices []generate.Voice, defaultVoice string, logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	used := make(map[string]bool, len(characters))
	for _, char := range characters {
		if char.VoiceID != "" {
			used[char.VoiceID] = true
		}
	}

	for i := range characters {
		char := &characters[i]
		if char.VoiceID != "" {
			continue
		}
		pick := bestVoice(*char, voices, used)
		if pick == "" {
			pick = defaultVoice
		}
		if pick == "" {
			logging.WarnWithContext(logger, "no voice available for character", "voice_unassigned",
				logging.String(logging.FieldCharacterID, char.ID))
			continue
		}
		char.VoiceID = pick
		used[pick] = true
		logger.Debug("voice assigned",
			logging.String(logging.FieldCharacterID, char.ID),
			logging.String("voice_id", pick))
	}

	EnsureUniqueVoices(characters, voices, logger)
}

// EnsureUniqueVoices reassigns any voice id already claimed by an earlier
// character: the first holder keeps it, later holders get the next unused
// catalog voice. This is a data-quality pass; an intentionally shared voice
// cannot be distinguished from an accidental collision.
func EnsureUniqueVoices(characters []story.Character, voices []generate.Voice, logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	used := make(map[string]bool, len(characters))
	for i := range characters {
		char := &characters[i]
		if char.VoiceID == "" {
			continue
		}
		if !used[char.VoiceID] {
			used[char.VoiceID] = true
			continue
		}
		replacement := bestVoice(*char, voices, used)
		if replacement == "" {
			logging.WarnWithContext(logger, "duplicate voice kept, catalog exhausted", "voice_collision",
				logging.String(logging.FieldCharacterID, char.ID),
				logging.String("voice_id", char.VoiceID))
			continue
		}
		logging.WarnWithContext(logger, "duplicate voice reassigned", "voice_collision",
			logging.String(logging.FieldCharacterID, char.ID),
			logging.String("voice_id", char.VoiceID),
			logging.String("reassigned_voice_id", replacement))
		char.VoiceID = replacement
		used[replacement] = true
	}
}

// bestVoice scores unused catalog voices against the character: gender match
// dominates, then word overlap between the character's voice notes and the
// voice description breaks ties. Returns "" when every voice is taken.
func bestVoice(char story.Character, voices []generate.Voice, used map[string]bool) string {
	bestID := ""
	bestScore := -1
	wanted := descriptionWords(char.VoiceInformation + " " + char.OverallDescription)

	for _, v := range voices {
		if used[v.ID] {
			continue
		}
		score := 0
		if v.Gender != "" && strings.EqualFold(v.Gender, char.Gender) {
			score += 10
		}
		for word := range descriptionWords(v.Description) {
			if wanted[word] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestID = v.ID
		}
	}
	return bestID
}

func descriptionWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:()\"'")
		if len(word) > 3 {
			words[word] = true
		}
	}
	return words
}
