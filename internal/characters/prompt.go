package characters

import (
	"fmt"
	"strings"

	"ministory/internal/story"
)

// Words removed from character descriptions before they reach the image
// model, which rejects prompts that read as violent.
var unsafeWords = []string{
	"crime", "murder", "kill", "death", "violence", "gun", "weapon",
	"interrogation", "police", "detective", "suspect", "guilt", "fear",
	"betrayal", "reckless", "aggressive", "tough", "commanding",
}

// PortraitPrompt builds the front-facing portrait prompt for a character.
func PortraitPrompt(c story.Character) string {
	age := c.Age
	if age == 0 {
		age = 25
	}
	gender := c.Gender
	if gender == "" {
		gender = "person"
	}
	role := c.Role
	if role == "" {
		role = "character"
	}
	description := safeDescription(c.OverallDescription)

	return fmt.Sprintf(`Create a realistic portrait photograph of a %d-year-old %s named %s.

Character Details:
- Age: %d years old
- Gender: %s
- Role: %s
- Personality: %s

Outfit & Appearance:
Based on the personality and role of the character, create an outfit and appearance that is authentic to their role and personality.

IMPORTANT REQUIREMENTS:
Always create the character in Indian style.

Photography Style:
- Realistic portrait style
- Front-facing, looking directly at camera
- Natural, authentic appearance
- Soft, natural lighting
- Neutral background (white or light gray)
- High resolution, detailed
- Expression that matches personality: %s

Focus on creating a character that looks authentic to their role and personality, not generic or overly professional.`,
		age, gender, c.Name, age, gender, role, description, description)
}

// SimplePortraitPrompt is the retry prompt used after the detailed prompt is
// rejected.
func SimplePortraitPrompt(c story.Character) string {
	age := c.Age
	if age == 0 {
		age = 25
	}
	gender := c.Gender
	if gender == "" {
		gender = "person"
	}
	return fmt.Sprintf("Professional portrait of a %d-year-old %s named %s, friendly expression, neutral background",
		age, gender, c.Name)
}

func safeDescription(description string) string {
	if description == "" {
		return "friendly and professional"
	}
	safe := strings.ToLower(description)
	for _, word := range unsafeWords {
		safe = strings.ReplaceAll(safe, word, "")
	}
	safe = strings.TrimSpace(safe)
	if len(safe) < 10 {
		return "friendly and professional"
	}
	if len(safe) > 100 {
		safe = safe[:100]
	}
	return safe + ", confident, friendly"
}
