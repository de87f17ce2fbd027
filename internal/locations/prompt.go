package locations

import (
	"fmt"
	"strings"

	"ministory/internal/story"
)

// Replacements applied to location descriptions before they reach the image
// model; crime-scene vocabulary trips its content filter.
var safeReplacements = [][2]string{
	{"violence", "activity"},
	{"gun", "equipment"},
	{"weapon", "tools"},
	{"blood", "materials"},
	{"death", "situation"},
	{"murder", "investigation"},
	{"crime", "investigation"},
	{"body", "covered area"},
	{"corpse", "covered area"},
	{"victim", "person"},
	{"suspect", "person"},
	{"criminal", "individual"},
	{"police", "official"},
	{"evidence", "materials"},
	{"forensic", "technical"},
}

// ImagePrompt builds the establishing-shot prompt for a location. The prompt
// is retained on the record so a regeneration request can reproduce it.
func ImagePrompt(location story.Location) string {
	timeOfDay := location.TimeOfDay
	if timeOfDay == "" {
		timeOfDay = "Day"
	}
	mood := location.Mood
	if mood == "" {
		mood = "neutral"
	}
	environment := safeDescription(location.Environment)
	setDetails := safeDescription(location.SetDetails)
	context := productionContext(location.LocationType, location.Name, environment)

	return fmt.Sprintf(`Create a highly detailed, cinematic photograph of %s for an Indian web series production.

LOCATION SPECIFICATIONS:
- Type: %s
- Environment: %s
- Time of Day: %s
- Lighting Conditions: %s
- Atmospheric Mood: %s %s
- Architectural Details: %s

PRODUCTION CONTEXT:
%s

VISUAL COMPOSITION:
- Camera Angle: medium-wide establishing shot showing the complete location layout
- Depth of Field: deep focus with foreground, middle ground, and background elements
- Natural lighting appropriate for %s in Indian climate
- Contemporary modern Indian architecture with authentic local materials

TECHNICAL REQUIREMENTS:
- NO PEOPLE visible in the frame, focus purely on the location
- Professional cinematography quality suitable for web series production
- High resolution with sharp details
- Clean, well-composed shot suitable for film production reference

Create a location that feels authentically modern Indian, cinematically professional, and completely empty of people.`,
		location.Name, location.LocationType, environment, timeOfDay,
		location.Lighting, mood, location.Atmosphere, setDetails, context,
		strings.ToLower(timeOfDay))
}

// productionContext picks a styling block by location keywords.
func productionContext(locationType, name, environment string) string {
	subject := strings.ToLower(locationType + " " + name + " " + environment)
	switch {
	case containsAny(subject, "college", "university", "campus"):
		return "Modern Indian college/university setting: contemporary educational architecture, red brick or concrete buildings with courtyards and verandas, notice boards and institutional signage in Hindi and English, green campus with native trees."
	case containsAny(subject, "police", "station", "interrogation"):
		return "Modern Indian government building: contemporary institutional architecture, metal desks and filing cabinets, fluorescent tube lighting, windows with security grilles, ceiling fans, neutral professional atmosphere."
	case containsAny(subject, "ground", "field", "sports"):
		return "Modern Indian sports ground: red soil or grass field with boundary walls, floodlights and basic seating, landscaped surroundings with native trees, proper fencing."
	case containsAny(subject, "room", "office", "interior"):
		return "Modern Indian interior: functional contemporary furniture, ceiling fans, tube lights, concrete floors, good ventilation, subtle decorative touches without stereotypes."
	case containsAny(subject, "street", "road", "outdoor", "ext"):
		return "Modern Indian outdoor/street location: paved roads, street lighting and signage, mixed architecture with local businesses, clean well-maintained public spaces suitable for filming."
	default:
		return "Modern Indian location: authentic setting with contemporary architecture, clean well-maintained environment appropriate for filming, modern amenities and infrastructure."
	}
}

func containsAny(subject string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(subject, word) {
			return true
		}
	}
	return false
}

func safeDescription(description string) string {
	if strings.TrimSpace(description) == "" {
		return "professional environment"
	}
	safe := strings.ToLower(description)
	for _, pair := range safeReplacements {
		safe = strings.ReplaceAll(safe, pair[0], pair[1])
	}
	return safe
}
