package outfits

import (
	"strings"

	"ministory/internal/story"
)

// InitialOutfit derives a character's starting outfit from role keywords in
// their role and description. Deterministic for the same input.
func InitialOutfit(character story.Character) story.CharacterOutfit {
	role := strings.ToLower(character.Role)
	description := strings.ToLower(character.OverallDescription)

	switch {
	case strings.Contains(role, "student") || strings.Contains(description, "college"):
		return story.CharacterOutfit{
			OutfitDescription: "Casual college attire - comfortable jeans, casual t-shirt, sneakers",
			OutfitType:        "casual",
			ClothingItems:     []string{"jeans", "casual t-shirt", "sneakers"},
			Colors:            []string{"blue", "white"},
			Accessories:       []string{"backpack"},
		}
	case strings.Contains(role, "detective"):
		return story.CharacterOutfit{
			OutfitDescription: "Professional detective attire - dark blazer, dress shirt, dress pants, dress shoes",
			OutfitType:        "professional",
			ClothingItems:     []string{"dark blazer", "dress shirt", "dress pants", "dress shoes"},
			Colors:            []string{"dark blue", "white"},
			Accessories:       []string{"badge", "watch"},
		}
	case strings.Contains(role, "inspector") || strings.Contains(description, "police"):
		return story.CharacterOutfit{
			OutfitDescription: "Police inspector uniform - crisp police uniform with badges",
			OutfitType:        "uniform",
			ClothingItems:     []string{"police uniform shirt", "police pants", "police shoes", "badge"},
			Colors:            []string{"navy blue", "black"},
			Accessories:       []string{"badge", "radio", "belt"},
		}
	default:
		return story.CharacterOutfit{
			OutfitDescription: "Smart casual attire - well-fitted clothes reflecting personality",
			OutfitType:        "smart_casual",
			ClothingItems:     []string{"casual shirt", "jeans", "casual shoes"},
			Colors:            []string{"varied"},
			Accessories:       []string{"watch"},
		}
	}
}
