package story

// CharacterOutfit is the detailed outfit record carried by scene-character
// entries and tracked by the continuity state machine.
type CharacterOutfit struct {
	OutfitDescription string   `json:"outfit_description"`
	OutfitType        string   `json:"outfit_type"`
	ClothingItems     []string `json:"clothing_items"`
	Colors            []string `json:"colors"`
	Accessories       []string `json:"accessories"`
	OutfitContext     string   `json:"outfit_context"`
}
