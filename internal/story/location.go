package story

// Location is created once per unique location string seen across scenes and
// optionally enriched with a rendered image and the exact prompt used for it.
type Location struct {
	LocationID          string   `json:"location_id"`
	Name                string   `json:"name"`
	LocationType        string   `json:"location_type"`
	Environment         string   `json:"environment"`
	TimeOfDay           string   `json:"time_of_day"`
	Lighting            string   `json:"lighting"`
	Atmosphere          string   `json:"atmosphere"`
	BackgroundSFX       []string `json:"background_sfx"`
	SetDetails          string   `json:"set_details"`
	Mood                string   `json:"mood"`
	ImagePath           string   `json:"image_path,omitempty"`
	LocationImagePrompt string   `json:"location_image_prompt,omitempty"`
}

// LocationRef is the strong reference written onto a scene and copied
// verbatim to every shot of that scene.
type LocationRef struct {
	LocationID    string   `json:"location_id"`
	Name          string   `json:"name"`
	ImagePath     string   `json:"image_path"`
	Environment   string   `json:"environment"`
	Lighting      string   `json:"lighting"`
	Atmosphere    string   `json:"atmosphere"`
	BackgroundSFX []string `json:"background_sfx"`
}

// Ref returns the strong reference for l.
func (l Location) Ref() LocationRef {
	return LocationRef{
		LocationID:    l.LocationID,
		Name:          l.Name,
		ImagePath:     l.ImagePath,
		Environment:   l.Environment,
		Lighting:      l.Lighting,
		Atmosphere:    l.Atmosphere,
		BackgroundSFX: l.BackgroundSFX,
	}
}
