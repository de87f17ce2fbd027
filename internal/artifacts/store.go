package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ministory/internal/fileutil"
	"ministory/internal/story"
)

// Kind identifies one artifact document within a session.
type Kind string

const (
	KindScenesInfo             Kind = "scenes_info"
	KindFormattedScript        Kind = "formatted_script"
	KindCharacters             Kind = "characters"
	KindLocations              Kind = "locations"
	KindScriptWithDescriptions Kind = "script_with_descriptions"
	KindDialogMapping          Kind = "dialog_mapping"
	KindOutfitTracking         Kind = "outfit_tracking"
)

// ErrMissing reports that the requested artifact has not been produced yet.
var ErrMissing = errors.New("artifacts: not found")

var relativePaths = map[Kind]string{
	KindScenesInfo:             "script_planning/scenes_info.json",
	KindFormattedScript:        "script_planning/formatted_script.json",
	KindCharacters:             "character_generation/characters.json",
	KindLocations:              "location_generation/locations.json",
	KindScriptWithDescriptions: "scene_creation/script_with_descriptions.json",
	KindDialogMapping:          "video_editing/dialog_mapping/shot_dialog_mapping.json",
	KindOutfitTracking:         "scene_creation/outfit_tracking.json",
}

// CharactersDoc is the on-disk wrapper around the character registry.
type CharactersDoc struct {
	Characters []story.Character `json:"characters"`
}

// LocationsDoc is the on-disk wrapper around the location registry.
type LocationsDoc struct {
	Locations []story.Location `json:"locations"`
}

// Store reads and writes one session's artifact documents.
type Store struct {
	root string
}

// NewStore returns a store rooted at the session directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the session directory.
func (s *Store) Root() string { return s.root }

// Path returns the absolute path for a kind. Unknown kinds panic; they are
// programming errors, not runtime conditions.
func (s *Store) Path(kind Kind) string {
	rel, ok := relativePaths[kind]
	if !ok {
		panic(fmt.Sprintf("artifacts: unknown kind %q", kind))
	}
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Exists reports whether the artifact document is present on disk.
func (s *Store) Exists(kind Kind) bool {
	return fileutil.FileExists(s.Path(kind))
}

// Save writes the document as indented JSON, replacing any previous version.
func (s *Store) Save(kind Kind, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	if err := fileutil.WriteFileAtomic(s.Path(kind), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	return nil
}

// Load decodes the document into out. Returns ErrMissing when the file does
// not exist.
func (s *Store) Load(kind Kind, out any) error {
	data, err := os.ReadFile(s.Path(kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", kind, ErrMissing)
		}
		return fmt.Errorf("read %s: %w", kind, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}

// Delete removes the document. Missing files are not an error.
func (s *Store) Delete(kind Kind) error {
	if err := os.Remove(s.Path(kind)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return nil
}

// RawScriptPath returns the path of the raw story text the script stage
// consumes. Unlike the Kind documents it is plain text, not JSON.
func (s *Store) RawScriptPath() string {
	return filepath.Join(s.root, "script_planning", "raw_script.txt")
}

// SaveRawScript stores the raw story text.
func (s *Store) SaveRawScript(text string) error {
	if err := fileutil.WriteFileAtomic(s.RawScriptPath(), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write raw script: %w", err)
	}
	return nil
}

// LoadRawScript returns the raw story text, or ErrMissing.
func (s *Store) LoadRawScript() (string, error) {
	data, err := os.ReadFile(s.RawScriptPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("raw script: %w", ErrMissing)
		}
		return "", fmt.Errorf("read raw script: %w", err)
	}
	return string(data), nil
}

// ImagesDir returns the directory holding rendered shot images.
func (s *Store) ImagesDir() string {
	return filepath.Join(s.root, "scene_creation", "images")
}

// VideosDir returns the directory holding rendered shot clips.
func (s *Store) VideosDir() string {
	return filepath.Join(s.root, "scene_creation", "videos")
}

// AudioDir returns the directory holding synthesized dialog audio.
func (s *Store) AudioDir() string {
	return filepath.Join(s.root, "video_editing", "audio")
}

// PortraitsDir returns the directory holding character portraits.
func (s *Store) PortraitsDir() string {
	return filepath.Join(s.root, "character_generation", "images")
}

// LocationImagesDir returns the directory holding location renders.
func (s *Store) LocationImagesDir() string {
	return filepath.Join(s.root, "location_generation", "images")
}

// FinalVideoPath returns the path of the assembled video.
func (s *Store) FinalVideoPath() string {
	return filepath.Join(s.root, "video_editing", "final_video.mp4")
}
