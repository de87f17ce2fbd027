package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"ministory/internal/fileutil"
)

// Stages is the canonical ordered stage list. The stage pointer in session
// metadata indexes into it.
var Stages = []string{"script", "characters", "locations", "scenes", "video"}

// StageIndex returns the position of a stage name, or -1.
func StageIndex(name string) int {
	for i, stage := range Stages {
		if stage == name {
			return i
		}
	}
	return -1
}

// Metadata is the whole-document session record at metadata/project_info.json.
// Every mutation rewrites the full document.
type Metadata struct {
	ProjectName     string          `json:"project_name"`
	SessionID       string          `json:"session_id"`
	CreatedAt       string          `json:"created_at"`
	LastUpdated     string          `json:"last_updated,omitempty"`
	Status          string          `json:"status"`
	CurrentStage    int             `json:"current_stage"`
	StagesCompleted map[string]bool `json:"stages_completed"`
}

func defaultMetadata(sessionID string) Metadata {
	return Metadata{
		SessionID:       sessionID,
		Status:          "created",
		StagesCompleted: make(map[string]bool, len(Stages)),
	}
}

// Metadata reads the session's metadata document. A missing or corrupt file
// yields defaults rather than an error, so a damaged session stays loadable.
func (s *Session) Metadata() Metadata {
	meta := defaultMetadata(s.ID)
	data, err := os.ReadFile(s.metadataPath())
	if err != nil {
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return defaultMetadata(s.ID)
	}
	if meta.StagesCompleted == nil {
		meta.StagesCompleted = make(map[string]bool, len(Stages))
	}
	return meta
}

// UpdateMetadata applies mutate under a read-modify-write of the whole
// document and stamps last_updated.
func (s *Session) UpdateMetadata(mutate func(*Metadata)) error {
	meta := s.Metadata()
	mutate(&meta)
	meta.LastUpdated = time.Now().Format(time.RFC3339)
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session metadata: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.metadataPath(), data, 0o644); err != nil {
		return fmt.Errorf("write session metadata: %w", err)
	}
	return nil
}

// Stage returns the current stage pointer.
func (s *Session) Stage() int {
	return s.Metadata().CurrentStage
}

// SetStage moves the stage pointer. Any value in [0, len(Stages)-1] is legal,
// forwards or backwards; completion flags are left alone.
func (s *Session) SetStage(index int) error {
	if index < 0 || index >= len(Stages) {
		return fmt.Errorf("stage index %d out of range [0,%d]", index, len(Stages)-1)
	}
	return s.UpdateMetadata(func(meta *Metadata) {
		meta.CurrentStage = index
	})
}

// MarkCompleted sets one stage's completion flag.
func (s *Session) MarkCompleted(stage string, done bool) error {
	if StageIndex(stage) < 0 {
		return fmt.Errorf("unknown stage %q", stage)
	}
	return s.UpdateMetadata(func(meta *Metadata) {
		if meta.StagesCompleted == nil {
			meta.StagesCompleted = make(map[string]bool, len(Stages))
		}
		meta.StagesCompleted[stage] = done
	})
}

// Completed reports one stage's completion flag.
func (s *Session) Completed(stage string) bool {
	return s.Metadata().StagesCompleted[stage]
}

func metadataExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist) && err == nil
}
