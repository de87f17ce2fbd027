package regen

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ministory/internal/artifacts"
	"ministory/internal/fileutil"
	"ministory/internal/logging"
	"ministory/internal/story"
)

// Status of one generation attempt.
const (
	StatusSuccess     = "success"
	StatusFailed      = "failed"
	StatusRegenerated = "regenerated"
)

// Progress is the in-memory ledger snapshot: a cache over the on-disk state,
// never authoritative.
type Progress struct {
	CurrentSceneID string
	CurrentShotID  string
	Completed      map[Key]bool
	Failed         map[Key]string
}

// Controller gates regeneration of rendered artifacts for one session.
type Controller struct {
	store  *artifacts.Store
	logger *slog.Logger

	forceStage map[Kind]bool
	forceScene map[string]bool
	forceShot  map[Key]bool

	progress Progress
}

// NewController returns a controller over the session's artifact store.
func NewController(store *artifacts.Store, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		store:      store,
		logger:     logger,
		forceStage: make(map[Kind]bool),
		forceScene: make(map[string]bool),
		forceShot:  make(map[Key]bool),
		progress: Progress{
			Completed: make(map[Key]bool),
			Failed:    make(map[Key]string),
		},
	}
}

// ForceStage marks every artifact of one kind for regeneration.
func (c *Controller) ForceStage(kind Kind) { c.forceStage[kind] = true }

// ForceScene marks every artifact in one scene for regeneration. Sibling
// scenes keep their cached artifacts.
func (c *Controller) ForceScene(sceneID string) { c.forceScene[sceneID] = true }

// ForceShot marks a single shot's artifacts for regeneration. Sibling shots
// keep their cached artifacts.
func (c *Controller) ForceShot(sceneID, shotID string) {
	for _, kind := range []Kind{KindSceneImage, KindShotVideo, KindDialogAudio} {
		c.forceShot[Key{SceneID: sceneID, ShotID: shotID, Kind: kind}] = true
	}
}

// ArtifactPath returns the canonical on-disk path for a key.
func (c *Controller) ArtifactPath(sceneID, shotID string, kind Kind) string {
	name := FileName(sceneID, shotID, kind)
	switch kind {
	case KindShotVideo:
		return filepath.Join(c.store.VideosDir(), name)
	case KindDialogAudio:
		return filepath.Join(c.store.AudioDir(), name)
	default:
		return filepath.Join(c.store.ImagesDir(), name)
	}
}

// ShouldRegenerate reports whether the unit must be recomputed. An artifact
// already on disk is reused unless a force flag covers it.
func (c *Controller) ShouldRegenerate(sceneID, shotID string, kind Kind, force bool) bool {
	key := Key{SceneID: sceneID, ShotID: shotID, Kind: kind}
	if force || c.forceStage[kind] || c.forceScene[sceneID] || c.forceShot[key] {
		return true
	}
	return !c.artifactExists(sceneID, shotID, kind)
}

// artifactExists is the on-disk presence primitive. Audio shots span several
// track files, so their kind is checked by filename prefix.
func (c *Controller) artifactExists(sceneID, shotID string, kind Kind) bool {
	if kind == KindDialogAudio {
		return hasPrefixedFile(c.store.AudioDir(), FilePrefix(sceneID, shotID, kind))
	}
	return fileutil.FileExists(c.ArtifactPath(sceneID, shotID, kind))
}

// RecordResult updates the in-memory progress ledger after an attempt.
func (c *Controller) RecordResult(sceneID, shotID string, kind Kind, status string, detail string) {
	key := Key{SceneID: sceneID, ShotID: shotID, Kind: kind}
	c.progress.CurrentSceneID = sceneID
	c.progress.CurrentShotID = shotID
	switch status {
	case StatusFailed:
		delete(c.progress.Completed, key)
		c.progress.Failed[key] = detail
		c.logger.Warn("generation failed",
			logging.String(logging.FieldSceneID, sceneID),
			logging.String(logging.FieldShotID, shotID),
			logging.String("kind", string(kind)),
			logging.String("detail", detail),
		)
	default:
		delete(c.progress.Failed, key)
		c.progress.Completed[key] = true
	}
}

// Rescan rebuilds the progress ledger from the artifact directories. Disk
// wins: anything present is completed, everything else is pending.
func (c *Controller) Rescan(script *story.Script) {
	c.progress.Completed = make(map[Key]bool)
	c.progress.Failed = make(map[Key]string)
	for _, scene := range script.Scenes {
		for _, shot := range scene.Shots {
			for _, kind := range []Kind{KindSceneImage, KindShotVideo, KindDialogAudio} {
				if c.artifactExists(scene.SceneInfo.SceneID, shot.ShotID, kind) {
					c.progress.Completed[Key{SceneID: scene.SceneInfo.SceneID, ShotID: shot.ShotID, Kind: kind}] = true
				}
			}
		}
	}
}

// Progress returns a copy of the in-memory ledger.
func (c *Controller) Progress() Progress {
	snapshot := Progress{
		CurrentSceneID: c.progress.CurrentSceneID,
		CurrentShotID:  c.progress.CurrentShotID,
		Completed:      make(map[Key]bool, len(c.progress.Completed)),
		Failed:         make(map[Key]string, len(c.progress.Failed)),
	}
	for k, v := range c.progress.Completed {
		snapshot.Completed[k] = v
	}
	for k, v := range c.progress.Failed {
		snapshot.Failed[k] = v
	}
	return snapshot
}

// ClearArtifacts deletes every on-disk artifact a force scope covers, so a
// forced rerun starts clean. Only files matching the canonical naming scheme
// are touched.
func (c *Controller) ClearArtifacts(script *story.Script) error {
	for _, scene := range script.Scenes {
		for _, shot := range scene.Shots {
			for _, kind := range []Kind{KindSceneImage, KindShotVideo, KindDialogAudio} {
				key := Key{SceneID: scene.SceneInfo.SceneID, ShotID: shot.ShotID, Kind: kind}
				if !c.forceStage[kind] && !c.forceScene[key.SceneID] && !c.forceShot[key] {
					continue
				}
				if kind == KindDialogAudio {
					if err := removePrefixedFiles(c.store.AudioDir(), FilePrefix(key.SceneID, key.ShotID, kind)); err != nil {
						return err
					}
				} else {
					path := c.ArtifactPath(key.SceneID, key.ShotID, kind)
					if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
						return err
					}
				}
				delete(c.progress.Completed, key)
			}
		}
	}
	return nil
}

func hasPrefixedFile(dir, prefix string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			return true
		}
	}
	return false
}

func removePrefixedFiles(dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
