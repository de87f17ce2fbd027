package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ministory/internal/artifacts"
	"ministory/internal/textutil"
)

var scaffold = []string{
	"script_planning",
	"character_generation",
	"location_generation",
	"scene_creation",
	"video_editing",
	"metadata",
}

// Session is one project's storage root plus its progress metadata.
type Session struct {
	ID   string
	Root string

	lock *flock.Flock
}

// Manager creates, loads, and lists sessions under one root directory.
type Manager struct {
	sessionsDir string
}

// NewManager returns a manager rooted at sessionsDir.
func NewManager(sessionsDir string) *Manager {
	return &Manager{sessionsDir: sessionsDir}
}

// Create scaffolds a new session for projectName and writes its initial
// metadata. The session id is the sanitized name, a timestamp, and a random
// 8-character suffix.
func (m *Manager) Create(projectName string) (*Session, error) {
	name := strings.TrimSpace(projectName)
	if name == "" {
		return nil, fmt.Errorf("project name must not be empty")
	}

	sessionID := fmt.Sprintf("%s_%s_%s",
		strings.ReplaceAll(textutil.SanitizeFileName(name), " ", "_"),
		time.Now().Format("20060102_150405"),
		strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
	)
	root := filepath.Join(m.sessionsDir, sessionID)

	for _, dir := range scaffold {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	sess := newSession(sessionID, root)
	err := sess.UpdateMetadata(func(meta *Metadata) {
		meta.ProjectName = name
		meta.SessionID = sessionID
		meta.CreatedAt = time.Now().Format(time.RFC3339)
		meta.Status = "created"
		meta.CurrentStage = 0
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Load opens an existing session by id.
func (m *Manager) Load(sessionID string) (*Session, error) {
	root := filepath.Join(m.sessionsDir, sessionID)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("session %q not found under %s", sessionID, m.sessionsDir)
	}
	return newSession(sessionID, root), nil
}

// Info is one row of the session listing.
type Info struct {
	SessionID   string
	ProjectName string
	CreatedAt   string
	LastUpdated string
	Stage       int
	Completed   map[string]bool
}

// List scans the sessions root, newest first. Directories without a metadata
// document are skipped.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sess := newSession(entry.Name(), filepath.Join(m.sessionsDir, entry.Name()))
		if !metadataExists(sess.metadataPath()) {
			continue
		}
		meta := sess.Metadata()
		infos = append(infos, Info{
			SessionID:   entry.Name(),
			ProjectName: meta.ProjectName,
			CreatedAt:   meta.CreatedAt,
			LastUpdated: meta.LastUpdated,
			Stage:       meta.CurrentStage,
			Completed:   meta.StagesCompleted,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt > infos[j].CreatedAt
	})
	return infos, nil
}

func newSession(id, root string) *Session {
	return &Session{
		ID:   id,
		Root: root,
		lock: flock.New(filepath.Join(root, "metadata", "session.lock")),
	}
}

func (s *Session) metadataPath() string {
	return filepath.Join(s.Root, "metadata", "project_info.json")
}

// Artifacts returns the artifact store rooted at this session.
func (s *Session) Artifacts() *artifacts.Store {
	return artifacts.NewStore(s.Root)
}

// Acquire takes the session's exclusive file lock, retrying until ctx is
// done. The returned release function must be called exactly once.
func (s *Session) Acquire(ctx context.Context) (func(), error) {
	locked, err := s.lock.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", s.ID, err)
	}
	if !locked {
		return nil, fmt.Errorf("session %s is locked by another process", s.ID)
	}
	return func() { _ = s.lock.Unlock() }, nil
}
