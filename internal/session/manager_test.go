package session_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"ministory/internal/session"
)

func TestCreateScaffoldsSessionDirectory(t *testing.T) {
	manager := session.NewManager(t.TempDir())

	sess, err := manager.Create("Hindi Thriller")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pattern := regexp.MustCompile(`^Hindi_Thriller_\d{8}_\d{6}_[0-9a-f]{8}$`)
	if !pattern.MatchString(sess.ID) {
		t.Fatalf("unexpected session id: %q", sess.ID)
	}

	for _, dir := range []string{
		"script_planning", "character_generation", "location_generation",
		"scene_creation", "video_editing", "metadata",
	} {
		info, err := os.Stat(filepath.Join(sess.Root, dir))
		if err != nil || !info.IsDir() {
			t.Fatalf("missing scaffold dir %q: %v", dir, err)
		}
	}

	meta := sess.Metadata()
	if meta.ProjectName != "Hindi Thriller" {
		t.Fatalf("unexpected project name: %q", meta.ProjectName)
	}
	if meta.Status != "created" || meta.CurrentStage != 0 {
		t.Fatalf("unexpected initial metadata: %+v", meta)
	}
}

func TestStagePointerMovesBothDirections(t *testing.T) {
	manager := session.NewManager(t.TempDir())
	sess, err := manager.Create("demo")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := sess.SetStage(3); err != nil {
		t.Fatalf("SetStage forward: %v", err)
	}
	if got := sess.Stage(); got != 3 {
		t.Fatalf("stage = %d, want 3", got)
	}
	if err := sess.SetStage(1); err != nil {
		t.Fatalf("SetStage backward: %v", err)
	}
	if got := sess.Stage(); got != 1 {
		t.Fatalf("stage = %d, want 1", got)
	}
	if err := sess.SetStage(len(session.Stages)); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if err := sess.SetStage(-1); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestCompletionFlagsSurviveBackNavigation(t *testing.T) {
	manager := session.NewManager(t.TempDir())
	sess, err := manager.Create("demo")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := sess.MarkCompleted("script", true); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := sess.MarkCompleted("characters", true); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := sess.SetStage(0); err != nil {
		t.Fatalf("SetStage: %v", err)
	}

	if !sess.Completed("script") || !sess.Completed("characters") {
		t.Fatal("completion flags cleared by moving the stage pointer")
	}
	if sess.Completed("video") {
		t.Fatal("unset flag reported complete")
	}

	if err := sess.MarkCompleted("nonsense", true); err == nil {
		t.Fatal("expected unknown stage error")
	}
}

func TestCorruptMetadataYieldsDefaults(t *testing.T) {
	manager := session.NewManager(t.TempDir())
	sess, err := manager.Create("demo")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	metaPath := filepath.Join(sess.Root, "metadata", "project_info.json")
	if err := os.WriteFile(metaPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt metadata: %v", err)
	}

	meta := sess.Metadata()
	if meta.CurrentStage != 0 || meta.Status != "created" {
		t.Fatalf("expected defaults for corrupt metadata, got %+v", meta)
	}
	if meta.SessionID != sess.ID {
		t.Fatalf("defaults should keep the session id, got %q", meta.SessionID)
	}
	if err := sess.SetStage(2); err != nil {
		t.Fatalf("session should stay mutable after corruption: %v", err)
	}
	if got := sess.Stage(); got != 2 {
		t.Fatalf("stage = %d, want 2", got)
	}
}

func TestListNewestFirstAndSkipsStrays(t *testing.T) {
	root := t.TempDir()
	manager := session.NewManager(root)

	first, err := manager.Create("older")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Force distinct created_at ordering without sleeping a full second.
	if err := first.UpdateMetadata(func(meta *session.Metadata) {
		meta.CreatedAt = time.Now().Add(-time.Hour).Format(time.RFC3339)
	}); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	second, err := manager.Create("newer")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "not_a_session"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	infos, err := manager.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(infos))
	}
	if infos[0].SessionID != second.ID {
		t.Fatalf("expected newest first, got %q", infos[0].SessionID)
	}
	if !strings.HasPrefix(infos[1].SessionID, "older_") {
		t.Fatalf("unexpected second entry: %q", infos[1].SessionID)
	}
}

func TestAcquireBlocksSecondLocker(t *testing.T) {
	manager := session.NewManager(t.TempDir())
	sess, err := manager.Create("demo")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	release, err := sess.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	other, err := manager.Load(sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := other.Acquire(ctx); err == nil {
		t.Fatal("expected second acquire to fail while lock held")
	}
}

func TestLoadMissingSession(t *testing.T) {
	manager := session.NewManager(t.TempDir())
	if _, err := manager.Load("nope"); err == nil {
		t.Fatal("expected error for unknown session")
	}
}
