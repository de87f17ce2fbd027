package assetcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"log/slog"

	"ministory/internal/artifacts"
	"ministory/internal/testsupport"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.AssetCache.Enabled = true
	cfg.AssetCache.MaxGiB = 1
	cfg.AssetCache.MinFreeGiB = 0
	cfg.AssetCache.KeepPerKind = 0

	manager := NewManager(cfg, slog.Default())
	if manager == nil {
		t.Fatalf("expected manager")
	}
	manager.statfs = func(string) (uint64, uint64, error) {
		return 100, 100, nil
	}
	return manager
}

func writeAsset(t *testing.T, manager *Manager, sessionID, kind, name string, size int, when time.Time) string {
	t.Helper()
	store := artifacts.NewStore(filepath.Join(manager.root, sessionID))
	var dir string
	switch kind {
	case KindImage:
		dir = store.ImagesDir()
	case KindVideo:
		dir = store.VideosDir()
	case KindAudio:
		dir = store.AudioDir()
	default:
		t.Fatalf("unknown kind %q", kind)
	}
	path := filepath.Join(dir, name)
	testsupport.WriteFile(t, path, int64(size))
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	return path
}

func TestManagerDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.AssetCache.Enabled = false
	if NewManager(cfg, slog.Default()) != nil {
		t.Fatal("expected nil manager when disabled")
	}
	cfg.AssetCache.Enabled = true
	cfg.AssetCache.MaxGiB = 0
	if NewManager(cfg, slog.Default()) != nil {
		t.Fatal("expected nil manager without a size cap")
	}
}

func TestStatsAggregatesByKind(t *testing.T) {
	manager := testManager(t)
	now := time.Now()
	writeAsset(t, manager, "sess_a", KindImage, "SC_01_SC1_SH1_scene.png", 128, now.Add(-2*time.Hour))
	writeAsset(t, manager, "sess_a", KindVideo, "SC_01_SC1_SH1_video.mp4", 256, now.Add(-time.Hour))
	writeAsset(t, manager, "sess_b", KindVideo, "SC_01_SC1_SH1_video.mp4", 64, now.Add(-time.Minute))

	stats, err := manager.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Files != 3 {
		t.Fatalf("files: got %d want 3", stats.Files)
	}
	if stats.TotalBytes != 448 {
		t.Fatalf("total bytes: got %d want 448", stats.TotalBytes)
	}
	if got, want := len(stats.Kinds), 2; got != want {
		t.Fatalf("kind summaries len: got %d want %d", got, want)
	}
	if stats.Kinds[0].Kind != KindImage || stats.Kinds[0].Files != 1 {
		t.Fatalf("unexpected first summary: %+v", stats.Kinds[0])
	}
	if stats.Kinds[1].Kind != KindVideo || stats.Kinds[1].Files != 2 || stats.Kinds[1].TotalBytes != 320 {
		t.Fatalf("unexpected second summary: %+v", stats.Kinds[1])
	}
}

func TestPruneRemovesOldestFirst(t *testing.T) {
	manager := testManager(t)
	manager.maxBytes = 300

	now := time.Now()
	oldest := writeAsset(t, manager, "sess_a", KindVideo, "SC_01_SC1_SH1_video.mp4", 200, now.Add(-3*time.Hour))
	middle := writeAsset(t, manager, "sess_a", KindVideo, "SC_01_SC1_SH2_video.mp4", 200, now.Add(-2*time.Hour))
	newest := writeAsset(t, manager, "sess_b", KindVideo, "SC_01_SC1_SH1_video.mp4", 100, now.Add(-time.Minute))

	if err := manager.Prune(context.Background(), ""); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if _, err := os.Stat(oldest); !os.IsNotExist(err) {
		t.Fatalf("expected oldest asset pruned")
	}
	for _, path := range []string{middle, newest} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
}

func TestPruneProtectsActiveSession(t *testing.T) {
	manager := testManager(t)
	manager.maxBytes = 100

	now := time.Now()
	active := writeAsset(t, manager, "sess_active", KindVideo, "SC_01_SC1_SH1_video.mp4", 200, now.Add(-3*time.Hour))
	other := writeAsset(t, manager, "sess_other", KindVideo, "SC_01_SC1_SH1_video.mp4", 50, now.Add(-time.Minute))

	err := manager.Prune(context.Background(), "sess_active")
	if err == nil {
		t.Fatal("expected error when the active session alone exceeds the cap")
	}
	if _, statErr := os.Stat(active); statErr != nil {
		t.Fatalf("active session asset should survive: %v", statErr)
	}
	if _, statErr := os.Stat(other); !os.IsNotExist(statErr) {
		t.Fatal("expected other session asset pruned")
	}
}

func TestPruneKeepsNewestPerKind(t *testing.T) {
	manager := testManager(t)
	manager.maxBytes = 1
	manager.keepPerKind = 1

	now := time.Now()
	oldImage := writeAsset(t, manager, "sess_a", KindImage, "SC_01_SC1_SH1_scene.png", 100, now.Add(-2*time.Hour))
	newImage := writeAsset(t, manager, "sess_a", KindImage, "SC_01_SC1_SH2_scene.png", 100, now.Add(-time.Minute))

	err := manager.Prune(context.Background(), "")
	if err == nil {
		t.Fatal("expected error: protected assets still exceed the cap")
	}
	if _, statErr := os.Stat(oldImage); !os.IsNotExist(statErr) {
		t.Fatal("expected older image pruned")
	}
	if _, statErr := os.Stat(newImage); statErr != nil {
		t.Fatalf("newest image per kind should survive: %v", statErr)
	}
}

func TestPruneHonorsFreeSpaceFloor(t *testing.T) {
	manager := testManager(t)
	manager.maxBytes = 1 << 30
	manager.minFreeBytes = 1000

	now := time.Now()
	oldest := writeAsset(t, manager, "sess_a", KindAudio, "SC_01_SC1_SH1_audio_00_narration.mp3", 100, now.Add(-2*time.Hour))
	newest := writeAsset(t, manager, "sess_a", KindAudio, "SC_01_SC1_SH1_audio_01_char_01.mp3", 100, now.Add(-time.Minute))

	// Free space climbs back above the floor once the oldest file is gone.
	manager.statfs = func(string) (uint64, uint64, error) {
		if _, err := os.Stat(oldest); os.IsNotExist(err) {
			return 10000, 2000, nil
		}
		return 10000, 500, nil
	}

	if err := manager.Prune(context.Background(), ""); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if _, err := os.Stat(oldest); !os.IsNotExist(err) {
		t.Fatal("expected oldest audio pruned to restore free space")
	}
	if _, err := os.Stat(newest); err != nil {
		t.Fatalf("newest audio should remain: %v", err)
	}
}
