package regen_test

import (
	"os"
	"path/filepath"
	"testing"

	"ministory/internal/artifacts"
	"ministory/internal/regen"
	"ministory/internal/story"
)

func writeArtifact(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		kind regen.Kind
		want string
	}{
		{regen.KindSceneImage, "SC_01_SC1_SH1_scene.png"},
		{regen.KindShotVideo, "SC_01_SC1_SH1_video.mp4"},
		{regen.KindDialogAudio, "SC_01_SC1_SH1_audio.mp3"},
	}
	for _, tc := range tests {
		if got := regen.FileName("SC_01", "SC1_SH1", tc.kind); got != tc.want {
			t.Errorf("FileName(%s) = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestShouldRegenerateExistingArtifact(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	ctrl := regen.NewController(store, nil)

	writeArtifact(t, ctrl.ArtifactPath("SC_01", "SC1_SH1", regen.KindSceneImage))

	if ctrl.ShouldRegenerate("SC_01", "SC1_SH1", regen.KindSceneImage, false) {
		t.Fatal("existing artifact without force must not regenerate")
	}
	if !ctrl.ShouldRegenerate("SC_01", "SC1_SH1", regen.KindSceneImage, true) {
		t.Fatal("explicit force must regenerate regardless of disk state")
	}
	if !ctrl.ShouldRegenerate("SC_01", "SC1_SH2", regen.KindSceneImage, false) {
		t.Fatal("missing artifact must regenerate")
	}
}

func TestForceScopes(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())

	seed := func(ctrl *regen.Controller) {
		writeArtifact(t, ctrl.ArtifactPath("SC_01", "SC1_SH1", regen.KindSceneImage))
		writeArtifact(t, ctrl.ArtifactPath("SC_01", "SC1_SH2", regen.KindSceneImage))
		writeArtifact(t, ctrl.ArtifactPath("SC_02", "SC2_SH1", regen.KindSceneImage))
	}

	t.Run("stage", func(t *testing.T) {
		ctrl := regen.NewController(store, nil)
		seed(ctrl)
		ctrl.ForceStage(regen.KindSceneImage)
		for _, unit := range [][2]string{{"SC_01", "SC1_SH1"}, {"SC_01", "SC1_SH2"}, {"SC_02", "SC2_SH1"}} {
			if !ctrl.ShouldRegenerate(unit[0], unit[1], regen.KindSceneImage, false) {
				t.Fatalf("stage force must cover %v", unit)
			}
		}
	})

	t.Run("scene", func(t *testing.T) {
		ctrl := regen.NewController(store, nil)
		seed(ctrl)
		ctrl.ForceScene("SC_01")
		if !ctrl.ShouldRegenerate("SC_01", "SC1_SH1", regen.KindSceneImage, false) {
			t.Fatal("scene force must cover its shots")
		}
		if ctrl.ShouldRegenerate("SC_02", "SC2_SH1", regen.KindSceneImage, false) {
			t.Fatal("scene force must not leak into sibling scenes")
		}
	})

	t.Run("shot", func(t *testing.T) {
		ctrl := regen.NewController(store, nil)
		seed(ctrl)
		ctrl.ForceShot("SC_01", "SC1_SH1")
		if !ctrl.ShouldRegenerate("SC_01", "SC1_SH1", regen.KindSceneImage, false) {
			t.Fatal("shot force must cover the shot")
		}
		if ctrl.ShouldRegenerate("SC_01", "SC1_SH2", regen.KindSceneImage, false) {
			t.Fatal("shot force must not invalidate sibling shots")
		}
	})
}

func TestRescanDerivesProgressFromDisk(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	ctrl := regen.NewController(store, nil)

	script := &story.Script{
		Scenes: []story.Scene{
			{
				SceneInfo: story.SceneInfo{SceneID: "SC_01"},
				Shots:     []story.Shot{{ShotID: "SC1_SH1"}, {ShotID: "SC1_SH2"}},
			},
		},
	}
	writeArtifact(t, ctrl.ArtifactPath("SC_01", "SC1_SH1", regen.KindSceneImage))

	// Poison the in-memory ledger to prove the rescan trusts disk only.
	ctrl.RecordResult("SC_01", "SC1_SH2", regen.KindSceneImage, regen.StatusSuccess, "")
	ctrl.Rescan(script)

	progress := ctrl.Progress()
	done := regen.Key{SceneID: "SC_01", ShotID: "SC1_SH1", Kind: regen.KindSceneImage}
	pending := regen.Key{SceneID: "SC_01", ShotID: "SC1_SH2", Kind: regen.KindSceneImage}
	if !progress.Completed[done] {
		t.Fatal("on-disk artifact not reflected after rescan")
	}
	if progress.Completed[pending] {
		t.Fatal("rescan kept stale in-memory completion")
	}
}

func TestRecordResultTracksFailures(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	ctrl := regen.NewController(store, nil)

	ctrl.RecordResult("SC_01", "SC1_SH1", regen.KindShotVideo, regen.StatusFailed, "api timeout")
	progress := ctrl.Progress()
	key := regen.Key{SceneID: "SC_01", ShotID: "SC1_SH1", Kind: regen.KindShotVideo}
	if progress.Failed[key] != "api timeout" {
		t.Fatalf("failure not recorded: %+v", progress.Failed)
	}

	ctrl.RecordResult("SC_01", "SC1_SH1", regen.KindShotVideo, regen.StatusSuccess, "")
	progress = ctrl.Progress()
	if _, stillFailed := progress.Failed[key]; stillFailed {
		t.Fatal("success must clear the failure")
	}
	if !progress.Completed[key] {
		t.Fatal("success not recorded")
	}
}

func TestClearArtifactsHonorsScope(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	ctrl := regen.NewController(store, nil)

	script := &story.Script{
		Scenes: []story.Scene{
			{SceneInfo: story.SceneInfo{SceneID: "SC_01"}, Shots: []story.Shot{{ShotID: "SC1_SH1"}, {ShotID: "SC1_SH2"}}},
		},
	}
	keep := ctrl.ArtifactPath("SC_01", "SC1_SH2", regen.KindSceneImage)
	drop := ctrl.ArtifactPath("SC_01", "SC1_SH1", regen.KindSceneImage)
	writeArtifact(t, keep)
	writeArtifact(t, drop)

	ctrl.ForceShot("SC_01", "SC1_SH1")
	if err := ctrl.ClearArtifacts(script); err != nil {
		t.Fatalf("ClearArtifacts: %v", err)
	}
	if _, err := os.Stat(drop); !os.IsNotExist(err) {
		t.Fatal("forced artifact not removed")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatal("sibling artifact removed")
	}
}

func TestShouldRegenerateAudioByPrefix(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	ctrl := regen.NewController(store, nil)

	// Audio shots write numbered track files, never the bare canonical name.
	writeArtifact(t, filepath.Join(store.AudioDir(), "SC_01_SC1_SH1_audio_00_narration.mp3"))

	if ctrl.ShouldRegenerate("SC_01", "SC1_SH1", regen.KindDialogAudio, false) {
		t.Fatal("existing audio tracks must not regenerate")
	}
	if !ctrl.ShouldRegenerate("SC_01", "SC1_SH2", regen.KindDialogAudio, false) {
		t.Fatal("shot without tracks must regenerate")
	}
}

func TestClearArtifactsRemovesAudioTracks(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	ctrl := regen.NewController(store, nil)

	script := &story.Script{
		Scenes: []story.Scene{
			{SceneInfo: story.SceneInfo{SceneID: "SC_01"}, Shots: []story.Shot{{ShotID: "SC1_SH1"}, {ShotID: "SC1_SH2"}}},
		},
	}
	dropped := []string{
		filepath.Join(store.AudioDir(), "SC_01_SC1_SH1_audio_00_narration.mp3"),
		filepath.Join(store.AudioDir(), "SC_01_SC1_SH1_audio_01_char_01.mp3"),
	}
	kept := filepath.Join(store.AudioDir(), "SC_01_SC1_SH2_audio_00_narration.mp3")
	for _, path := range dropped {
		writeArtifact(t, path)
	}
	writeArtifact(t, kept)

	ctrl.ForceShot("SC_01", "SC1_SH1")
	if err := ctrl.ClearArtifacts(script); err != nil {
		t.Fatalf("ClearArtifacts: %v", err)
	}
	for _, path := range dropped {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("forced audio track survived: %s", path)
		}
	}
	if _, err := os.Stat(kept); err != nil {
		t.Fatal("sibling shot audio removed")
	}
}

func TestRescanSeesAudioTracks(t *testing.T) {
	store := artifacts.NewStore(t.TempDir())
	ctrl := regen.NewController(store, nil)

	script := &story.Script{
		Scenes: []story.Scene{
			{SceneInfo: story.SceneInfo{SceneID: "SC_01"}, Shots: []story.Shot{{ShotID: "SC1_SH1"}}},
		},
	}
	writeArtifact(t, filepath.Join(store.AudioDir(), "SC_01_SC1_SH1_audio_00_narration.mp3"))

	ctrl.Rescan(script)
	key := regen.Key{SceneID: "SC_01", ShotID: "SC1_SH1", Kind: regen.KindDialogAudio}
	if !ctrl.Progress().Completed[key] {
		t.Fatal("audio tracks not reflected after rescan")
	}
}
