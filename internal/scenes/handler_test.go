package scenes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ministory/internal/artifacts"
	"ministory/internal/config"
	"ministory/internal/fileutil"
	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/regen"
	"ministory/internal/stage"
	"ministory/internal/story"
)

const descriptionResponse = `{
  "scene_image_prompt": "Cinematic scene: Sanju(male) handcuffed at the crime scene, close-up, harsh daylight, tense",
  "scene_video_prompt": {
    "camera_angle": "close-up",
    "scene_description": "Sanju sits motionless",
    "character_visual_description": "jeans and faded t-shirt",
    "mood_emotion": "tense",
    "lighting": "harsh daylight"
  }
}`

func testScript() *story.Script {
	return &story.Script{
		Scenes: []story.Scene{{
			SceneInfo: story.SceneInfo{
				SceneID:  "SC_01",
				Location: "EXT. COLLEGE GROUND - NIGHT",
			},
			Shots: []story.Shot{{
				ShotID:          "SC1_SH1",
				Description:     "Close-up of Sanju sitting handcuffed",
				FocusCharacters: []string{"Sanju"},
			}},
		}},
		Characters: []story.Character{{ID: "char_01", Name: "Sanju", Gender: "male"}},
		Locations:  []story.Location{{LocationID: "LOC_01", Name: "College Ground"}},
	}
}

func testContext(t *testing.T) *stage.Context {
	t.Helper()
	store := artifacts.NewStore(t.TempDir())
	cfg := config.Default()
	cfg.Pipeline.ContinueOnError = true
	logger := logging.NewNop()
	return &stage.Context{
		Store:  store,
		Config: &cfg,
		Regen:  regen.NewController(store, logger),
		Logger: logger,
	}
}

func seedArtifacts(t *testing.T, sc *stage.Context, script *story.Script) {
	t.Helper()
	if err := sc.Store.Save(artifacts.KindFormattedScript, script); err != nil {
		t.Fatalf("save script: %v", err)
	}
	if err := sc.Store.Save(artifacts.KindCharacters, &artifacts.CharactersDoc{Characters: script.Characters}); err != nil {
		t.Fatalf("save characters: %v", err)
	}
	if err := sc.Store.Save(artifacts.KindLocations, &artifacts.LocationsDoc{Locations: script.Locations}); err != nil {
		t.Fatalf("save locations: %v", err)
	}
}

func TestExecuteRendersImageThenVideo(t *testing.T) {
	sc := testContext(t)
	seedArtifacts(t, sc, testScript())

	text := &generate.FakeText{}
	text.Queue(descriptionResponse)
	image := &generate.FakeImage{Bytes: []byte("png")}
	video := &generate.FakeVideo{Bytes: []byte("mp4")}
	handler := NewHandler(text, image, video)

	if err := handler.Prepare(context.Background(), sc); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), sc); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	imagePath := filepath.Join(sc.Store.ImagesDir(), "SC_01_SC1_SH1_scene.png")
	videoPath := filepath.Join(sc.Store.VideosDir(), "SC_01_SC1_SH1_video.mp4")
	if !fileutil.FileExists(imagePath) {
		t.Fatalf("shot image not written at %s", imagePath)
	}
	if !fileutil.FileExists(videoPath) {
		t.Fatalf("shot video not written at %s", videoPath)
	}
	if len(video.SeedSizes) != 1 || video.SeedSizes[0] == 0 {
		t.Fatalf("video not seeded with the shot image: %+v", video.SeedSizes)
	}

	var annotated story.Script
	if err := sc.Store.Load(artifacts.KindScriptWithDescriptions, &annotated); err != nil {
		t.Fatalf("load annotated script: %v", err)
	}
	shot := annotated.Scenes[0].Shots[0]
	if shot.SceneDescription == nil || !strings.Contains(shot.SceneDescription.SceneImagePrompt, "Sanju(male)") {
		t.Fatalf("scene description not persisted: %+v", shot.SceneDescription)
	}
	if len(shot.FocusCharacterImages) != 1 || shot.FocusCharacterImages[0].CharacterID != "char_01" {
		t.Fatalf("references not attached: %+v", shot.FocusCharacterImages)
	}
	if !sc.Store.Exists(artifacts.KindOutfitTracking) {
		t.Fatal("outfit tracking snapshot not written")
	}
}

func TestExecuteUsesFallbackDescriptionOnLLMFailure(t *testing.T) {
	sc := testContext(t)
	seedArtifacts(t, sc, testScript())

	text := &generate.FakeText{Err: errors.New("model down")}
	image := &generate.FakeImage{Bytes: []byte("png")}
	video := &generate.FakeVideo{Bytes: []byte("mp4")}
	handler := NewHandler(text, image, video)

	if err := handler.Prepare(context.Background(), sc); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), sc); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var annotated story.Script
	if err := sc.Store.Load(artifacts.KindScriptWithDescriptions, &annotated); err != nil {
		t.Fatalf("load annotated script: %v", err)
	}
	got := annotated.Scenes[0].Shots[0].SceneDescription
	if got == nil || got.SceneImagePrompt != "Cinematic scene: Close-up of Sanju sitting handcuffed" {
		t.Fatalf("fallback description = %+v", got)
	}
}

func TestExecuteSkipsExistingArtifacts(t *testing.T) {
	sc := testContext(t)
	seedArtifacts(t, sc, testScript())

	imagePath := filepath.Join(sc.Store.ImagesDir(), "SC_01_SC1_SH1_scene.png")
	videoPath := filepath.Join(sc.Store.VideosDir(), "SC_01_SC1_SH1_video.mp4")
	if err := os.MkdirAll(sc.Store.ImagesDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(sc.Store.VideosDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(imagePath, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(videoPath, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	text := &generate.FakeText{}
	text.Queue(descriptionResponse)
	image := &generate.FakeImage{}
	video := &generate.FakeVideo{}
	handler := NewHandler(text, image, video)

	if err := handler.Prepare(context.Background(), sc); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), sc); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(image.Prompts) != 0 || len(video.Prompts) != 0 {
		t.Fatalf("existing artifacts regenerated: image=%d video=%d",
			len(image.Prompts), len(video.Prompts))
	}
}

func TestExecuteForceRegenerates(t *testing.T) {
	sc := testContext(t)
	seedArtifacts(t, sc, testScript())

	imagePath := filepath.Join(sc.Store.ImagesDir(), "SC_01_SC1_SH1_scene.png")
	if err := os.MkdirAll(sc.Store.ImagesDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(imagePath, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	text := &generate.FakeText{}
	text.Queue(descriptionResponse)
	image := &generate.FakeImage{Bytes: []byte("fresh")}
	video := &generate.FakeVideo{Bytes: []byte("mp4")}
	handler := NewHandler(text, image, video)
	handler.Force = true

	if err := handler.Prepare(context.Background(), sc); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), sc); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(image.Prompts) != 1 {
		t.Fatalf("image not regenerated under force: %d calls", len(image.Prompts))
	}
	data, err := os.ReadFile(imagePath)
	if err != nil || string(data) != "fresh" {
		t.Fatalf("stale image not replaced: %q %v", data, err)
	}
}

func TestExecuteImageFailureSkipsVideo(t *testing.T) {
	sc := testContext(t)
	seedArtifacts(t, sc, testScript())

	text := &generate.FakeText{}
	text.Queue(descriptionResponse)
	image := &generate.FakeImage{Err: errors.New("policy")}
	video := &generate.FakeVideo{}
	handler := NewHandler(text, image, video)

	if err := handler.Prepare(context.Background(), sc); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), sc); err != nil {
		t.Fatalf("Execute with ContinueOnError: %v", err)
	}
	if len(video.Prompts) != 0 {
		t.Fatal("video generation attempted without a seed image")
	}
	progress := sc.Regen.Progress()
	key := regen.Key{SceneID: "SC_01", ShotID: "SC1_SH1", Kind: regen.KindSceneImage}
	if _, isFailed := progress.Failed[key]; !isFailed {
		t.Fatalf("image failure not recorded: %+v", progress.Failed)
	}
}

func TestExecuteFailureAbortsWhenConfigured(t *testing.T) {
	sc := testContext(t)
	sc.Config.Pipeline.ContinueOnError = false
	seedArtifacts(t, sc, testScript())

	text := &generate.FakeText{}
	text.Queue(descriptionResponse)
	handler := NewHandler(text, &generate.FakeImage{Err: errors.New("policy")}, &generate.FakeVideo{})

	if err := handler.Prepare(context.Background(), sc); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	err := handler.Execute(context.Background(), sc)
	if err == nil || !strings.Contains(err.Error(), "1 shot(s) failed") {
		t.Fatalf("expected aggregate failure, got %v", err)
	}
}

func TestDescribeFallsBackOnUnparseableResponse(t *testing.T) {
	text := &generate.FakeText{}
	text.Queue("not json at all")
	describer := NewDescriber(text, nil)
	got := describer.Describe(context.Background(), story.Shot{
		ShotID:      "SC1_SH1",
		Description: "Wide shot of the ground",
		Camera:      "aerial",
	})
	if got.SceneImagePrompt != "Cinematic scene: Wide shot of the ground" {
		t.Fatalf("fallback = %+v", got)
	}
	if got.SceneVideoPrompt.CameraAngle != "aerial" {
		t.Fatalf("fallback camera = %q", got.SceneVideoPrompt.CameraAngle)
	}
}
