package voice

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ministory/internal/artifacts"
	"ministory/internal/fileutil"
	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/regen"
	"ministory/internal/stage"
	"ministory/internal/testsupport"
)

func handlerContext(t *testing.T) *stage.Context {
	t.Helper()
	store := artifacts.NewStore(t.TempDir())
	cfg := testsupport.NewConfig(t, testsupport.WithDefaultVoice("v_narrator"))
	logger := logging.NewNop()
	return &stage.Context{
		Store:  store,
		Config: cfg,
		Regen:  regen.NewController(store, logger),
		Logger: logger,
	}
}

func seedVideoStage(t *testing.T, sc *stage.Context) {
	t.Helper()
	script := mappingScript()
	if err := sc.Store.Save(artifacts.KindScriptWithDescriptions, script); err != nil {
		t.Fatalf("save script: %v", err)
	}
	if err := sc.Store.Save(artifacts.KindCharacters, &artifacts.CharactersDoc{Characters: script.Characters}); err != nil {
		t.Fatalf("save characters: %v", err)
	}
	clip := filepath.Join(sc.Store.VideosDir(), "SC_01_SC1_SH1_video.mp4")
	if err := fileutil.WriteFileAtomic(clip, []byte("ftyp"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
}

func TestHandlerExecuteProducesFinalVideo(t *testing.T) {
	sc := handlerContext(t)
	seedVideoStage(t, sc)

	text := &generate.FakeText{}
	text.Queue(mappingResponse)
	speech := &generate.FakeSpeech{Voices: []generate.Voice{
		{ID: "v_m", Gender: "male"},
		{ID: "v_f", Gender: "female"},
	}}
	handler := NewHandler(text, speech)

	var commands [][]string
	handler.RunCommand = func(_ context.Context, name string, args ...string) error {
		commands = append(commands, append([]string{name}, args...))
		// ffmpeg writes its output file as the last argument.
		return os.WriteFile(args[len(args)-1], []byte("out"), 0o644)
	}

	if err := handler.Prepare(context.Background(), sc); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), sc); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var mapping MappingDoc
	if err := sc.Store.Load(artifacts.KindDialogMapping, &mapping); err != nil {
		t.Fatalf("load dialog mapping: %v", err)
	}
	if len(mapping.Scenes) != 1 || !mapping.Scenes[0].Shots[0].HasDialog {
		t.Fatalf("mapping not persisted: %+v", mapping)
	}

	var doc artifacts.CharactersDoc
	if err := sc.Store.Load(artifacts.KindCharacters, &doc); err != nil {
		t.Fatalf("load characters: %v", err)
	}
	if doc.Characters[0].VoiceID != "v_m" || doc.Characters[1].VoiceID != "v_f" {
		t.Fatalf("voices not assigned: %+v", doc.Characters)
	}

	if len(speech.Lines) != 2 {
		t.Fatalf("expected narration + dialog synthesis, got %+v", speech.Lines)
	}

	if _, err := os.Stat(sc.Store.FinalVideoPath()); err != nil {
		t.Fatalf("final video missing: %v", err)
	}
	if len(commands) == 0 {
		t.Fatal("ffmpeg never invoked")
	}
	last := commands[len(commands)-1]
	if last[len(last)-1] != sc.Store.FinalVideoPath() {
		t.Fatalf("last command output = %q", last[len(last)-1])
	}
}

func TestHandlerExecuteFailsWithoutClips(t *testing.T) {
	sc := handlerContext(t)
	script := mappingScript()
	if err := sc.Store.Save(artifacts.KindScriptWithDescriptions, script); err != nil {
		t.Fatal(err)
	}
	if err := sc.Store.Save(artifacts.KindCharacters, &artifacts.CharactersDoc{Characters: script.Characters}); err != nil {
		t.Fatal(err)
	}

	text := &generate.FakeText{}
	text.Queue(mappingResponse)
	handler := NewHandler(text, &generate.FakeSpeech{})

	if err := handler.Prepare(context.Background(), sc); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	err := handler.Execute(context.Background(), sc)
	if err == nil || !strings.Contains(err.Error(), "no rendered shot clips") {
		t.Fatalf("expected missing-clip failure, got %v", err)
	}
}

func TestHandlerShotScopeResynthesizesAudio(t *testing.T) {
	sc := handlerContext(t)
	seedVideoStage(t, sc)
	existing := filepath.Join(sc.Store.AudioDir(), "SC_01_SC1_SH1_audio_00_narration.mp3")
	if err := fileutil.WriteFileAtomic(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	run := func() *generate.FakeSpeech {
		text := &generate.FakeText{}
		text.Queue(mappingResponse)
		speech := &generate.FakeSpeech{}
		handler := NewHandler(text, speech)
		handler.RunCommand = func(_ context.Context, _ string, args ...string) error {
			return os.WriteFile(args[len(args)-1], []byte("out"), 0o644)
		}
		if err := handler.Prepare(context.Background(), sc); err != nil {
			t.Fatalf("Prepare: %v", err)
		}
		if err := handler.Execute(context.Background(), sc); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		return speech
	}

	if speech := run(); len(speech.Lines) != 0 {
		t.Fatalf("existing audio resynthesized without a force scope: %+v", speech.Lines)
	}

	sc.Regen.ForceShot("SC_01", "SC1_SH1")
	if speech := run(); len(speech.Lines) != 2 {
		t.Fatalf("shot scope did not resynthesize audio: %+v", speech.Lines)
	}
}

func TestHandlerPrepareRequiresDescribedScript(t *testing.T) {
	sc := handlerContext(t)
	handler := NewHandler(&generate.FakeText{}, &generate.FakeSpeech{})
	if err := handler.Prepare(context.Background(), sc); err == nil {
		t.Fatal("expected error without script_with_descriptions artifact")
	}
}

func TestHandlerKeepsExistingVoiceAssignments(t *testing.T) {
	sc := handlerContext(t)
	script := mappingScript()
	script.Characters[0].VoiceID = "v_custom"
	if err := sc.Store.Save(artifacts.KindScriptWithDescriptions, script); err != nil {
		t.Fatal(err)
	}
	if err := sc.Store.Save(artifacts.KindCharacters, &artifacts.CharactersDoc{Characters: script.Characters}); err != nil {
		t.Fatal(err)
	}
	clip := filepath.Join(sc.Store.VideosDir(), "SC_01_SC1_SH1_video.mp4")
	if err := fileutil.WriteFileAtomic(clip, []byte("ftyp"), 0o644); err != nil {
		t.Fatal(err)
	}

	text := &generate.FakeText{}
	text.Queue(mappingResponse)
	speech := &generate.FakeSpeech{Voices: []generate.Voice{{ID: "v_m", Gender: "male"}}}
	handler := NewHandler(text, speech)
	handler.RunCommand = func(_ context.Context, _ string, args ...string) error {
		return os.WriteFile(args[len(args)-1], []byte("out"), 0o644)
	}

	if err := handler.Prepare(context.Background(), sc); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), sc); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var doc artifacts.CharactersDoc
	if err := sc.Store.Load(artifacts.KindCharacters, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Characters[0].VoiceID != "v_custom" {
		t.Fatalf("existing assignment overwritten: %q", doc.Characters[0].VoiceID)
	}
}
