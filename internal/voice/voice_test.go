package voice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/story"
)

const mappingResponse = `{
  "scene_id": "SC_01",
  "shots": [
    {
      "shot_id": "SC1_SH1",
      "character_dialogs": [
        {"character_id": "char_01", "character_name": "Sanju", "dialog": "Main kuch nahi jaanta."}
      ],
      "narration": "The ground falls silent.",
      "has_dialog": true,
      "has_narration": true
    }
  ]
}`

func mappingScript() *story.Script {
	return &story.Script{
		Scenes: []story.Scene{{
			SceneInfo: story.SceneInfo{SceneID: "SC_01", Location: "EXT. COLLEGE GROUND - NIGHT"},
			Shots: []story.Shot{{
				ShotID:          "SC1_SH1",
				Description:     "Sanju faces the inspector",
				FocusCharacters: []string{"Sanju"},
				Dialog:          []map[string]string{{"Sanju": "Main kuch nahi jaanta."}},
				Narration:       "The ground falls silent.",
			}},
		}},
		Characters: []story.Character{
			{ID: "char_01", Name: "Sanju", Gender: "male"},
			{ID: "char_02", Name: "Inspector Rathi", Gender: "female"},
		},
	}
}

func TestMapScriptParsesResponse(t *testing.T) {
	text := &generate.FakeText{}
	text.Queue(mappingResponse)
	mapper := NewMapper(text, logging.NewNop())

	doc := mapper.MapScript(context.Background(), mappingScript())
	if len(doc.Scenes) != 1 || doc.Scenes[0].SceneID != "SC_01" {
		t.Fatalf("unexpected mapping: %+v", doc)
	}
	shot := doc.Scenes[0].Shots[0]
	if !shot.HasDialog || len(shot.CharacterDialogs) != 1 {
		t.Fatalf("dialog not mapped: %+v", shot)
	}
	if shot.CharacterDialogs[0].CharacterID != "char_01" {
		t.Fatalf("speaker = %q", shot.CharacterDialogs[0].CharacterID)
	}
	if !shot.HasNarration || shot.Narration == "" {
		t.Fatalf("narration not mapped: %+v", shot)
	}
}

func TestMapScriptDerivesFromScriptOnFailure(t *testing.T) {
	text := &generate.FakeText{Err: errors.New("model down")}
	mapper := NewMapper(text, logging.NewNop())

	doc := mapper.MapScript(context.Background(), mappingScript())
	if len(doc.Scenes) != 1 {
		t.Fatalf("expected derived mapping, got %+v", doc)
	}
	shot := doc.Scenes[0].Shots[0]
	if !shot.HasDialog || shot.CharacterDialogs[0].CharacterID != "char_01" {
		t.Fatalf("derived dialog did not resolve speaker: %+v", shot)
	}
	if shot.CharacterDialogs[0].Dialog != "Main kuch nahi jaanta." {
		t.Fatalf("derived dialog text = %q", shot.CharacterDialogs[0].Dialog)
	}
	if !shot.HasNarration || shot.Narration != "The ground falls silent." {
		t.Fatalf("derived narration = %q", shot.Narration)
	}
}

func TestAssignVoicesMatchesGender(t *testing.T) {
	characters := []story.Character{
		{ID: "char_01", Name: "Sanju", Gender: "male"},
		{ID: "char_02", Name: "Inspector Rathi", Gender: "female"},
	}
	voices := []generate.Voice{
		{ID: "v_f", Name: "Asha", Gender: "female", Description: "warm authoritative voice"},
		{ID: "v_m", Name: "Ravi", Gender: "male", Description: "young conversational voice"},
	}
	AssignVoices(characters, voices, "v_default", logging.NewNop())

	if characters[0].VoiceID != "v_m" {
		t.Fatalf("male character got %q", characters[0].VoiceID)
	}
	if characters[1].VoiceID != "v_f" {
		t.Fatalf("female character got %q", characters[1].VoiceID)
	}
}

func TestAssignVoicesFallsBackToDefault(t *testing.T) {
	characters := []story.Character{{ID: "char_01", Name: "Sanju", Gender: "male"}}
	AssignVoices(characters, nil, "v_default", logging.NewNop())
	if characters[0].VoiceID != "v_default" {
		t.Fatalf("got %q, want default voice", characters[0].VoiceID)
	}
}

func TestEnsureUniqueVoicesReassignsSecondHolder(t *testing.T) {
	characters := []story.Character{
		{ID: "char_01", Name: "Sanju", Gender: "male", VoiceID: "v_1"},
		{ID: "char_02", Name: "Rohit", Gender: "male", VoiceID: "v_1"},
	}
	voices := []generate.Voice{
		{ID: "v_1", Gender: "male"},
		{ID: "v_2", Gender: "male"},
	}
	EnsureUniqueVoices(characters, voices, logging.NewNop())

	if characters[0].VoiceID != "v_1" {
		t.Fatalf("first holder changed: %q", characters[0].VoiceID)
	}
	if characters[1].VoiceID != "v_2" {
		t.Fatalf("second holder = %q, want v_2", characters[1].VoiceID)
	}
}

func TestEnsureUniqueVoicesKeepsDuplicateWhenExhausted(t *testing.T) {
	characters := []story.Character{
		{ID: "char_01", VoiceID: "v_1"},
		{ID: "char_02", VoiceID: "v_1"},
	}
	voices := []generate.Voice{{ID: "v_1"}}
	EnsureUniqueVoices(characters, voices, logging.NewNop())
	if characters[1].VoiceID != "v_1" {
		t.Fatalf("got %q, want duplicate kept", characters[1].VoiceID)
	}
}

func TestSynthesizeWritesNarrationThenDialog(t *testing.T) {
	dir := t.TempDir()
	speech := &generate.FakeSpeech{}
	synth := NewSynthesizer(speech, "v_narrator", logging.NewNop())

	doc := &MappingDoc{Scenes: []SceneDialogMapping{{
		SceneID: "SC_01",
		Shots: []ShotDialog{{
			ShotID: "SC1_SH1",
			CharacterDialogs: []CharacterDialog{
				{CharacterID: "char_01", CharacterName: "Sanju", Dialog: "Main kuch nahi jaanta."},
			},
			Narration:    "The ground falls silent.",
			HasDialog:    true,
			HasNarration: true,
		}},
	}}}
	characters := []story.Character{{ID: "char_01", Name: "Sanju", VoiceID: "v_sanju"}}

	results := synth.Synthesize(context.Background(), doc, characters, dir, nil)
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("results = %+v", results)
	}
	if len(results[0].Files) != 2 {
		t.Fatalf("expected 2 audio files, got %v", results[0].Files)
	}
	narration := filepath.Base(results[0].Files[0])
	if narration != "SC_01_SC1_SH1_audio_00_narration.mp3" {
		t.Fatalf("narration file = %q", narration)
	}
	dialog := filepath.Base(results[0].Files[1])
	if dialog != "SC_01_SC1_SH1_audio_01_char_01.mp3" {
		t.Fatalf("dialog file = %q", dialog)
	}

	if len(speech.Lines) != 2 {
		t.Fatalf("lines = %+v", speech.Lines)
	}
	if speech.Lines[0].VoiceID != "v_narrator" {
		t.Fatalf("narration voice = %q", speech.Lines[0].VoiceID)
	}
	if speech.Lines[1].VoiceID != "v_sanju" {
		t.Fatalf("dialog voice = %q", speech.Lines[1].VoiceID)
	}
	for _, file := range results[0].Files {
		if _, err := os.Stat(file); err != nil {
			t.Fatalf("audio file missing: %v", err)
		}
	}
}

func TestSynthesizeSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "SC_01_SC1_SH1_audio_00_narration.mp3")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	speech := &generate.FakeSpeech{}
	synth := NewSynthesizer(speech, "v_narrator", logging.NewNop())
	doc := &MappingDoc{Scenes: []SceneDialogMapping{{
		SceneID: "SC_01",
		Shots:   []ShotDialog{{ShotID: "SC1_SH1", Narration: "quiet", HasNarration: true}},
	}}}

	results := synth.Synthesize(context.Background(), doc, nil, dir, nil)
	if len(results) != 1 || !results[0].Skipped {
		t.Fatalf("expected skip, got %+v", results)
	}
	if len(speech.Lines) != 0 {
		t.Fatalf("speech called despite existing audio: %+v", speech.Lines)
	}

	always := func(string, string) bool { return true }
	results = synth.Synthesize(context.Background(), doc, nil, dir, always)
	if results[0].Skipped || len(speech.Lines) != 1 {
		t.Fatalf("force did not resynthesize: %+v", results)
	}
}

func TestSynthesizeHonorsPerShotGate(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"SC_01_SC1_SH1_audio_00_narration.mp3",
		"SC_01_SC1_SH2_audio_00_narration.mp3",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	speech := &generate.FakeSpeech{}
	synth := NewSynthesizer(speech, "v_narrator", logging.NewNop())
	doc := &MappingDoc{Scenes: []SceneDialogMapping{{
		SceneID: "SC_01",
		Shots: []ShotDialog{
			{ShotID: "SC1_SH1", Narration: "one", HasNarration: true},
			{ShotID: "SC1_SH2", Narration: "two", HasNarration: true},
		},
	}}}

	results := synth.Synthesize(context.Background(), doc, nil, dir, func(_, shotID string) bool {
		return shotID == "SC1_SH2"
	})
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if !results[0].Skipped || results[1].Skipped {
		t.Fatalf("gate not honored: %+v", results)
	}
	if len(speech.Lines) != 1 || speech.Lines[0].Text != "two" {
		t.Fatalf("expected only the gated shot to render, got %+v", speech.Lines)
	}
}

func TestSynthesizeFailureIsolatedPerShot(t *testing.T) {
	dir := t.TempDir()
	speech := &generate.FakeSpeech{Err: errors.New("quota")}
	synth := NewSynthesizer(speech, "v_narrator", logging.NewNop())
	doc := &MappingDoc{Scenes: []SceneDialogMapping{{
		SceneID: "SC_01",
		Shots: []ShotDialog{
			{ShotID: "SC1_SH1", Narration: "one", HasNarration: true},
			{ShotID: "SC1_SH2", Narration: "two", HasNarration: true},
		},
	}}}

	results := synth.Synthesize(context.Background(), doc, nil, dir, nil)
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	for _, result := range results {
		if result.Err == nil || !strings.Contains(result.Err.Error(), "quota") {
			t.Fatalf("expected quota error, got %v", result.Err)
		}
	}
}
