package story_test

import (
	"encoding/json"
	"strings"
	"testing"

	"ministory/internal/story"
)

func TestRepairCharacterIDsReassignsDuplicates(t *testing.T) {
	characters := []story.Character{
		{ID: "char_01", Name: "Sanju"},
		{ID: "char_01", Name: "Priya"},
		{ID: "char_03", Name: "Arjun"},
	}

	reassigned := story.RepairCharacterIDs(characters)

	if characters[0].ID != "char_01" {
		t.Fatalf("first occurrence must be untouched, got %q", characters[0].ID)
	}
	if characters[1].ID != "char_02" {
		t.Fatalf("expected position-derived id char_02, got %q", characters[1].ID)
	}
	if characters[2].ID != "char_03" {
		t.Fatalf("unrelated id changed: %q", characters[2].ID)
	}
	if got := reassigned["Priya"]; got != "char_02" {
		t.Fatalf("expected reassignment recorded for Priya, got %q", got)
	}

	seen := map[string]bool{}
	for _, c := range characters {
		if seen[c.ID] {
			t.Fatalf("duplicate id %q survived repair", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestRepairCharacterIDsNoDuplicates(t *testing.T) {
	characters := []story.Character{
		{ID: "char_01", Name: "A"},
		{ID: "char_02", Name: "B"},
	}
	if reassigned := story.RepairCharacterIDs(characters); len(reassigned) != 0 {
		t.Fatalf("expected no reassignments, got %v", reassigned)
	}
}

func TestCharacterRefDefaultsGender(t *testing.T) {
	ref := story.Character{ID: "char_01", Name: "Sanju"}.Ref()
	if ref.Gender != "unknown" {
		t.Fatalf("expected gender fallback, got %q", ref.Gender)
	}
}

func TestScriptPreservesUpstreamKeyCasing(t *testing.T) {
	payload := `{
		"scenes": [{
			"scene_info": {
				"Scene_ID": "SC_01",
				"Title": "Opening",
				"Location": "EXT. CRIME SCENE - NIGHT",
				"Narration": true,
				"Scene_Characters": [{"character_id": "char_01", "character_name": "Sanju"}],
				"Given_Script": "..."
			},
			"shots": [{
				"Shot_ID": "SC1_SH1",
				"Description": "Wide shot",
				"Focus_Characters": ["Sanju"],
				"Dialog": [{"Sanju": "Main nirdosh hoon."}],
				"focus_character_images": []
			}]
		}],
		"characters": [{"name": "Sanju", "id": "char_01"}]
	}`

	var script story.Script
	if err := json.Unmarshal([]byte(payload), &script); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if script.Scenes[0].SceneInfo.SceneID != "SC_01" {
		t.Fatalf("unexpected scene id: %q", script.Scenes[0].SceneInfo.SceneID)
	}
	shot := script.Shot("SC_01", "SC1_SH1")
	if shot == nil {
		t.Fatal("shot lookup failed")
	}
	if shot.FocusCharacters[0] != "Sanju" {
		t.Fatalf("unexpected focus character: %v", shot.FocusCharacters)
	}
	if shot.Dialog[0]["Sanju"] != "Main nirdosh hoon." {
		t.Fatalf("unexpected dialog: %v", shot.Dialog)
	}

	encoded, err := json.Marshal(script)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"Scene_ID"`, `"Focus_Characters"`, `"focus_character_images"`} {
		if !strings.Contains(string(encoded), key) {
			t.Fatalf("encoded script missing key %s", key)
		}
	}
}
