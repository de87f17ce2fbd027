package locations

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ministory/internal/artifacts"
	"ministory/internal/fileutil"
	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/stage"
	"ministory/internal/story"
)

func testContext(t *testing.T, locations []story.Location) *stage.Context {
	t.Helper()
	store := artifacts.NewStore(t.TempDir())
	script := story.Script{Locations: locations}
	if err := store.Save(artifacts.KindFormattedScript, &script); err != nil {
		t.Fatalf("save script: %v", err)
	}
	return &stage.Context{Store: store, Logger: logging.NewNop()}
}

func TestExecuteRendersLocationsAndRetainsPrompt(t *testing.T) {
	sc := testContext(t, []story.Location{{
		LocationID:   "LOC_01",
		Name:         "COLLEGE GROUND",
		LocationType: "EXT. COLLEGE GROUND",
		Environment:  "open ground near the main building",
		Lighting:     "floodlights",
		Mood:         "tense",
	}})
	fake := &generate.FakeImage{Bytes: []byte("png")}
	handler := NewHandler(fake)

	if err := handler.Prepare(context.Background(), sc); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), sc); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var doc artifacts.LocationsDoc
	if err := sc.Store.Load(artifacts.KindLocations, &doc); err != nil {
		t.Fatalf("load locations: %v", err)
	}
	loc := doc.Locations[0]
	if loc.Name != "College Ground" {
		t.Fatalf("name not title-cased: %q", loc.Name)
	}
	if loc.ImagePath == "" || !fileutil.FileExists(loc.ImagePath) {
		t.Fatalf("image not written: %q", loc.ImagePath)
	}
	if !strings.Contains(loc.LocationImagePrompt, "College Ground") {
		t.Fatalf("prompt not retained: %q", loc.LocationImagePrompt)
	}
	if len(fake.Prompts) != 1 {
		t.Fatalf("prompts = %d", len(fake.Prompts))
	}
}

func TestExecuteKeepsGoingOnPerLocationFailure(t *testing.T) {
	sc := testContext(t, []story.Location{
		{LocationID: "LOC_01", Name: "Crime Scene"},
		{LocationID: "LOC_02", Name: "Police Station"},
	})
	fake := &generate.FakeImage{Err: errors.New("filter rejection")}
	handler := NewHandler(fake)

	if err := handler.Prepare(context.Background(), sc); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), sc); err != nil {
		t.Fatalf("Execute should not abort on per-location failures: %v", err)
	}
	var doc artifacts.LocationsDoc
	if err := sc.Store.Load(artifacts.KindLocations, &doc); err != nil {
		t.Fatalf("load locations: %v", err)
	}
	for _, loc := range doc.Locations {
		if loc.ImagePath != "" {
			t.Fatalf("failed location has image path: %+v", loc)
		}
		if loc.LocationImagePrompt == "" {
			t.Fatal("prompt should be retained even when generation fails")
		}
	}
	if len(fake.Prompts) != 2 {
		t.Fatalf("prompts = %d, want both locations attempted", len(fake.Prompts))
	}
}

func TestPrepareRequiresLocations(t *testing.T) {
	sc := testContext(t, nil)
	handler := NewHandler(&generate.FakeImage{})
	if err := handler.Prepare(context.Background(), sc); err == nil {
		t.Fatal("expected error for empty location registry")
	}
}

func TestImagePromptFiltersUnsafeVocabulary(t *testing.T) {
	prompt := ImagePrompt(story.Location{
		Name:        "Crime Scene",
		Environment: "crime scene with a body covered under a sheet, police tape",
	})
	lower := strings.ToLower(prompt)
	for _, banned := range []string{"crime scene with", "body covered", "police tape"} {
		if strings.Contains(lower, banned) {
			t.Fatalf("unsafe phrase %q kept in prompt", banned)
		}
	}
	if !strings.Contains(prompt, "NO PEOPLE") {
		t.Fatal("prompt missing no-people requirement")
	}
}

func TestProductionContextSelection(t *testing.T) {
	tests := []struct {
		name     string
		subject  story.Location
		fragment string
	}{
		{"college", story.Location{Name: "College Campus"}, "college/university"},
		{"police", story.Location{Name: "Police Station"}, "government building"},
		{"sports", story.Location{Name: "Cricket Ground"}, "sports ground"},
		{"interior", story.Location{Name: "Hostel Room"}, "interior"},
		{"street", story.Location{LocationType: "EXT.", Name: "Market"}, "outdoor/street"},
		{"generic", story.Location{Name: "Riverbank"}, "Modern Indian location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := productionContext(tt.subject.LocationType, tt.subject.Name, tt.subject.Environment)
			if !strings.Contains(got, tt.fragment) {
				t.Fatalf("context %q missing %q", got, tt.fragment)
			}
		})
	}
}
