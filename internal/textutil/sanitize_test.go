package textutil

import (
	"reflect"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"passthrough", "Hindi Thriller", "Hindi Thriller"},
		{"slash", "a/b", "a-b"},
		{"colon", "EXT: street", "EXT- street"},
		{"removed", "what?", "what"},
		{"trim", "  padded  ", "padded"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeFileName(tc.in); got != tc.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hindi Thriller", "hindi_thriller"},
		{"char-01", "char-01"},
		{"", "unknown"},
		{"___", "unknown"},
		{"Crime Scene!", "crime_scene"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("  CRIME Scene  ")
	want := []string{"crime", "scene"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
	if Tokens("   ") != nil {
		t.Error("Tokens of blank input should be nil")
	}
}
