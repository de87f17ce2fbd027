// Package story defines the typed data model shared by every pipeline stage:
// characters, locations, scenes, shots, outfits, and the script trees that
// bundle them. JSON tags preserve the key casing the planning stage emits
// (Scene_ID, Focus_Characters, ...) so artifacts stay readable by the tools
// that produced them.
package story
