// Package outfits tracks character outfit continuity across scenes and shots.
// Each character carries a state machine seeded from a role-based template;
// explicit outfits supplied upstream are authoritative and push the prior
// outfit into an append-only history, while everything else inherits the
// current tracked outfit.
package outfits
