package regen

import "fmt"

// Kind identifies one rendered artifact family. The kind doubles as the
// filename suffix of the canonical artifact path.
type Kind string

const (
	// KindSceneImage is a rendered shot image (<scene>_<shot>_scene.png).
	KindSceneImage Kind = "scene"
	// KindShotVideo is a rendered shot clip (<scene>_<shot>_video.mp4).
	KindShotVideo Kind = "video"
	// KindDialogAudio is a synthesized dialog track (<scene>_<shot>_audio.mp3).
	KindDialogAudio Kind = "audio"
)

func (k Kind) extension() string {
	switch k {
	case KindSceneImage:
		return "png"
	case KindShotVideo:
		return "mp4"
	case KindDialogAudio:
		return "mp3"
	default:
		return "bin"
	}
}

// Key addresses one generated unit.
type Key struct {
	SceneID string
	ShotID  string
	Kind    Kind
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.SceneID, k.ShotID, k.Kind)
}

// FilePrefix returns the shared filename prefix of a key's artifact files.
// Single-file kinds append an extension; audio shots fan out into multiple
// tracks ("<prefix>_00_narration.mp3", "<prefix>_01_<speaker>.mp3", ...) so
// their on-disk presence is a prefix scan, not a single path.
func FilePrefix(sceneID, shotID string, kind Kind) string {
	return fmt.Sprintf("%s_%s_%s", sceneID, shotID, kind)
}

// FileName returns the canonical artifact filename for a key, for example
// "SC_01_SC1_SH1_scene.png".
func FileName(sceneID, shotID string, kind Kind) string {
	return fmt.Sprintf("%s.%s", FilePrefix(sceneID, shotID, kind), kind.extension())
}
