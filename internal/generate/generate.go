// Package generate holds the clients for the external generation services:
// chat-completion text, image, speech, and video. Stages depend on the
// interfaces here so tests can substitute fakes.
package generate

import "context"

// TextGenerator produces structured JSON from prompt pairs.
type TextGenerator interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	HealthCheck(ctx context.Context) error
}

// ImageGenerator renders a still image and returns the encoded bytes.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, referenceImages [][]byte) ([]byte, error)
}

// Voice describes one synthesizable voice offered by the speech service.
type Voice struct {
	ID          string `json:"voice_id"`
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	Description string `json:"description"`
}

// SpeechGenerator lists voices and synthesizes dialog audio.
type SpeechGenerator interface {
	ListVoices(ctx context.Context) ([]Voice, error)
	Synthesize(ctx context.Context, voiceID, text string) ([]byte, error)
}

// VideoGenerator animates a seed image into a short clip.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt string, seedImage []byte) ([]byte, error)
}
