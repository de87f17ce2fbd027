package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ministory/internal/config"
)

// SpeechClient wraps an ElevenLabs-style text-to-speech API: a voice catalog
// endpoint plus per-voice synthesis returning MP3 bytes.
type SpeechClient struct {
	cfg        config.Speech
	httpClient *http.Client
}

// NewSpeechClient constructs a speech synthesis client from configuration.
func NewSpeechClient(cfg config.Speech, opts ...Option) *SpeechClient {
	resolved := applyOptions(cfg.TimeoutSeconds, opts)
	return &SpeechClient{cfg: cfg, httpClient: resolved.httpClient}
}

type voicesResponse struct {
	Voices []struct {
		VoiceID string `json:"voice_id"`
		Name    string `json:"name"`
		Labels  struct {
			Gender      string `json:"gender"`
			Description string `json:"description"`
		} `json:"labels"`
	} `json:"voices"`
}

// ListVoices fetches the available voice catalog.
func (c *SpeechClient) ListVoices(ctx context.Context) ([]Voice, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("speech voices: api key required")
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "voices")
	if err != nil {
		return nil, fmt.Errorf("speech voices: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("speech voices: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	body, err := doRequest(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("speech voices: %w", err)
	}
	var parsed voicesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("speech voices: decode response: %w", err)
	}
	voices := make([]Voice, 0, len(parsed.Voices))
	for _, v := range parsed.Voices {
		voices = append(voices, Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Gender:      strings.ToLower(strings.TrimSpace(v.Labels.Gender)),
			Description: v.Labels.Description,
		})
	}
	return voices, nil
}

type synthesizeRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// Synthesize renders one dialog line with the given voice and returns the
// MP3 bytes.
func (c *SpeechClient) Synthesize(ctx context.Context, voiceID, text string) ([]byte, error) {
	voiceID = strings.TrimSpace(voiceID)
	text = strings.TrimSpace(text)
	if voiceID == "" {
		return nil, errors.New("speech synthesize: voice id required")
	}
	if text == "" {
		return nil, errors.New("speech synthesize: text required")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("speech synthesize: api key required")
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "text-to-speech", voiceID)
	if err != nil {
		return nil, fmt.Errorf("speech synthesize: build url: %w", err)
	}
	encoded, err := json.Marshal(synthesizeRequest{Text: text, ModelID: c.cfg.Model})
	if err != nil {
		return nil, fmt.Errorf("speech synthesize: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("speech synthesize: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	body, err := doRequest(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesize: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("speech synthesize: empty audio")
	}
	return body, nil
}
