package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ministory/internal/config"
)

// ImageClient wraps an images/generations endpoint that returns base64 PNG
// data. Reference images are passed base64-encoded so the model can keep
// faces and sets consistent across shots.
type ImageClient struct {
	cfg        config.Image
	httpClient *http.Client
}

// NewImageClient constructs an image generation client from configuration.
func NewImageClient(cfg config.Image, opts ...Option) *ImageClient {
	resolved := applyOptions(cfg.TimeoutSeconds, opts)
	return &ImageClient{
		cfg:        cfg,
		httpClient: resolved.httpClient,
	}
}

type imageRequest struct {
	Model           string   `json:"model"`
	Prompt          string   `json:"prompt"`
	AspectRatio     string   `json:"aspect_ratio,omitempty"`
	ReferenceImages []string `json:"reference_images,omitempty"`
	ResponseFormat  string   `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateImage renders the prompt and returns the decoded image bytes.
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string, referenceImages [][]byte) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("image generate: prompt required")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("image generate: api key required")
	}

	payload := imageRequest{
		Model:          c.cfg.Model,
		Prompt:         prompt,
		AspectRatio:    c.cfg.AspectRatio,
		ResponseFormat: "b64_json",
	}
	for _, ref := range referenceImages {
		if len(ref) == 0 {
			continue
		}
		payload.ReferenceImages = append(payload.ReferenceImages, base64.StdEncoding.EncodeToString(ref))
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("image generate: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("image generate: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := doRequest(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("image generate: %w", err)
	}
	var parsed imageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("image generate: decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("image generate: api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	if len(parsed.Data) == 0 || strings.TrimSpace(parsed.Data[0].B64JSON) == "" {
		return nil, errors.New("image generate: empty image data")
	}
	decoded, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("image generate: decode image: %w", err)
	}
	return decoded, nil
}
