package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ministory/internal/config"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultPollTimeout  = 10 * time.Minute
)

// VideoClient wraps an asynchronous image-to-video API: submit a job seeded
// with a still image, poll until it finishes, then download the clip.
type VideoClient struct {
	cfg        config.Video
	httpClient *http.Client

	pollInterval time.Duration
	pollTimeout  time.Duration
	sleeper      func(time.Duration)
}

// VideoOption customizes the video client beyond the shared options.
type VideoOption func(*VideoClient)

// WithPollInterval overrides how often job status is checked.
func WithPollInterval(interval time.Duration) VideoOption {
	return func(c *VideoClient) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithPollTimeout overrides how long to wait for a job before giving up.
func WithPollTimeout(timeout time.Duration) VideoOption {
	return func(c *VideoClient) {
		if timeout > 0 {
			c.pollTimeout = timeout
		}
	}
}

// WithVideoHTTPClient overrides the default HTTP client.
func WithVideoHTTPClient(client *http.Client) VideoOption {
	return func(c *VideoClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithVideoSleeper overrides how poll sleeps are performed (useful for tests).
func WithVideoSleeper(sleeper func(time.Duration)) VideoOption {
	return func(c *VideoClient) { c.sleeper = sleeper }
}

// NewVideoClient constructs a video generation client from configuration.
func NewVideoClient(cfg config.Video, opts ...VideoOption) *VideoClient {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &VideoClient{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: timeout},
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type videoSubmitRequest struct {
	Model           string `json:"model"`
	Prompt          string `json:"prompt"`
	Image           string `json:"image,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
	DurationSeconds int    `json:"duration,omitempty"`
}

type videoJobResponse struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	VideoURL string `json:"video_url"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateVideo submits an image-to-video job, waits for completion, and
// returns the clip bytes.
func (c *VideoClient) GenerateVideo(ctx context.Context, prompt string, seedImage []byte) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("video generate: prompt required")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("video generate: api key required")
	}

	taskID, err := c.submit(ctx, prompt, seedImage)
	if err != nil {
		return nil, err
	}
	videoURL, err := c.waitForJob(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return c.download(ctx, videoURL)
}

func (c *VideoClient) submit(ctx context.Context, prompt string, seedImage []byte) (string, error) {
	payload := videoSubmitRequest{
		Model:           c.cfg.Model,
		Prompt:          prompt,
		Resolution:      c.cfg.Resolution,
		DurationSeconds: c.cfg.DurationSeconds,
	}
	if len(seedImage) > 0 {
		payload.Image = base64.StdEncoding.EncodeToString(seedImage)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("video submit: encode body: %w", err)
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "generations")
	if err != nil {
		return "", fmt.Errorf("video submit: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("video submit: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := doRequest(c.httpClient, req)
	if err != nil {
		return "", fmt.Errorf("video submit: %w", err)
	}
	var job videoJobResponse
	if err := json.Unmarshal(body, &job); err != nil {
		return "", fmt.Errorf("video submit: decode response: %w", err)
	}
	if job.Error != nil {
		return "", fmt.Errorf("video submit: api error: %s", strings.TrimSpace(job.Error.Message))
	}
	if strings.TrimSpace(job.TaskID) == "" {
		return "", errors.New("video submit: missing task id")
	}
	return job.TaskID, nil
}

func (c *VideoClient) waitForJob(ctx context.Context, taskID string) (string, error) {
	deadline := time.Now().Add(c.pollTimeout)
	for {
		job, err := c.status(ctx, taskID)
		if err != nil {
			return "", err
		}
		switch strings.ToLower(strings.TrimSpace(job.Status)) {
		case "succeed", "succeeded", "completed":
			if strings.TrimSpace(job.VideoURL) == "" {
				return "", fmt.Errorf("video poll: task %s completed without video url", taskID)
			}
			return job.VideoURL, nil
		case "failed":
			detail := "unknown failure"
			if job.Error != nil && strings.TrimSpace(job.Error.Message) != "" {
				detail = strings.TrimSpace(job.Error.Message)
			}
			return "", fmt.Errorf("video poll: task %s failed: %s", taskID, detail)
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("video poll: task %s timed out after %s", taskID, c.pollTimeout)
		}
		if err := sleep(ctx, c.pollInterval, c.sleeper); err != nil {
			return "", err
		}
	}
}

func (c *VideoClient) status(ctx context.Context, taskID string) (videoJobResponse, error) {
	var job videoJobResponse
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "generations", taskID)
	if err != nil {
		return job, fmt.Errorf("video poll: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return job, fmt.Errorf("video poll: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	body, err := doRequest(c.httpClient, req)
	if err != nil {
		return job, fmt.Errorf("video poll: %w", err)
	}
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("video poll: decode response: %w", err)
	}
	return job, nil
}

func (c *VideoClient) download(ctx context.Context, videoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("video download: new request: %w", err)
	}
	body, err := doRequest(c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("video download: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("video download: empty clip")
	}
	return body, nil
}
