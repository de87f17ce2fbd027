package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Connection validation stops at
// shape checks; API keys are only required by the stages that use them, so a
// missing key here is not an error.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateAssetCache(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SessionsDir) == "" {
		return errors.New("paths.sessions_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		return errors.New("paths.ledger_path must be set")
	}
	return nil
}

func (c *Config) validateEndpoints() error {
	for name, url := range map[string]string{
		"llm.base_url":    c.LLM.BaseURL,
		"image.base_url":  c.Image.BaseURL,
		"speech.base_url": c.Speech.BaseURL,
		"video.base_url":  c.Video.BaseURL,
	} {
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, url)
		}
	}
	if err := ensurePositiveMap(map[string]int{
		"llm.timeout_seconds":    c.LLM.TimeoutSeconds,
		"image.timeout_seconds":  c.Image.TimeoutSeconds,
		"speech.timeout_seconds": c.Speech.TimeoutSeconds,
		"video.timeout_seconds":  c.Video.TimeoutSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePipeline() error {
	return ensurePositiveMap(map[string]int{
		"pipeline.max_scenes":   c.Pipeline.MaxScenes,
		"pipeline.max_attempts": c.Pipeline.MaxAttempts,
	})
}

func (c *Config) validateAssetCache() error {
	if !c.AssetCache.Enabled {
		return nil
	}
	if c.AssetCache.MaxGiB <= 0 {
		return errors.New("asset_cache.max_gib must be positive when asset_cache.enabled is true")
	}
	if c.AssetCache.KeepPerKind <= 0 {
		return errors.New("asset_cache.keep_per_kind must be positive when asset_cache.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
