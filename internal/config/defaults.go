package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultSessionsDir          = "~/.local/share/ministory/sessions"
	defaultLogDir               = "~/.local/share/ministory/logs"
	defaultLedgerPath           = "~/.local/share/ministory/ledger.db"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "google/gemini-3-flash-preview"
	defaultLLMReferer           = "https://github.com/ministory/ministory"
	defaultLLMTitle             = "Ministory Planner"
	defaultLLMTimeoutSeconds    = 120
	defaultImageBaseURL         = "https://api.studio.nebius.ai/v1/images/generations"
	defaultImageModel           = "black-forest-labs/flux-dev"
	defaultImageAspectRatio     = "16:9"
	defaultImageTimeoutSeconds  = 180
	defaultSpeechBaseURL        = "https://api.elevenlabs.io/v1"
	defaultSpeechModel          = "eleven_multilingual_v2"
	defaultSpeechTimeoutSeconds = 120
	defaultVideoBaseURL         = "https://api.klingai.com/v1/videos"
	defaultVideoModel           = "kling-v1-6"
	defaultVideoResolution      = "1280x720"
	defaultVideoDuration        = 5
	defaultVideoTimeoutSeconds  = 600
	defaultPipelineMaxScenes    = 12
	defaultPipelineMaxAttempts  = 2
	defaultCacheMaxGiB          = 20
	defaultCacheMinFreeGiB      = 5
	defaultCacheKeepPerKind     = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SessionsDir: defaultSessionsDir,
			LogDir:      defaultLogDir,
			LedgerPath:  defaultLedgerPath,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Image: Image{
			BaseURL:        defaultImageBaseURL,
			Model:          defaultImageModel,
			AspectRatio:    defaultImageAspectRatio,
			TimeoutSeconds: defaultImageTimeoutSeconds,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			Model:          defaultSpeechModel,
			TimeoutSeconds: defaultSpeechTimeoutSeconds,
		},
		Video: Video{
			BaseURL:         defaultVideoBaseURL,
			Model:           defaultVideoModel,
			Resolution:      defaultVideoResolution,
			DurationSeconds: defaultVideoDuration,
			TimeoutSeconds:  defaultVideoTimeoutSeconds,
		},
		Pipeline: Pipeline{
			MaxScenes:   defaultPipelineMaxScenes,
			MaxAttempts: defaultPipelineMaxAttempts,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		AssetCache: AssetCache{
			Enabled:     true,
			MaxGiB:      defaultCacheMaxGiB,
			MinFreeGiB:  defaultCacheMinFreeGiB,
			KeepPerKind: defaultCacheKeepPerKind,
		},
	}
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "ministory")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/share/ministory"
	}
	return filepath.Join(home, ".local", "share", "ministory")
}
