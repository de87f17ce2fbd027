package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"log/slog"

	"ministory/internal/config"
	"ministory/internal/generate"
	"ministory/internal/logging"
	"ministory/internal/pipeline"
	"ministory/internal/session"
	"ministory/internal/stage"

	"ministory/internal/characters"
	"ministory/internal/locations"
	"ministory/internal/scenes"
	"ministory/internal/scriptplan"
	"ministory/internal/voice"
)

type commandContext struct {
	configFlag  *string
	sessionFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, sessionFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		sessionFlag: sessionFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			c.loggerErr = fmt.Errorf("initialize logging: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) sessionManager() (*session.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return session.NewManager(cfg.Paths.SessionsDir), nil
}

// resolveSession picks the session to operate on: positional argument first,
// then the --session flag, then the most recently created session.
func (c *commandContext) resolveSession(args []string) (*session.Session, error) {
	manager, err := c.sessionManager()
	if err != nil {
		return nil, err
	}

	id := ""
	if len(args) > 0 {
		id = strings.TrimSpace(args[0])
	}
	if id == "" && c.sessionFlag != nil {
		id = strings.TrimSpace(*c.sessionFlag)
	}
	if id == "" {
		infos, err := manager.List()
		if err != nil {
			return nil, err
		}
		if len(infos) == 0 {
			return nil, errors.New("no sessions exist; create one with `ministory new`")
		}
		id = infos[0].SessionID
	}
	return manager.Load(id)
}

// stageHandlers holds the constructed stage handlers so commands can flip the
// per-stage force flags before handing the registry to the runner.
type stageHandlers struct {
	script     *scriptplan.Handler
	characters *characters.Handler
	locations  *locations.Handler
	scenes     *scenes.Handler
	video      *voice.Handler
}

func (c *commandContext) newRunner() (*pipeline.Runner, *stageHandlers, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	text := generate.NewLLMClient(cfg.LLM)
	image := generate.NewImageClient(cfg.Image)
	speech := generate.NewSpeechClient(cfg.Speech)
	video := generate.NewVideoClient(cfg.Video)

	handlers := &stageHandlers{
		script:     scriptplan.NewHandler(text),
		characters: characters.NewHandler(image),
		locations:  locations.NewHandler(image),
		scenes:     scenes.NewHandler(text, image, video),
		video:      voice.NewHandler(text, speech),
	}

	registry := stage.NewRegistry()
	for name, handler := range map[string]stage.Handler{
		"script":     handlers.script,
		"characters": handlers.characters,
		"locations":  handlers.locations,
		"scenes":     handlers.scenes,
		"video":      handlers.video,
	} {
		if err := registry.Register(name, handler); err != nil {
			return nil, nil, err
		}
	}

	return pipeline.NewRunner(registry, cfg, logger), handlers, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
