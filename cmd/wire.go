package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/colony-cli/internal/adapters/engine/httpengine"
	"github.com/bnema/colony-cli/internal/adapters/render/board"
	tomlrepo "github.com/bnema/colony-cli/internal/adapters/repo/toml"
	"github.com/bnema/colony-cli/internal/application"
	"github.com/bnema/colony-cli/internal/ports"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	engineURLKey     = "engine.url"
	engineTimeoutKey = "engine.timeout"
	pollIntervalKey  = "poll.interval"
	logLevelKey      = "log.level"
	logFileKey       = "log.file"

	configDirName = ".colony"
	envPrefix     = "COLONY"
)

type app struct {
	config   *viper.Viper
	logger   zerolog.Logger
	logFile  io.Closer
	engine   httpengine.Client
	presets  *application.PresetService
	renderer func([]application.SessionSnapshot, board.RenderOptions) (string, error)
	clock    ports.Clock
	now      func() time.Time
}

func wireApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := tomlrepo.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire preset repository: %w", err)
	}

	return &app{
		config:  cfg,
		logger:  logger,
		logFile: logFile,
		engine: httpengine.Client{
			BaseURL:        cfg.GetString(engineURLKey),
			HTTPClient:     http.DefaultClient,
			RequestTimeout: cfg.GetDuration(engineTimeoutKey),
		},
		presets:  application.NewPresetService(repo, ports.SystemClock{}),
		renderer: board.Render,
		clock:    ports.SystemClock{},
		now:      time.Now,
	}, nil
}

// loadConfig reads ~/.colony/config.toml when present. COLONY_* variables,
// including ones from a local .env file, override it.
func loadConfig() (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := viper.New()
	cfg.SetDefault(engineURLKey, "http://127.0.0.1:3001")
	cfg.SetDefault(engineTimeoutKey, 10*time.Second)
	cfg.SetDefault(pollIntervalKey, application.DefaultPollInterval)
	cfg.SetDefault(logLevelKey, zerolog.InfoLevel.String())

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	_ = cfg.BindEnv(tomlrepo.PresetsPathKey)
	_ = cfg.BindEnv(logFileKey)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.SetConfigName("config")
	cfg.SetConfigType("toml")
	cfg.AddConfigPath(filepath.Join(homeDir, configDirName))

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return cfg, nil
}

// newLogger writes console-formatted logs to log.file, or stderr when unset.
func newLogger(cfg *viper.Viper) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.GetString(logLevelKey))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("parse %s: %w", logLevelKey, err)
	}

	var out io.Writer = os.Stderr
	var closer io.Closer
	if path := cfg.GetString(logFileKey); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

// sessionLogger is the logger handed to session managers. The live board
// owns the terminal, so it only gets logs when they go to a file.
func (a *app) sessionLogger(interactive bool) zerolog.Logger {
	if interactive && a.logFile == nil {
		return zerolog.Nop()
	}
	return a.logger
}

func (a *app) pollInterval() time.Duration {
	return application.ClampPollInterval(a.config.GetDuration(pollIntervalKey))
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
