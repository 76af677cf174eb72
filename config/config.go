package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// EnvPrefix scopes environment overrides. Nested keys use a double
// underscore: BANDCHAT_SERVER__JWT_SECRET sets server.jwt_secret.
const EnvPrefix = "BANDCHAT_"

type Config struct {
	Server ServerConfig `koanf:"server"`
	Client ClientConfig `koanf:"client"`
	Log    LogConfig    `koanf:"log"`
}

type ServerConfig struct {
	Port             string  `koanf:"port"`
	JWTSecret        string  `koanf:"jwt_secret"`
	JWTExpiry        int     `koanf:"jwt_expiry"` // in hours
	MaxMessageLength int     `koanf:"max_message_length"`
	MaxPageSize      int     `koanf:"max_page_size"`
	MaxUploadBytes   int64   `koanf:"max_upload_bytes"`
	SendRate         float64 `koanf:"send_rate"` // messages per second per user
	SendBurst        int     `koanf:"send_burst"`
}

type ClientConfig struct {
	BaseURL string `koanf:"base_url"`
	Token   string `koanf:"token"`
	// ViewerID is compared against Message.SenderID to mark the viewer's own messages.
	ViewerID       string        `koanf:"viewer_id"`
	RoomID         int64         `koanf:"room_id"`
	PageSize       int           `koanf:"page_size"`
	Timeout        time.Duration `koanf:"timeout"`
	PollInterval   time.Duration `koanf:"poll_interval"`
	ProximityLines int           `koanf:"proximity_lines"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// legacyEnv maps the bare variables older deployments set. The prefixed
// form wins when both are present.
var legacyEnv = map[string]string{
	"PORT":               "server.port",
	"JWT_SECRET":         "server.jwt_secret",
	"JWT_EXPIRY":         "server.jwt_expiry",
	"MAX_MESSAGE_LENGTH": "server.max_message_length",
	"LOG_LEVEL":          "log.level",
}

var defaults = map[string]interface{}{
	"server.port":               "8081",
	"server.jwt_secret":         "dev-super-secret-change-me",
	"server.jwt_expiry":         24,
	"server.max_message_length": 1000,
	"server.max_page_size":      100,
	"server.max_upload_bytes":   10 << 20,
	"server.send_rate":          2.0,
	"server.send_burst":         5,

	"client.base_url":        "http://localhost:8081",
	"client.room_id":         1,
	"client.page_size":       20,
	"client.timeout":         "30s",
	"client.poll_interval":   "0s",
	"client.proximity_lines": 2,

	"log.level": "info",
}

// Load layers defaults, the optional TOML file at path and the environment
// (a .env file in the working directory is read first, if present).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", path, err)
		}
	} else {
		for _, p := range []string{"./bandchat.toml", "$HOME/.bandchat.toml"} {
			p = os.ExpandEnv(p)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", p, err)
			}
			break
		}
	}

	err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	err = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Client.PageSize <= 0 {
		return fmt.Errorf("client.page_size must be positive, got %d", c.Client.PageSize)
	}
	if c.Server.MaxPageSize > 0 && c.Client.PageSize > c.Server.MaxPageSize {
		return fmt.Errorf("client.page_size %d exceeds server.max_page_size %d", c.Client.PageSize, c.Server.MaxPageSize)
	}
	if c.Server.MaxMessageLength <= 0 {
		return fmt.Errorf("server.max_message_length must be positive")
	}
	return nil
}

// NewLogger builds a zerolog logger. With File set, output is appended to
// that file and the returned close func releases it.
func NewLogger(cfg LogConfig, fallback io.Writer) (zerolog.Logger, func() error, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out, closeFn := fallback, func() error { return nil }
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("open log file: %w", err)
		}
		out, closeFn = f, f.Close
	}
	if out == nil {
		out = io.Discard
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closeFn, nil
}
