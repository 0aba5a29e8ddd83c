package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment-driven settings for the bot process.
type Config struct {
	// Token is the Telegram bot credential. The process refuses to start
	// without it.
	Token string `envconfig:"MOVIEBOT_TOKEN" required:"true"`

	// AdminID is the only Telegram user allowed to archive files.
	AdminID int64 `envconfig:"MOVIEBOT_ADMIN_ID" required:"true"`

	// DBPath is the BoltDB file holding the archive.
	DBPath string `envconfig:"MOVIEBOT_DB_PATH" default:"movies.db"`

	// SearchLimit caps how many results a single query may return.
	SearchLimit int `envconfig:"MOVIEBOT_SEARCH_LIMIT" default:"10"`

	// DirectReplies sends matching files immediately instead of rendering
	// an inline selection list.
	DirectReplies bool `envconfig:"MOVIEBOT_DIRECT_REPLIES" default:"false"`

	// TagMediaKind records the real attachment kind (document/video/audio).
	// Off by default: historical records all carry "video" and mixed
	// values would complicate any external consumer of the data.
	TagMediaKind bool `envconfig:"MOVIEBOT_TAG_MEDIA_KIND" default:"false"`

	// HealthPort is where the liveness endpoint listens. A plain PORT env
	// var (set by PaaS platforms such as Render) takes precedence.
	HealthPort int `envconfig:"MOVIEBOT_HEALTH_PORT" default:"8080"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Token == "" {
		return nil, errors.New("MOVIEBOT_TOKEN is required")
	}
	if p := os.Getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", p, err)
		}
		cfg.HealthPort = port
	}
	if cfg.SearchLimit <= 0 {
		return nil, fmt.Errorf("MOVIEBOT_SEARCH_LIMIT must be positive, got %d", cfg.SearchLimit)
	}
	return &cfg, nil
}
