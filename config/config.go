// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package config loads the daemon configuration from a YAML file, with
// credentials taken from the environment.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-core-stack/slowmode/errors"
	"github.com/go-core-stack/slowmode/monitor"
	"github.com/go-core-stack/slowmode/store"
	"github.com/go-core-stack/slowmode/values"
)

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Mongo struct {
	Uri          string `yaml:"uri"`
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	Database     string `yaml:"database"`
	Transactions bool   `yaml:"transactions"`
	Tracing      bool   `yaml:"tracing"`

	// from the environment only
	Username string `yaml:"-"`
	Password string `yaml:"-"`
}

type Redis struct {
	Addr      string `yaml:"addr"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`

	// from the environment only
	Password string `yaml:"-"`
}

type Store struct {
	Backend string `yaml:"backend"`
	Mongo   Mongo  `yaml:"mongo"`
	Redis   Redis  `yaml:"redis"`
}

type Monitor struct {
	ResyncInterval time.Duration `yaml:"resyncInterval"`
}

// Throttle bounds slowmode edits, a zero ChannelRate disables it
type Throttle struct {
	// edits per second shared by all channels, 0 for no shared cap
	GlobalRate float64 `yaml:"globalRate"`

	// edits per second per channel
	ChannelRate float64 `yaml:"channelRate"`

	Burst int `yaml:"burst"`
}

// Enabled reports whether edits are throttled
func (t Throttle) Enabled() bool {
	return t.ChannelRate > 0
}

type HTTP struct {
	Listen string `yaml:"listen"`
}

type Config struct {
	Log      Log      `yaml:"log"`
	Store    Store    `yaml:"store"`
	Monitor  Monitor  `yaml:"monitor"`
	Throttle Throttle `yaml:"throttle"`
	HTTP     HTTP     `yaml:"http"`
}

// Default returns the configuration used for anything the file leaves
// out
func Default() *Config {
	return &Config{
		Log: Log{
			Level: "info",
		},
		Store: Store{
			Backend: BackendMemory,
			Mongo: Mongo{
				Database: store.DefaultMongoDatabase,
			},
			Redis: Redis{
				Addr:      "localhost:6379",
				KeyPrefix: store.DefaultRedisPrefix,
			},
		},
		Monitor: Monitor{
			ResyncInterval: monitor.DefaultResyncInterval,
		},
		Throttle: Throttle{
			Burst: 1,
		},
		HTTP: HTTP{
			Listen: ":8080",
		},
	}
}

// Parse decodes YAML over the defaults, unknown fields are rejected
func Parse(buf []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.WithCause(errors.InvalidArgument, err, "error parsing config file")
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// Load reads the configuration file, an empty filename yields the
// defaults
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Parse(nil)
	}
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.WithCause(errors.InvalidArgument, err, "error reading config file")
	}
	return Parse(buf)
}

func (c *Config) applyEnv() {
	c.Store.Mongo.Username, c.Store.Mongo.Password = values.GetMongoConfigDBCredentials()
	if pass, ok := values.GetRedisPassword(); ok {
		c.Store.Redis.Password = pass
	}
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(errors.InvalidArgument, "invalid log level %q", c.Log.Level)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendMongo:
		if c.Store.Mongo.Uri != "" && (c.Store.Mongo.Host != "" || c.Store.Mongo.Port != "") {
			return errors.Wrap(errors.InvalidArgument, "store.mongo: cannot provide host and port if uri is configured")
		}
		if c.Store.Mongo.Database == "" {
			return errors.Wrap(errors.InvalidArgument, "store.mongo.database is required")
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return errors.Wrap(errors.InvalidArgument, "store.redis.addr is required")
		}
	default:
		return errors.Wrapf(errors.InvalidArgument, "unknown store backend %q", c.Store.Backend)
	}

	if c.Monitor.ResyncInterval <= 0 {
		return errors.Wrap(errors.InvalidArgument, "monitor.resyncInterval must be positive")
	}

	if c.Throttle.GlobalRate < 0 || c.Throttle.ChannelRate < 0 {
		return errors.Wrap(errors.InvalidArgument, "throttle rates must not be negative")
	}
	if c.Throttle.Enabled() && c.Throttle.Burst < 1 {
		return errors.Wrap(errors.InvalidArgument, "throttle.burst must be at least 1")
	}

	if c.HTTP.Listen == "" {
		return errors.Wrap(errors.InvalidArgument, "http.listen is required")
	}
	return nil
}
