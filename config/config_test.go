// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-core-stack/slowmode/errors"
	"github.com/go-core-stack/slowmode/values"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.ResyncInterval)
	assert.False(t, cfg.Throttle.Enabled())
	assert.Equal(t, ":8080", cfg.HTTP.Listen)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(values.MongoConfigDBUserNameEnv, "svc")
	t.Setenv(values.MongoConfigDBPasswordEnv, "secret")
	t.Setenv(values.RedisPasswordEnv, "redis-secret")

	path := filepath.Join(t.TempDir(), "slowmoded.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
store:
  backend: mongo
  mongo:
    uri: mongodb://db:27017
    transactions: true
monitor:
  resyncInterval: 30s
throttle:
  globalRate: 5
  channelRate: 0.5
  burst: 2
http:
  listen: 127.0.0.1:9000
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, BackendMongo, cfg.Store.Backend)
	assert.Equal(t, "mongodb://db:27017", cfg.Store.Mongo.Uri)
	assert.True(t, cfg.Store.Mongo.Transactions)
	assert.Equal(t, "slowmode", cfg.Store.Mongo.Database)
	assert.Equal(t, "svc", cfg.Store.Mongo.Username)
	assert.Equal(t, "secret", cfg.Store.Mongo.Password)
	assert.Equal(t, "redis-secret", cfg.Store.Redis.Password)
	assert.Equal(t, 30*time.Second, cfg.Monitor.ResyncInterval)
	assert.True(t, cfg.Throttle.Enabled())
	assert.Equal(t, 2, cfg.Throttle.Burst)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Listen)
}

func TestInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown_field":   "store:\n  engine: mongo\n",
		"unknown_backend": "store:\n  backend: sqlite\n",
		"log_level":       "log:\n  level: loud\n",
		"uri_and_host":    "store:\n  backend: mongo\n  mongo:\n    uri: mongodb://x\n    host: y\n",
		"resync":          "monitor:\n  resyncInterval: 0s\n",
		"burst":           "throttle:\n  channelRate: 1\n  burst: 0\n",
		"negative_rate":   "throttle:\n  globalRate: -1\n",
		"malformed":       "log: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.True(t, errors.IsInvalidArgument(err), "got %v", err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsInvalidArgument(err))
}
