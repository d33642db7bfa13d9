// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_MongoCredentials(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv(MongoConfigDBUserNameEnv, "")
		t.Setenv(MongoConfigDBPasswordEnv, "")
		user, pass := GetMongoConfigDBCredentials()
		assert.Equal(t, DefaultMongoConfigDBUserName, user)
		assert.Equal(t, DefaultMongoConfigDBPassword, pass)
	})

	t.Run("partial_env", func(t *testing.T) {
		t.Setenv(MongoConfigDBUserNameEnv, "admin")
		t.Setenv(MongoConfigDBPasswordEnv, "")
		user, pass := GetMongoConfigDBCredentials()
		assert.Equal(t, DefaultMongoConfigDBUserName, user)
		assert.Equal(t, DefaultMongoConfigDBPassword, pass)
	})

	t.Run("from_env", func(t *testing.T) {
		t.Setenv(MongoConfigDBUserNameEnv, "admin")
		t.Setenv(MongoConfigDBPasswordEnv, "secret")
		user, pass := GetMongoConfigDBCredentials()
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
	})
}

func Test_RedisPassword(t *testing.T) {
	t.Setenv(RedisPasswordEnv, "hunter2")
	pass, ok := GetRedisPassword()
	assert.True(t, ok)
	assert.Equal(t, "hunter2", pass)
}
