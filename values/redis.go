// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package values

import "os"

const (
	// Environment variable name providing the redis password
	RedisPasswordEnv = "SLOWMODE_REDIS_PASSWORD"
)

// Get configured redis password, second value reports whether the
// environment provided one
func GetRedisPassword() (string, bool) {
	return os.LookupEnv(RedisPasswordEnv)
}
