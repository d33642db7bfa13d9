// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package values holds the environment variables the daemon reads on
// top of its configuration file, typically credentials injected by the
// deployment.
package values

import "os"

const (
	// Environment variable name providing mongo configdb username
	MongoConfigDBUserNameEnv = "MONGO_CONFIGDB_USERNAME"

	// Default value for the mongo configdb username
	DefaultMongoConfigDBUserName = "root"

	// Environment variable name providing mongo configdb password
	MongoConfigDBPasswordEnv = "MONGO_CONFIGDB_PASSWORD"

	// Default value for the mongo configdb password
	DefaultMongoConfigDBPassword = "password"
)

// Get configured mongodb credentials, both fall back to the defaults
// unless the environment provides a non empty username and password
func GetMongoConfigDBCredentials() (string, string) {
	user := os.Getenv(MongoConfigDBUserNameEnv)
	pass := os.Getenv(MongoConfigDBPasswordEnv)
	if user == "" || pass == "" {
		return DefaultMongoConfigDBUserName, DefaultMongoConfigDBPassword
	}
	return user, pass
}
