// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package db

import (
	"sync"
)

// application name reported by every mongo client of this process,
// frozen once the first client is built
var source struct {
	sync.Mutex
	name   string
	frozen bool
}

// SetSourceIdentifier sets the application name reported to the
// database server, typically the process name with its instance id.
// Returns false once a client has already been created with the
// previous value.
func SetSourceIdentifier(identifier string) bool {
	source.Lock()
	defer source.Unlock()
	if source.frozen {
		return false
	}
	source.name = identifier
	return true
}

// for internal use only, freezes the identifier
func getSourceIdentifier() string {
	source.Lock()
	defer source.Unlock()
	source.frozen = true
	if source.name != "" {
		return source.name
	}
	return defaultSourceIdentifier
}
