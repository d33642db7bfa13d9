// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package store provides the persistence backends of the channel
// configurations: mongo, redis and an in-memory table.
package store

import (
	"github.com/go-core-stack/slowmode/monitor"
)

var (
	_ monitor.Store = (*Memory)(nil)
	_ monitor.Store = (*Mongo)(nil)
	_ monitor.Store = (*Redis)(nil)
)
