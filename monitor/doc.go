// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package monitor adapts the slowmode of chat channels to their message
// rate. Each monitored channel keeps a bounded window of recent message
// timestamps; after every message the mean gap between them is mapped
// inversely onto a target pacing and clamped to the operator bounds of
// the channel. The Registry owns the per channel controllers, persists
// their configuration through a Store and pushes changed values to the
// Host.
package monitor
