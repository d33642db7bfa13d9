// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package utils

import "regexp"

var identifierRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]{0,127}$`)

// IsValidIdentifier returns true if the provided string can be used as a
// channel or group identifier, safe to embed in URL paths and store keys.
// Usage:
//
//	valid := utils.IsValidIdentifier("1234567890") // returns true
//	valid := utils.IsValidIdentifier("a/b")        // returns false
func IsValidIdentifier(id string) bool {
	return identifierRegex.MatchString(id)
}
