// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package utils

// Pointer returns a pointer to a copy of the given value. Used for
// building optional fields where the zero value is a legitimate
// explicit value.
// Usage:
//
//	patch.WindowCapacity = utils.Pointer(20)
//	patch.Bounds = utils.Pointer(monitor.Bounds{Min: 0, Max: 60})
func Pointer[T any](val T) *T {
	return &val
}

// Dereference returns the value pointed by ptr, or the zero value of T
// if the pointer is nil.
// Usage:
//
//	val := utils.Dereference(ptr)
func Dereference[T any](ptr *T) T {
	var val T
	if ptr != nil {
		val = *ptr
	}
	return val
}

// BoolP returns a pointer to the given bool value.
func BoolP(val bool) *bool {
	return Pointer(val)
}
