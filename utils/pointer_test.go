// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Aditya Harindar <aditya.harindar@gmail.com>

package utils

import (
	"testing"
)

func TestPointer(t *testing.T) {
	t.Run("int zero value", func(t *testing.T) {
		ptr := Pointer(0)
		if ptr == nil {
			t.Fatal("Pointer(0) returned nil")
		}
		if *ptr != 0 {
			t.Errorf("Pointer(0) = %v; want 0", *ptr)
		}
	})

	t.Run("copy is independent", func(t *testing.T) {
		val := 1.5
		ptr := Pointer(val)
		val = 3.0
		if *ptr != 1.5 {
			t.Errorf("Pointer returned alias of caller variable, got %v", *ptr)
		}
	})

	t.Run("struct", func(t *testing.T) {
		type bounds struct {
			Min int
			Max int
		}
		ptr := Pointer(bounds{Min: 0, Max: 30})
		if ptr.Min != 0 || ptr.Max != 30 {
			t.Errorf("Pointer(bounds) = %v", *ptr)
		}
	})

	t.Run("bool", func(t *testing.T) {
		if p := BoolP(false); p == nil || *p {
			t.Errorf("BoolP(false) failed")
		}
	})
}

func TestDereference(t *testing.T) {
	t.Run("int nil", func(t *testing.T) {
		var ptr *int
		if got := Dereference(ptr); got != 0 {
			t.Errorf("Dereference(nil *int) = %v; want 0", got)
		}
	})

	t.Run("float non-nil", func(t *testing.T) {
		val := 2.5
		if got := Dereference(&val); got != val {
			t.Errorf("Dereference(&2.5) = %v; want %v", got, val)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		if got := Dereference(Pointer("c-1")); got != "c-1" {
			t.Errorf("round trip failed: got %v", got)
		}
	})
}
