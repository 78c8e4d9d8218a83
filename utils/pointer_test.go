// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Aditya Harindar <aditya.harindar@gmail.com>

package utils

import (
	"testing"
	"time"
)

func TestPointer(t *testing.T) {
	t.Run("bool", func(t *testing.T) {
		ptr := Pointer(false)
		if ptr == nil || *ptr != false {
			t.Fatalf("Pointer(false) = %v", ptr)
		}
	})

	t.Run("duration", func(t *testing.T) {
		ptr := Pointer(time.Minute)
		if ptr == nil || *ptr != time.Minute {
			t.Fatalf("Pointer(time.Minute) = %v", ptr)
		}
	})

	t.Run("copy", func(t *testing.T) {
		val := 42
		ptr := Pointer(val)
		val = 7
		if *ptr != 42 {
			t.Errorf("Pointer must point to a copy, got %d", *ptr)
		}
	})
}

func TestDereference(t *testing.T) {
	tests := []struct {
		name string
		ptr  *string
		want string
	}{
		{name: "nil", ptr: nil, want: ""},
		{name: "empty", ptr: Pointer(""), want: ""},
		{name: "value", ptr: Pointer("key-1"), want: "key-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dereference(tt.ptr); got != tt.want {
				t.Errorf("Dereference() = %q; want %q", got, tt.want)
			}
		})
	}

	var disabled *bool
	if Dereference(disabled) {
		t.Errorf("Dereference(nil *bool) = true; want false")
	}
}
