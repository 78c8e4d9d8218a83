// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package utils

// Pointer returns a pointer to a copy of the given value, useful for
// optional fields of driver options and partial document updates.
//
//	wc.Journal = utils.Pointer(true)
func Pointer[T any](val T) *T {
	return &val
}

// Dereference returns the value ptr points to, or the zero value of T
// when ptr is nil.
func Dereference[T any](ptr *T) T {
	var val T
	if ptr != nil {
		val = *ptr
	}
	return val
}
