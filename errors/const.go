// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package errors

// ErrCode is type for multiple reconizable errors.
type ErrCode int

// error codes
const (
	// if error is unknown
	Unknown ErrCode = 0

	// if the item not found in the space, e.g. removing an identity
	// that is not a member of the pool
	NotFound ErrCode = 1

	// if the item already present in the space, e.g. adding a key whose
	// identity is already a member of the pool
	AlreadyExists ErrCode = 2

	// if the argument is not valid, e.g. a rate limit policy with a
	// non-positive request count or window
	InvalidArgument ErrCode = 3
)

func (c ErrCode) String() string {
	switch c {
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case InvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}
