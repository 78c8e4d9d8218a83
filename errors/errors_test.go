// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package errors

import (
	"context"
	"fmt"
	"testing"
)

func Test_ErrorValidations(t *testing.T) {
	err := fmt.Errorf("%s", "test error from fmt")
	if GetErrCode(err) != Unknown {
		t.Errorf("expected error type unknown, got %v", GetErrCode(err))
	}

	err = New("test error from errors pkg")
	if GetErrCode(err) != Unknown {
		t.Errorf("expected error type unknown, got %v", GetErrCode(err))
	}

	err = Wrap(AlreadyExists, "test wrap error from errors pkg")
	if !IsAlreadyExists(err) {
		t.Errorf("expected error type Already exists")
	}

	err = Wrapf(NotFound, "%s", "test wrapf error from errors pkg")
	if !IsNotFound(err) {
		t.Errorf("expected error type Not Found")
	}
	if err.Error() != "test wrapf error from errors pkg" {
		t.Errorf("unexpected message %q", err.Error())
	}

	err = Wrapf(InvalidArgument, "max requests %d", 0)
	if !IsInvalidArgument(err) || IsNotFound(err) {
		t.Errorf("expected only Invalid Argument, got %v", GetErrCode(err))
	}
}

func Test_ErrorCodeThroughWrapping(t *testing.T) {
	base := Wrap(NotFound, "key not found")
	err := fmt.Errorf("remove failed: %w", base)
	if !IsNotFound(err) {
		t.Errorf("expected Not Found code to survive fmt wrapping")
	}
	if !Is(err, base) {
		t.Errorf("expected Is to match the wrapped error")
	}

	var target *Error
	if !As(err, &target) || target.Code() != NotFound {
		t.Errorf("expected As to extract the coded error")
	}

	if IsNotFound(context.Canceled) {
		t.Errorf("context error must not carry a code")
	}
}

func Test_ErrCodeString(t *testing.T) {
	tests := map[ErrCode]string{
		Unknown:         "Unknown",
		NotFound:        "NotFound",
		AlreadyExists:   "AlreadyExists",
		InvalidArgument: "InvalidArgument",
		ErrCode(42):     "Unknown",
	}
	for code, want := range tests {
		if got := code.String(); got != want {
			t.Errorf("ErrCode(%d).String() = %q, want %q", int(code), got, want)
		}
	}
}
