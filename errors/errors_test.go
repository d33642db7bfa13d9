// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package errors

import (
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

	err = Wrap(AlreadyMonitoring, "channel already monitored")
	if !IsAlreadyMonitoring(err) {
		t.Errorf("expected error type AlreadyMonitoring")
	}

	err = Wrapf(NotMonitoring, "channel %s not monitored", "c-1")
	if !IsNotMonitoring(err) {
		t.Errorf("expected error type NotMonitoring")
	}
	if err.Error() != "channel c-1 not monitored" {
		t.Errorf("unexpected message %q", err.Error())
	}

	err = Wrap(Throttled, "out of edit budget")
	if !IsThrottled(err) || Throttled.String() != "Throttled" {
		t.Errorf("expected error type Throttled, got %v", GetErrCode(err))
	}
}

func Test_ErrorCause(t *testing.T) {
	cause := Wrap(NotFound, "no document")
	err := WithCause(PersistenceFailure, cause, "failed to load config")

	if !IsPersistenceFailure(err) {
		t.Errorf("expected outer code PersistenceFailure, got %v", GetErrCode(err))
	}
	if !Is(err, cause) {
		t.Errorf("expected cause to be reachable through the chain")
	}
	if err.Error() != "failed to load config: no document" {
		t.Errorf("unexpected message %q", err.Error())
	}

	wrapped := fmt.Errorf("handler: %w", Wrap(InvalidArgument, "bad bounds"))
	if !IsInvalidArgument(wrapped) {
		t.Errorf("expected code to be found through fmt wrapping")
	}
}

func Test_ErrCodeString(t *testing.T) {
	if AlreadyMonitoring.String() != "AlreadyMonitoring" {
		t.Errorf("unexpected string %q", AlreadyMonitoring.String())
	}
	if ErrCode(42).String() != "Unknown" {
		t.Errorf("unexpected string %q", ErrCode(42).String())
	}
}
