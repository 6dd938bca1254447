package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	e := NewError(ErrNodeTimeout, "node did not respond")
	if e.Error() != "[NODE_TIMEOUT] node did not respond" {
		t.Errorf("unexpected format: %s", e.Error())
	}

	cause := errors.New("dial tcp: i/o timeout")
	e = e.WithCause(cause)
	if e.Error() != "[NODE_TIMEOUT] node did not respond: dial tcp: i/o timeout" {
		t.Errorf("unexpected format with cause: %s", e.Error())
	}
	if !errors.Is(e, cause) {
		t.Error("expected errors.Is to unwrap to cause")
	}
}

func TestErrorBuilders(t *testing.T) {
	e := NewError(ErrEncryptionFailed, "cannot derive key").WithNode("medical-1").WithRetryable(false)
	if e.NodeID != "medical-1" {
		t.Errorf("expected node id to be set, got %q", e.NodeID)
	}
	if e.Retryable {
		t.Error("expected non-retryable")
	}
}

func TestIsCode(t *testing.T) {
	e := NewError(ErrNoNodesAvailable, "all nodes failed")
	wrapped := fmt.Errorf("search: %w", e)

	if !IsCode(wrapped, ErrNoNodesAvailable) {
		t.Error("expected IsCode to match through wrapping")
	}
	if IsCode(wrapped, ErrNodeTimeout) {
		t.Error("expected IsCode to reject other codes")
	}
	if IsCode(nil, ErrNodeTimeout) {
		t.Error("nil error should never match")
	}
	if IsCode(errors.New("plain"), ErrNodeTimeout) {
		t.Error("plain error should never match")
	}
}
