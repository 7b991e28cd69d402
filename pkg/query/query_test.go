package query

import (
	"errors"
	"strings"
	"testing"
)

func TestExecutionError(t *testing.T) {
	cause := errors.New("relation does not exist")
	execErr := &ExecutionError{Query: "SELECT * FROM missing", Err: cause}

	if !errors.Is(execErr, cause) {
		t.Error("expected ExecutionError to unwrap to its cause")
	}
	if !strings.Contains(execErr.Error(), "SELECT * FROM missing") {
		t.Errorf("expected error message to carry the query text, got %q", execErr.Error())
	}
	if !strings.Contains(execErr.Error(), "relation does not exist") {
		t.Errorf("expected error message to carry the cause, got %q", execErr.Error())
	}
}
