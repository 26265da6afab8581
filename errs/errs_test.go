package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeConflict, "Quiz code already exists")
	if CodeOf(err) != CodeConflict {
		t.Fatalf("expected conflict, got %s", CodeOf(err))
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if CodeOf(wrapped) != CodeConflict {
		t.Fatalf("expected conflict through wrapping, got %s", CodeOf(wrapped))
	}

	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Fatal("plain errors should map to internal")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, CodeInternal, "Failed to create quiz")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if MessageOf(err, "") != "Failed to create quiz" {
		t.Fatalf("unexpected message %q", MessageOf(err, ""))
	}
}

func TestIsCode(t *testing.T) {
	if !IsCode(New(CodeNotFound, "User not found"), CodeNotFound) {
		t.Fatal("expected IsCode to match")
	}
	if IsCode(New(CodeNotFound, "User not found"), CodeConflict) {
		t.Fatal("expected IsCode to reject other codes")
	}
	if IsCode(errors.New("plain"), CodeInternal) {
		t.Fatal("plain errors carry no code")
	}
}
