package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Conflict("already submitted")
	wrapped := fmt.Errorf("intake: %w", base)

	if !Is(wrapped, KindConflict) {
		t.Fatalf("expected conflict kind through wrapping, got %v", GetKind(wrapped))
	}
	extracted, ok := As(wrapped)
	if !ok || extracted.HTTPStatus() != http.StatusConflict {
		t.Fatalf("expected 409 from wrapped error, got %+v", extracted)
	}
}

func TestWrapKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, "could not create request", cause)

	if err.Message != "could not create request" {
		t.Fatalf("unexpected client message %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause reachable through Unwrap")
	}
	if err.HTTPStatus() != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", err.HTTPStatus())
	}
}

func TestGetKindOnPlainError(t *testing.T) {
	if GetKind(errors.New("boom")) != KindUnknown {
		t.Fatal("expected unknown kind for plain error")
	}
}
