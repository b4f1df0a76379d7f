package application

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want string
	}{
		"nil":        {err: nil, want: ""},
		"forbidden":  {err: ErrForbidden, want: "forbidden"},
		"not found":  {err: ErrNotFound, want: "not_found"},
		"conflict":   {err: fmt.Errorf("%w: session is full", ErrConflict), want: "conflict"},
		"expired":    {err: ErrExpired, want: "expired"},
		"validation": {err: &ValidationError{FieldErrors: map[string]string{"field": "bad"}}, want: "validation"},
		"unexpected": {err: errors.New("boom"), want: "unexpected"},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorKind(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
