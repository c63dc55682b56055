package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrConnection, "tracking", "probe", "dial tcp", errors.New("refused"))
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection tag, got %v", err)
	}
	if errors.Is(err, ErrSchemaMissing) {
		t.Fatalf("unexpected ErrSchemaMissing tag: %v", err)
	}
	for _, want := range []string{"tracking", "probe", "dial tcp", "refused"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestWrapNilMarkerDefaultsToConnection(t *testing.T) {
	err := Wrap(nil, "tracking", "probe", "", nil)
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection fallback, got %v", err)
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := Wrap(ErrValidation, "", "", "", nil)
	if !strings.Contains(err.Error(), "check failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrConnection, "tracking", "probe", "", nil), true},
		{Wrap(ErrSchemaMissing, "tracking", "probe", "", nil), false},
		{Wrap(ErrNotFound, "inventory", "scan", "", nil), false},
		{Wrap(ErrTimeout, "tracking", "probe", "", nil), false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
