package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinels_MatchThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"config", ErrInvalidConfig},
		{"aborted", ErrAborted},
		{"not found", ErrorNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tc.err)
			if !errors.Is(wrapped, tc.err) {
				t.Fatalf("expected %v to match %v", wrapped, tc.err)
			}
		})
	}
}

func TestSentinels_AreDistinct(t *testing.T) {
	if errors.Is(ErrInvalidConfig, ErrAborted) {
		t.Fatalf("config and aborted errors must not match")
	}
}
