package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinels_MatchThroughWrapping(t *testing.T) {
	sentinels := []error{
		ErrIntegrity, ErrAuthentication, ErrPersistence,
		ErrSessionExpired, ErrValidation, ErrKeybindingConflict, ErrNotConnected,
	}
	for _, s := range sentinels {
		wrapped := fmt.Errorf("outer: %w", fmt.Errorf("%w: detail", s))
		if !errors.Is(wrapped, s) {
			t.Fatalf("errors.Is lost %v through wrapping", s)
		}
	}
	if errors.Is(ErrAuthentication, ErrIntegrity) {
		t.Fatalf("distinct sentinels must not match each other")
	}
}
