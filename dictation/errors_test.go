package dictation

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := Errf(KindModelNotFound, "model %q missing", "base.en")
	if KindOf(err) != KindModelNotFound {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("untagged error should map to KindUnknown")
	}
	if KindOf(nil) != KindUnknown {
		t.Fatal("nil error should map to KindUnknown")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := Errf(KindNetworkUnavailable, "connection refused")
	outer := fmt.Errorf("transcribing: %w", inner)
	if KindOf(outer) != KindNetworkUnavailable {
		t.Fatalf("KindOf through fmt wrap = %v", KindOf(outer))
	}
}

func TestWrapNilCause(t *testing.T) {
	if Wrap(KindModelLoadFailed, "loading", nil) != nil {
		t.Fatal("Wrap with nil cause should return nil")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindModelLoadFailed, "loading base.en", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause lost")
	}
	if KindOf(err) != KindModelLoadFailed {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	if err.Error() != "loading base.en: disk full" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestLowConfidenceCarriesScore(t *testing.T) {
	err := LowConfidence(0.32)
	if KindOf(err) != KindLowConfidence {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	if err.Score != 0.32 {
		t.Fatalf("Score = %v", err.Score)
	}
}
