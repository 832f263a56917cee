package dictation

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow fault. Collaborator failures are converted to
// a Kind at the collaborator boundary; only tagged errors reach the
// recovery policy.
type Kind int

const (
	KindUnknown Kind = iota
	KindMicPermissionDenied
	KindAccessibilityMissing
	KindAudioDeviceDisconnected
	KindModelNotFound
	KindModelLoadFailed
	KindNoFocusedApp
	KindUnsupportedApp
	KindNetworkUnavailable
	KindInvalidAudioData
	KindLowConfidence
)

func (k Kind) String() string {
	switch k {
	case KindMicPermissionDenied:
		return "mic_permission_denied"
	case KindAccessibilityMissing:
		return "accessibility_missing"
	case KindAudioDeviceDisconnected:
		return "audio_device_disconnected"
	case KindModelNotFound:
		return "model_not_found"
	case KindModelLoadFailed:
		return "model_load_failed"
	case KindNoFocusedApp:
		return "no_focused_app"
	case KindUnsupportedApp:
		return "unsupported_app"
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindInvalidAudioData:
		return "invalid_audio_data"
	case KindLowConfidence:
		return "low_confidence"
	default:
		return "unknown"
	}
}

// Error is the tagged fault value that crosses the collaborator boundary
// into the orchestrator.
type Error struct {
	Kind  Kind
	Msg   string
	Score float64 // set for KindLowConfidence
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Msg + ": " + e.Cause.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Errf builds a tagged error with a formatted message.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags cause with kind, preserving it for errors.Is/As chains. A nil
// cause returns nil.
func Wrap(kind Kind, msg string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// LowConfidence reports a transcription whose confidence fell below the
// acceptance threshold.
func LowConfidence(score float64) *Error {
	return &Error{
		Kind:  KindLowConfidence,
		Msg:   fmt.Sprintf("transcription confidence %.2f below threshold", score),
		Score: score,
	}
}

// KindOf extracts the Kind from err, or KindUnknown for untagged errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
