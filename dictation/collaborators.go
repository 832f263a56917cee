package dictation

// The orchestrator consumes each collaborator through the narrow surface
// below. Implementations live in their own packages (audio, transcriber,
// inject, permission, models, clipboard); faults they return must already
// be tagged with a Kind where one applies.

// Capturer is the audio capture collaborator. The sample buffer is owned
// by the capturer until StopRecording hands it over.
type Capturer interface {
	StartRecording() error
	StopRecording() []int16
	Recording() bool
	DeviceAvailable() bool
}

// Transcription is the output of one transcribe call.
type Transcription struct {
	Text       string
	Confidence float64
}

// Engine is the transcription collaborator.
type Engine interface {
	IsModelLoaded() bool
	LoadModel(id string) error
	Transcribe(samples []int16, language string) (Transcription, error)
}

// Injector delivers text to the focused application. It tries its own
// ordered strategies internally and reports which one succeeded.
type Injector interface {
	Inject(text string) (method string, err error)
}

// PermissionStatus is the authorization state of one capability.
type PermissionStatus int

const (
	PermUndetermined PermissionStatus = iota
	PermGranted
	PermDenied
)

// Permissions is the authorization collaborator.
type Permissions interface {
	Microphone() PermissionStatus
	RequestMicrophone() bool
	HasAccessibility() bool
}

// ModelStore answers whether a transcription model is present on disk and
// names the smallest model to fall back to.
type ModelStore interface {
	IsDownloaded(id string) bool
	DefaultModel() string
}

// Clipboard is the orchestrator's own fallback output when injection
// cannot reach the focused application.
type Clipboard interface {
	Copy(text string) error
}
