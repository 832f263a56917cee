package audio

import (
	"encoding/binary"
	"math"
	"sync"

	"murmur/dictation"
	"murmur/observe"
)

// CaptureState is the recorder's own lifecycle signal, independent of the
// orchestrator's workflow state.
type CaptureState int

const (
	CaptureIdle CaptureState = iota
	CaptureRecording
	CaptureProcessing
	CaptureError
)

func (s CaptureState) String() string {
	switch s {
	case CaptureRecording:
		return "recording"
	case CaptureProcessing:
		return "processing"
	case CaptureError:
		return "error"
	default:
		return "idle"
	}
}

// Recorder owns the sample buffer of one recording at a time. The buffer
// is inaccessible until StopRecording hands it over; no other component
// may observe it mid-capture.
type Recorder struct {
	ctx    Context
	device *DeviceInfo
	config CaptureConfig

	mu        sync.Mutex
	capture   CaptureDevice
	samples   []int16
	recording bool

	level *observe.Value[float64]
	state *observe.Value[CaptureState]
}

func NewRecorder(ctx Context, device *DeviceInfo, config CaptureConfig) *Recorder {
	return &Recorder{
		ctx:    ctx,
		device: device,
		config: config,
		level:  observe.NewValue(0.0),
		state:  observe.NewValue(CaptureIdle),
	}
}

// Level is the instantaneous RMS level stream, one value per capture
// callback while recording.
func (r *Recorder) Level() *observe.Value[float64] { return r.level }

// State is the recorder's lifecycle signal.
func (r *Recorder) State() *observe.Value[CaptureState] { return r.state }

// SetDevice switches the capture device for subsequent recordings.
func (r *Recorder) SetDevice(device *DeviceInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.device = device
}

// StartRecording opens the capture device and begins accumulating
// samples. Starting while already recording is an invalid-state fault,
// not a crash.
//
// The mutex is released before the backend is touched: a backend may
// deliver data synchronously from Start, and onData needs the lock.
// recording is flipped on before Start for the same reason, so those
// first samples land in the buffer instead of being dropped.
func (r *Recorder) StartRecording() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return dictation.Errf(dictation.KindUnknown, "recording already in progress")
	}
	device := r.device
	r.samples = nil
	r.recording = true
	r.mu.Unlock()

	capture, err := r.ctx.NewCapture(device, r.config)
	if err != nil {
		r.abortStart()
		return dictation.Wrap(dictation.KindAudioDeviceDisconnected, "opening capture device", err)
	}

	capture.SetCallback(r.onData)

	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		r.abortStart()
		return dictation.Wrap(dictation.KindAudioDeviceDisconnected, "starting capture", err)
	}

	r.mu.Lock()
	r.capture = capture
	r.mu.Unlock()
	r.state.Set(CaptureRecording)
	return nil
}

func (r *Recorder) abortStart() {
	r.mu.Lock()
	r.recording = false
	r.samples = nil
	r.mu.Unlock()
	r.state.Set(CaptureError)
}

// onData accumulates PCM16 samples and publishes the RMS level.
func (r *Recorder) onData(data []byte, _ uint32) {
	if len(data) < 2 {
		return
	}

	var sumSquares float64
	block := make([]int16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		s := int16(binary.LittleEndian.Uint16(data[i:]))
		block = append(block, s)
		normalized := float64(s) / 32768.0
		sumSquares += normalized * normalized
	}

	r.mu.Lock()
	if r.recording {
		r.samples = append(r.samples, block...)
	}
	r.mu.Unlock()

	r.level.Set(math.Sqrt(sumSquares / float64(len(block))))
}

// StopRecording stops the capture and hands over the accumulated buffer.
// Calling it while not recording returns nil.
func (r *Recorder) StopRecording() []int16 {
	r.mu.Lock()
	capture := r.capture
	if !r.recording || capture == nil {
		r.mu.Unlock()
		return nil
	}
	r.recording = false
	r.capture = nil
	r.mu.Unlock()

	r.state.Set(CaptureProcessing)
	capture.Stop()
	capture.ClearCallback()
	capture.Close()

	r.mu.Lock()
	buf := r.samples
	r.samples = nil
	r.mu.Unlock()

	r.level.Set(0)
	r.state.Set(CaptureIdle)
	return buf
}

// Recording reports whether a capture is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// DeviceAvailable reports whether the configured device (or any device,
// when using the system default) is currently enumerable.
func (r *Recorder) DeviceAvailable() bool {
	devices, err := r.ctx.Devices()
	if err != nil {
		return false
	}
	r.mu.Lock()
	want := r.device
	r.mu.Unlock()
	if want == nil {
		return len(devices) > 0
	}
	for _, d := range devices {
		if d.Name == want.Name {
			return true
		}
	}
	return false
}

// DeviceName names the configured device for diagnostics.
func (r *Recorder) DeviceName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.device != nil {
		return r.device.Name
	}
	return "system default"
}
