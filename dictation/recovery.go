package dictation

import (
	"time"

	"murmur/log"
)

// maxModelFallbacks caps automatic switches to the default model within
// one error streak. The streak counter resets on every successful start.
const maxModelFallbacks = 3

// fail runs the recovery policy for one tagged fault. Always called on
// the run loop. Entering the error state bypasses the workflow edge
// table: a fault can strike from any phase.
func (o *Orchestrator) fail(err error) {
	o.recoveryAttempts++
	o.sess.attempts = o.recoveryAttempts
	kind := KindOf(err)
	log.Recovery(kind.String(), o.recoveryAttempts, err.Error())

	switch kind {
	case KindNoFocusedApp, KindUnsupportedApp:
		// Non-fatal by policy; dispatchInjection handles the clipboard
		// fallback before this can be reached. Kept as a guard for
		// collaborators that misreport.
		o.transition(PhaseSuccess, "text copied to clipboard")

	case KindAudioDeviceDisconnected:
		o.toError("Audio device disconnected — waiting for it to return")
		o.startDeviceWatch()

	case KindModelNotFound, KindModelLoadFailed:
		o.toError(err.Error())
		o.maybeFallbackModel()

	case KindMicPermissionDenied:
		o.toError("Microphone permission required — enable it in system settings")

	case KindNetworkUnavailable:
		o.toError("Network unavailable — transcription needs a connection")

	default:
		o.toError(err.Error())
	}
}

// toError enters the error state with its timed revert to idle.
func (o *Orchestrator) toError(msg string) {
	o.applyState(State{Phase: PhaseError, Message: msg})
}

// maybeFallbackModel switches to the smallest model after repeated load
// failures, bounded by the streak cap.
func (o *Orchestrator) maybeFallbackModel() {
	def := o.deps.Models.DefaultModel()
	if o.selectedModel == def {
		return
	}
	if o.recoveryAttempts >= maxModelFallbacks {
		log.Warnf("model fallback suppressed after %d attempts", o.recoveryAttempts)
		return
	}
	log.Info("model_fallback: " + o.selectedModel + " -> " + def)
	o.selectedModel = def
	o.loadModel(def)
}

// startDeviceWatch polls device enumeration until the capture device
// returns, then clears the fault surface. The watch outlives state
// transitions, so it schedules plain timers rather than gen-guarded ones.
func (o *Orchestrator) startDeviceWatch() {
	if o.deviceWatch {
		return
	}
	o.deviceWatch = true
	o.scheduleDevicePoll()
}

func (o *Orchestrator) scheduleDevicePoll() {
	time.AfterFunc(o.cfg.DevicePoll, func() {
		o.do(o.pollDevice)
	})
}

func (o *Orchestrator) pollDevice() {
	if !o.deviceWatch {
		return
	}
	if o.deps.Capture.DeviceAvailable() {
		o.deviceWatch = false
		log.Info("device_reconnected")
		o.errMsg.Set("")
		o.refreshReadiness()
		return
	}
	o.scheduleDevicePoll()
}
