package dictation

import "murmur/log"

// healthCheck runs on the health ticker inside the run loop. It corrects
// drift between the orchestrator's belief and collaborator reality.
func (o *Orchestrator) healthCheck() {
	switch {
	case o.state.Phase == PhaseRecording && !o.deps.Capture.Recording():
		// We believe we are recording but the capturer stopped under us
		// (device yanked, backend fault). Force the stop path; an empty
		// buffer surfaces as InvalidAudioData.
		log.Warnf("health: capture stopped while state is %s, forcing stop", o.state.Phase)
		o.stopDictation()

	case o.state.Phase != PhaseRecording && o.deps.Capture.Recording():
		// Inverse drift: capture running with no owning session. Discard.
		log.Warnf("health: orphaned capture while state is %s, discarding", o.state.Phase)
		o.deps.Capture.StopRecording()
	}

	if o.ready.Get().Model && !o.deps.Engine.IsModelLoaded() {
		log.Warn("health: model unloaded while marked ready, reloading")
		o.loadModel(o.selectedModel)
	}

	o.refreshReadiness()
}
