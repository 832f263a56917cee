// Package dictation owns the push-to-talk workflow: one state machine,
// one single-writer run loop, and a tiered recovery policy over the
// audio, transcription, injection, permission and model collaborators.
package dictation

import (
	"time"

	"murmur/log"
	"murmur/observe"
)

const confidenceThreshold = 0.5

// Config carries the tunable timings of the workflow. Zero values are
// replaced with defaults in New.
type Config struct {
	Model    string // initially selected transcription model
	Language string

	MaxDuration    time.Duration // auto-stop bound for one recording
	SuccessRevert  time.Duration // Success display window before Idle
	ErrorRevert    time.Duration // Error display window before Idle
	HealthInterval time.Duration
	DevicePoll     time.Duration // reconnection watch interval
}

func (c *Config) applyDefaults() {
	if c.MaxDuration <= 0 {
		c.MaxDuration = 60 * time.Second
	}
	if c.SuccessRevert <= 0 {
		c.SuccessRevert = 2 * time.Second
	}
	if c.ErrorRevert <= 0 {
		c.ErrorRevert = 5 * time.Second
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = 30 * time.Second
	}
	if c.DevicePoll <= 0 {
		c.DevicePoll = 3 * time.Second
	}
}

// Deps are the injected collaborators. All are required.
type Deps struct {
	Capture     Capturer
	Engine      Engine
	Injector    Injector
	Permissions Permissions
	Models      ModelStore
	Clipboard   Clipboard
}

// Readiness is the pair of flags the host surface displays.
type Readiness struct {
	Mic   bool
	Model bool
}

// ModelLoading is the model-load sub-state, kept out of the main Phase.
type ModelLoading struct {
	Active  bool
	ModelID string
}

// session is the ephemeral data of one Idle→…→Idle cycle.
type session struct {
	startedAt  time.Time
	elapsed    time.Duration
	transcript string
	attempts   int
}

// Orchestrator is the single owner of dictation state. Every read or
// write of its mutable fields happens on the run goroutine; public
// operations post into the run loop and return immediately.
type Orchestrator struct {
	cfg  Config
	deps Deps

	calls chan func()
	done  chan struct{}

	// Owned by the run goroutine.
	state            State
	gen              uint64
	sess             session
	selectedModel    string
	recoveryAttempts int
	deviceWatch      bool

	stateObs     *observe.Value[State]
	level        *observe.Value[float64]
	lastText     *observe.Value[string]
	errMsg       *observe.Value[string]
	ready        *observe.Value[Readiness]
	modelLoading *observe.Value[ModelLoading]
}

// New builds the orchestrator and starts its run loop.
func New(cfg Config, deps Deps) *Orchestrator {
	cfg.applyDefaults()
	o := &Orchestrator{
		cfg:           cfg,
		deps:          deps,
		calls:         make(chan func(), 64),
		done:          make(chan struct{}),
		state:         State{Phase: PhaseIdle},
		selectedModel: cfg.Model,
		stateObs:      observe.NewValue(State{Phase: PhaseIdle}),
		level:         observe.NewValue(0.0),
		lastText:      observe.NewValue(""),
		errMsg:        observe.NewValue(""),
		ready:         observe.NewValue(Readiness{}),
		modelLoading:  observe.NewValue(ModelLoading{}),
	}
	go o.run()
	o.do(o.refreshReadiness)
	return o
}

// Close stops the run loop. Pending posted calls are dropped.
func (o *Orchestrator) Close() {
	select {
	case <-o.done:
	default:
		close(o.done)
	}
}

// Observables exposed to the host surface.

func (o *Orchestrator) State() *observe.Value[State]              { return o.stateObs }
func (o *Orchestrator) AudioLevel() *observe.Value[float64]       { return o.level }
func (o *Orchestrator) LastTranscription() *observe.Value[string] { return o.lastText }
func (o *Orchestrator) ErrorMessage() *observe.Value[string]      { return o.errMsg }
func (o *Orchestrator) Ready() *observe.Value[Readiness]          { return o.ready }
func (o *Orchestrator) Loading() *observe.Value[ModelLoading]     { return o.modelLoading }

// run serializes every state access. Collaborator calls that can block
// run in their own goroutines and re-enter through o.do.
func (o *Orchestrator) run() {
	health := time.NewTicker(o.cfg.HealthInterval)
	defer health.Stop()
	for {
		select {
		case fn := <-o.calls:
			fn()
		case <-health.C:
			o.healthCheck()
		case <-o.done:
			return
		}
	}
}

// do posts fn into the run loop. Returns false once the orchestrator is
// closed.
func (o *Orchestrator) do(fn func()) bool {
	select {
	case o.calls <- fn:
		return true
	case <-o.done:
		return false
	}
}

// after schedules fn on the run loop, invalidated by any state transition
// that happens before it fires.
func (o *Orchestrator) after(d time.Duration, fn func()) {
	gen := o.gen
	time.AfterFunc(d, func() {
		o.do(func() {
			if o.gen != gen {
				return // a newer transition superseded this timer
			}
			fn()
		})
	})
}

// transition applies a workflow edge if the validator admits it.
func (o *Orchestrator) transition(to Phase, msg string) bool {
	if !CanTransition(o.state.Phase, to) {
		log.Warnf("transition rejected: %s -> %s", o.state.Phase, to)
		return false
	}
	o.applyState(State{Phase: to, Message: msg})
	return true
}

// applyState is the only writer of o.state.
func (o *Orchestrator) applyState(s State) {
	log.Transition(o.state.Phase.String(), s.Phase.String(), s.Message)
	o.gen++
	o.state = s
	o.stateObs.Set(s)

	switch s.Phase {
	case PhaseIdle:
		o.sess = session{}
		o.level.Set(0)
	case PhaseSuccess:
		o.after(o.cfg.SuccessRevert, func() { o.transition(PhaseIdle, "") })
	case PhaseError:
		o.errMsg.Set(s.Message)
		o.after(o.cfg.ErrorRevert, func() {
			if o.transition(PhaseIdle, "") {
				o.errMsg.Set("")
			}
		})
	}
}

// StartDictation begins a capture cycle. Admissible from Idle, Success
// and Error; anywhere else it is a no-op.
func (o *Orchestrator) StartDictation() { o.do(o.startDictation) }

// StopDictation ends the capture and starts transcription. No-op unless
// recording.
func (o *Orchestrator) StopDictation() { o.do(o.stopDictation) }

// ChangeModel selects and loads a different transcription model. Only
// permitted while idle.
func (o *Orchestrator) ChangeModel(id string) {
	o.do(func() { o.changeModel(id) })
}

// LoadSelectedModel (re)loads the currently selected model. Idle-only.
func (o *Orchestrator) LoadSelectedModel() {
	o.do(func() {
		if o.state.Phase != PhaseIdle {
			o.errMsg.Set("Finish the current dictation before loading models")
			return
		}
		o.loadModel(o.selectedModel)
	})
}

// RequestPermissions triggers the microphone permission prompt and
// refreshes the readiness flags with the outcome.
func (o *Orchestrator) RequestPermissions() {
	go func() {
		o.deps.Permissions.RequestMicrophone()
		o.do(o.refreshReadiness)
	}()
}

// HandleHotkeyPress is the press half of the push-to-talk pair.
func (o *Orchestrator) HandleHotkeyPress() { o.StartDictation() }

// HandleHotkeyRelease stops an active recording. A release arriving while
// processing is dropped, not queued for the next cycle.
func (o *Orchestrator) HandleHotkeyRelease() { o.StopDictation() }

// PublishLevel forwards capture level telemetry. Samples arriving while
// not recording, or while the queue is saturated, are dropped.
func (o *Orchestrator) PublishLevel(l float64) {
	select {
	case o.calls <- func() {
		if o.state.Phase == PhaseRecording {
			o.level.Set(l)
		}
	}:
	default:
	}
}

func (o *Orchestrator) startDictation() {
	if !CanTransition(o.state.Phase, PhaseRecording) {
		return
	}

	switch o.deps.Permissions.Microphone() {
	case PermDenied:
		o.fail(Errf(KindMicPermissionDenied, "Microphone permission required"))
		return
	case PermUndetermined:
		go func() {
			granted := o.deps.Permissions.RequestMicrophone()
			o.do(func() {
				// Revalidate: the world may have moved while the prompt
				// was up.
				if !CanTransition(o.state.Phase, PhaseRecording) {
					return
				}
				if !granted {
					o.fail(Errf(KindMicPermissionDenied, "Microphone permission required"))
					return
				}
				o.beginCapture()
			})
		}()
		return
	}
	o.beginCapture()
}

func (o *Orchestrator) beginCapture() {
	if !CanTransition(o.state.Phase, PhaseRecording) {
		return
	}

	if !o.deps.Engine.IsModelLoaded() {
		// Not a model fault: the load may simply not have finished yet.
		// Surface the error and kick a load of the same model rather
		// than routing through the recovery fallback.
		id := o.selectedModel
		log.Warnf("capture requested before model %s is loaded", id)
		o.toError("Transcription model " + id + " is not loaded yet")
		o.loadModel(id)
		return
	}

	if err := o.deps.Capture.StartRecording(); err != nil {
		o.fail(err)
		return
	}

	o.applyState(State{Phase: PhaseRecording})
	o.sess = session{startedAt: time.Now()}
	o.recoveryAttempts = 0
	o.errMsg.Set("")
	o.after(o.cfg.MaxDuration, o.stopDictation)
}

func (o *Orchestrator) stopDictation() {
	if o.state.Phase != PhaseRecording {
		return
	}
	// The validator closes the race where an auto-stop timer and a hotkey
	// release both reach the queue.
	if !o.transition(PhaseProcessing, "") {
		return
	}
	o.sess.elapsed = time.Since(o.sess.startedAt)

	gen := o.gen
	lang := o.cfg.Language
	go o.processCapture(gen, lang)
}

// processCapture runs off the run loop; every state effect re-enters
// through o.do and is dropped if the state has moved on.
func (o *Orchestrator) processCapture(gen uint64, lang string) {
	buf := o.deps.Capture.StopRecording()

	if len(buf) == 0 {
		o.do(func() {
			if o.gen != gen {
				return
			}
			o.fail(Errf(KindInvalidAudioData, "No audio captured"))
		})
		return
	}

	tr, err := o.deps.Engine.Transcribe(buf, lang)
	o.do(func() {
		if o.gen != gen {
			return
		}
		if err != nil {
			o.fail(err)
			return
		}
		if tr.Confidence < confidenceThreshold {
			o.fail(LowConfidence(tr.Confidence))
			return
		}
		o.sess.transcript = tr.Text
		o.lastText.Set(tr.Text)
		o.dispatchInjection(tr.Text)
	})
}

// dispatchInjection hands the transcript to the injector. Injection
// failure is never fatal: the transcript lands on the clipboard and the
// cycle still ends in Success.
func (o *Orchestrator) dispatchInjection(text string) {
	gen := o.gen
	go func() {
		method, err := o.deps.Injector.Inject(text)
		o.do(func() {
			if o.gen != gen {
				return
			}
			if err == nil {
				log.Injected(method)
				o.errMsg.Set("")
				o.transition(PhaseSuccess, "")
				return
			}
			log.Warnf("injection failed (%s): %v", KindOf(err), err)
			if cerr := o.deps.Clipboard.Copy(text); cerr != nil {
				// Nothing left to fall back to.
				o.fail(Wrap(KindUnknown, "clipboard fallback failed", cerr))
				return
			}
			o.transition(PhaseSuccess, "text copied to clipboard")
		})
	}()
}

func (o *Orchestrator) changeModel(id string) {
	if o.state.Phase != PhaseIdle {
		o.errMsg.Set("Finish the current dictation before changing models")
		return
	}
	o.selectedModel = id
	o.loadModel(id)
}

// loadModel drives the model-loading sub-state. Runs on the run loop;
// the load itself does not.
func (o *Orchestrator) loadModel(id string) {
	if o.modelLoading.Get().Active {
		return
	}
	if !o.deps.Models.IsDownloaded(id) {
		o.fail(Errf(KindModelNotFound, "Model %q is not downloaded", id))
		return
	}
	o.modelLoading.Set(ModelLoading{Active: true, ModelID: id})
	go func() {
		err := o.deps.Engine.LoadModel(id)
		o.do(func() {
			o.modelLoading.Set(ModelLoading{ModelID: id})
			if err != nil {
				o.fail(Wrap(KindModelLoadFailed, "loading model "+id, err))
				return
			}
			log.Info("model_loaded: " + id)
			o.refreshReadiness()
		})
	}()
}

// refreshReadiness re-reads collaborator state into the readiness flags.
func (o *Orchestrator) refreshReadiness() {
	o.ready.Set(Readiness{
		Mic:   o.deps.Permissions.Microphone() == PermGranted && o.deps.Capture.DeviceAvailable(),
		Model: o.deps.Engine.IsModelLoaded(),
	})
}
