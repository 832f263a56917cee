package dictation_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"murmur/dictation"
	"murmur/inject"
	"murmur/permission"
	"murmur/transcriber"
)

type stubCapture struct {
	mu        sync.Mutex
	startErr  error
	recording bool
	buf       []int16
	available bool
	stopCalls int
}

func (c *stubCapture) StartRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.recording = true
	return nil
}

func (c *stubCapture) StopRecording() []int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopCalls++
	c.recording = false
	return c.buf
}

func (c *stubCapture) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

func (c *stubCapture) DeviceAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available
}

func (c *stubCapture) set(fn func(*stubCapture)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

type stubModels struct {
	mu         sync.Mutex
	downloaded map[string]bool
	def        string
}

func (m *stubModels) IsDownloaded(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.downloaded[id]
}

func (m *stubModels) DefaultModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.def
}

type stubClipboard struct {
	mu    sync.Mutex
	err   error
	texts []string
}

func (c *stubClipboard) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.texts = append(c.texts, text)
	return nil
}

func (c *stubClipboard) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.texts) == 0 {
		return ""
	}
	return c.texts[len(c.texts)-1]
}

type fixture struct {
	cap    *stubCapture
	eng    *transcriber.Fake
	inj    *inject.Fake
	perms  *permission.Fake
	models *stubModels
	clip   *stubClipboard
	orch   *dictation.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cap:   &stubCapture{buf: []int16{1, 2, 3, 4}, available: true},
		eng:   transcriber.NewFake("hello world", 0.9),
		inj:   inject.NewFake(),
		perms: permission.NewFake(),
		clip:  &stubClipboard{},
		models: &stubModels{
			downloaded: map[string]bool{"base.en": true, "tiny.en": true},
			def:        "tiny.en",
		},
	}
	require.NoError(t, f.eng.LoadModel("base.en"))

	f.orch = dictation.New(dictation.Config{
		Model:          "base.en",
		SuccessRevert:  40 * time.Millisecond,
		ErrorRevert:    60 * time.Millisecond,
		HealthInterval: time.Hour,
		DevicePoll:     15 * time.Millisecond,
	}, dictation.Deps{
		Capture:     f.cap,
		Engine:      f.eng,
		Injector:    f.inj,
		Permissions: f.perms,
		Models:      f.models,
		Clipboard:   f.clip,
	})
	t.Cleanup(f.orch.Close)
	return f
}

func (f *fixture) waitPhase(t *testing.T, want dictation.Phase) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.orch.State().Get().Phase == want
	}, 2*time.Second, 2*time.Millisecond, "waiting for phase %s, at %s", want, f.orch.State().Get())
}

func TestFullCycleInjectsAndReverts(t *testing.T) {
	f := newFixture(t)

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)

	f.orch.StopDictation()
	f.waitPhase(t, dictation.PhaseSuccess)

	require.Equal(t, "hello world", f.inj.Last())
	require.Equal(t, "hello world", f.orch.LastTranscription().Get())
	require.Equal(t, 1, f.eng.TranscribeCalls)

	// Success reverts to idle on its own.
	f.waitPhase(t, dictation.PhaseIdle)
}

func TestHotkeyPressReleaseDrivesCycle(t *testing.T) {
	f := newFixture(t)

	f.orch.HandleHotkeyPress()
	f.waitPhase(t, dictation.PhaseRecording)
	f.orch.HandleHotkeyRelease()
	f.waitPhase(t, dictation.PhaseSuccess)
}

func TestDoubleStopTranscribesOnce(t *testing.T) {
	f := newFixture(t)

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)

	f.orch.StopDictation()
	f.orch.StopDictation()
	f.waitPhase(t, dictation.PhaseSuccess)

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, f.eng.TranscribeCalls)
	require.Equal(t, 1, f.cap.stopCalls)
}

func TestStartWhileProcessingIgnored(t *testing.T) {
	f := newFixture(t)
	f.eng.SetResult("slow", 0.9)

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)
	f.orch.StopDictation()

	// A press racing the processing pipeline must not start a capture.
	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseSuccess)
	require.Equal(t, 1, f.eng.TranscribeCalls)
}

func TestInjectionFailureFallsBackToClipboard(t *testing.T) {
	f := newFixture(t)
	f.inj.Err = dictation.Errf(dictation.KindNoFocusedApp, "no focused application")

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)
	f.orch.StopDictation()

	// Delivery failure is not an error: the text lands on the clipboard
	// and the cycle still succeeds.
	require.Eventually(t, func() bool {
		s := f.orch.State().Get()
		return s.Phase == dictation.PhaseSuccess && s.Message == "text copied to clipboard"
	}, 2*time.Second, 2*time.Millisecond)
	require.Equal(t, "hello world", f.clip.last())
}

func TestClipboardFallbackFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.inj.Err = dictation.Errf(dictation.KindUnsupportedApp, "cannot type here")
	f.clip.err = dictation.Errf(dictation.KindUnknown, "no clipboard")

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)
	f.orch.StopDictation()
	f.waitPhase(t, dictation.PhaseError)
}

func TestConfidenceAtThresholdAccepted(t *testing.T) {
	f := newFixture(t)
	f.eng.SetResult("borderline", 0.5)

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)
	f.orch.StopDictation()
	f.waitPhase(t, dictation.PhaseSuccess)
	require.Equal(t, "borderline", f.inj.Last())
}

func TestConfidenceBelowThresholdRejected(t *testing.T) {
	f := newFixture(t)
	f.eng.SetResult("mumble", 0.49)

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)
	f.orch.StopDictation()
	f.waitPhase(t, dictation.PhaseError)

	require.Empty(t, f.inj.Injected)
	require.Contains(t, f.orch.ErrorMessage().Get(), "confidence")
}

func TestErrorRevertsToIdleAndClearsMessage(t *testing.T) {
	f := newFixture(t)
	f.eng.SetResult("mumble", 0.1)

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)
	f.orch.StopDictation()
	f.waitPhase(t, dictation.PhaseError)
	require.NotEmpty(t, f.orch.ErrorMessage().Get())

	f.waitPhase(t, dictation.PhaseIdle)
	require.Empty(t, f.orch.ErrorMessage().Get())
}

func TestNewStartSupersedesErrorRevert(t *testing.T) {
	f := newFixture(t)
	f.eng.SetResult("mumble", 0.1)

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)
	f.orch.StopDictation()
	f.waitPhase(t, dictation.PhaseError)

	// Retry immediately from the error state.
	f.eng.SetResult("clear speech", 0.9)
	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)

	// The stale revert timer must not yank the new recording back to idle.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, dictation.PhaseRecording, f.orch.State().Get().Phase)
}

func TestEmptyBufferSurfacesInvalidAudio(t *testing.T) {
	f := newFixture(t)
	f.cap.set(func(c *stubCapture) { c.buf = nil })

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)
	f.orch.StopDictation()
	f.waitPhase(t, dictation.PhaseError)
	require.Zero(t, f.eng.TranscribeCalls)
}

func TestDeniedPermissionFailsStart(t *testing.T) {
	f := newFixture(t)
	f.perms.SetMic(dictation.PermDenied)

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseError)
	require.Contains(t, f.orch.ErrorMessage().Get(), "permission")
	require.False(t, f.cap.Recording())
}

func TestUndeterminedPermissionPromptsThenRecords(t *testing.T) {
	f := newFixture(t)
	f.perms.SetMic(dictation.PermUndetermined)
	f.perms.GrantOnRequest = true

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)
	require.Equal(t, 1, f.perms.Requests)
}

func TestUndeterminedPermissionDeniedAtPrompt(t *testing.T) {
	f := newFixture(t)
	f.perms.SetMic(dictation.PermUndetermined)
	f.perms.GrantOnRequest = false

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseError)
	require.False(t, f.cap.Recording())
}

func TestUnloadedModelTriggersReload(t *testing.T) {
	f := newFixture(t)
	f.eng.Unload()

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseError)

	require.Eventually(t, func() bool {
		return f.eng.IsModelLoaded()
	}, 2*time.Second, 2*time.Millisecond)
	require.Contains(t, f.eng.LoadCalls, "base.en")
}

func TestModelFallbackToDefault(t *testing.T) {
	f := newFixture(t)

	// Selecting a model that is not on disk falls back to the default.
	f.orch.ChangeModel("large-v3")

	require.Eventually(t, func() bool {
		for _, id := range f.eng.LoadCalls {
			if id == "tiny.en" {
				return true
			}
		}
		return false
	}, 2*time.Second, 2*time.Millisecond)
}

func TestModelFallbackSuppressedAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)

	// Three failed starts build up the recovery streak without a
	// successful start to reset it.
	f.perms.SetMic(dictation.PermDenied)
	for i := 0; i < 3; i++ {
		f.orch.StartDictation()
		f.waitPhase(t, dictation.PhaseError)
		f.waitPhase(t, dictation.PhaseIdle)
	}

	// A model fault on top of an exhausted streak must not switch to
	// the default model anymore.
	f.orch.ChangeModel("large-v3")
	require.Eventually(t, func() bool {
		s := f.orch.State().Get()
		return s.Phase == dictation.PhaseError && strings.Contains(s.Message, "not downloaded")
	}, 2*time.Second, 2*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	require.NotContains(t, f.eng.LoadCalls, "tiny.en")
}

func TestChangeModelWhileRecordingRejected(t *testing.T) {
	f := newFixture(t)

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)

	f.orch.ChangeModel("tiny.en")
	require.Eventually(t, func() bool {
		return f.orch.ErrorMessage().Get() != ""
	}, 2*time.Second, 2*time.Millisecond)
	require.Equal(t, dictation.PhaseRecording, f.orch.State().Get().Phase)
	require.NotContains(t, f.eng.LoadCalls, "tiny.en")
}

func TestDeviceDisconnectRecovers(t *testing.T) {
	f := newFixture(t)
	f.cap.set(func(c *stubCapture) {
		c.startErr = dictation.Errf(dictation.KindAudioDeviceDisconnected, "device gone")
		c.available = false
	})

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseError)
	require.Contains(t, f.orch.ErrorMessage().Get(), "disconnected")

	// Reconnect; the watch clears the fault and readiness returns.
	f.cap.set(func(c *stubCapture) {
		c.startErr = nil
		c.available = true
	})
	require.Eventually(t, func() bool {
		return f.orch.Ready().Get().Mic && f.orch.ErrorMessage().Get() == ""
	}, 2*time.Second, 2*time.Millisecond)
}

func TestAutoStopAtMaxDuration(t *testing.T) {
	f := newFixture(t)
	f.orch.Close()

	f.orch = dictation.New(dictation.Config{
		Model:          "base.en",
		MaxDuration:    30 * time.Millisecond,
		SuccessRevert:  40 * time.Millisecond,
		ErrorRevert:    60 * time.Millisecond,
		HealthInterval: time.Hour,
	}, dictation.Deps{
		Capture:     f.cap,
		Engine:      f.eng,
		Injector:    f.inj,
		Permissions: f.perms,
		Models:      f.models,
		Clipboard:   f.clip,
	})
	defer f.orch.Close()

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)

	// No explicit stop: the duration bound fires.
	f.waitPhase(t, dictation.PhaseSuccess)
	require.Equal(t, "hello world", f.inj.Last())
}

func TestLevelOnlyPublishedWhileRecording(t *testing.T) {
	f := newFixture(t)

	f.orch.PublishLevel(0.7)
	time.Sleep(10 * time.Millisecond)
	require.Zero(t, f.orch.AudioLevel().Get())

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)
	f.orch.PublishLevel(0.7)
	require.Eventually(t, func() bool {
		return f.orch.AudioLevel().Get() == 0.7
	}, 2*time.Second, 2*time.Millisecond)

	// Returning to idle resets the level.
	f.orch.StopDictation()
	f.waitPhase(t, dictation.PhaseIdle)
	require.Zero(t, f.orch.AudioLevel().Get())
}

func newHealthFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.orch.Close()
	f.orch = dictation.New(dictation.Config{
		Model:          "base.en",
		SuccessRevert:  40 * time.Millisecond,
		ErrorRevert:    60 * time.Millisecond,
		HealthInterval: 20 * time.Millisecond,
	}, dictation.Deps{
		Capture:     f.cap,
		Engine:      f.eng,
		Injector:    f.inj,
		Permissions: f.perms,
		Models:      f.models,
		Clipboard:   f.clip,
	})
	t.Cleanup(f.orch.Close)
	return f
}

func TestHealthCheckForcesStopWhenCaptureDies(t *testing.T) {
	f := newHealthFixture(t)

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)

	// The capturer dies underneath the state machine; the health check
	// forces the stop path and the empty buffer surfaces as a fault.
	f.cap.set(func(c *stubCapture) {
		c.recording = false
		c.buf = nil
	})
	f.waitPhase(t, dictation.PhaseError)
}

func TestHealthCheckDiscardsOrphanedCapture(t *testing.T) {
	f := newHealthFixture(t)

	f.cap.set(func(c *stubCapture) { c.recording = true })

	require.Eventually(t, func() bool {
		f.cap.mu.Lock()
		defer f.cap.mu.Unlock()
		return f.cap.stopCalls > 0
	}, 2*time.Second, 2*time.Millisecond)
	require.Equal(t, dictation.PhaseIdle, f.orch.State().Get().Phase)
}

func TestStateObservableSeesOrderedPhases(t *testing.T) {
	f := newFixture(t)

	ch, cancel := f.orch.State().Watch(16)
	defer cancel()

	f.orch.StartDictation()
	f.waitPhase(t, dictation.PhaseRecording)
	f.orch.StopDictation()
	f.waitPhase(t, dictation.PhaseIdle)

	var phases []dictation.Phase
	for len(ch) > 0 {
		phases = append(phases, (<-ch).Phase)
	}
	require.Equal(t, []dictation.Phase{
		dictation.PhaseRecording,
		dictation.PhaseProcessing,
		dictation.PhaseSuccess,
		dictation.PhaseIdle,
	}, phases)
}
