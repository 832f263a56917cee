package transcriber

import (
	"sync"

	"murmur/dictation"
)

// Fake is a scriptable engine for tests and headless diagnostics.
type Fake struct {
	mu         sync.Mutex
	loaded     string
	text       string
	confidence float64
	loadErr    error
	transErr   error

	LoadCalls       []string
	TranscribeCalls int
}

func NewFake(text string, confidence float64) *Fake {
	return &Fake{text: text, confidence: confidence}
}

// FailLoads makes every subsequent LoadModel return err.
func (f *Fake) FailLoads(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadErr = err
}

// FailTranscribe makes every subsequent Transcribe return err.
func (f *Fake) FailTranscribe(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transErr = err
}

// SetResult scripts the next transcription output.
func (f *Fake) SetResult(text string, confidence float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.confidence = confidence
}

// Unload drops the loaded model, simulating a server-side eviction.
func (f *Fake) Unload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = ""
}

func (f *Fake) IsModelLoaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded != ""
}

func (f *Fake) LoadModel(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoadCalls = append(f.LoadCalls, id)
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = id
	return nil
}

func (f *Fake) Transcribe(samples []int16, _ string) (dictation.Transcription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TranscribeCalls++
	if f.transErr != nil {
		return dictation.Transcription{}, f.transErr
	}
	if len(samples) == 0 {
		return dictation.Transcription{}, dictation.Errf(dictation.KindInvalidAudioData, "empty sample buffer")
	}
	return dictation.Transcription{Text: f.text, Confidence: f.confidence}, nil
}
