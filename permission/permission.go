// Package permission probes the OS facilities dictation depends on:
// microphone capture and the input layer used for keystroke injection.
package permission

import (
	"sync"

	"murmur/dictation"
)

// Checker implements the orchestrator's permission dependency with
// platform probes.
type Checker struct{}

func NewChecker() *Checker { return &Checker{} }

func (Checker) Microphone() dictation.PermissionStatus {
	return probeMicrophone()
}

func (Checker) RequestMicrophone() bool {
	return requestMicrophone()
}

func (Checker) HasAccessibility() bool {
	return probeAccessibility()
}

// Fake is a scriptable permission source for tests.
type Fake struct {
	mu            sync.Mutex
	Mic           dictation.PermissionStatus
	Accessibility bool
	// GrantOnRequest controls what RequestMicrophone reports and
	// whether it flips Mic to granted.
	GrantOnRequest bool
	Requests       int
}

func NewFake() *Fake {
	return &Fake{Mic: dictation.PermGranted, Accessibility: true, GrantOnRequest: true}
}

func (f *Fake) Microphone() dictation.PermissionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Mic
}

func (f *Fake) RequestMicrophone() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests++
	if f.GrantOnRequest {
		f.Mic = dictation.PermGranted
		return true
	}
	f.Mic = dictation.PermDenied
	return false
}

func (f *Fake) HasAccessibility() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Accessibility
}

func (f *Fake) SetMic(s dictation.PermissionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Mic = s
}
