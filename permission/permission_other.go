//go:build !linux

package permission

import "murmur/dictation"

// probeMicrophone cannot read TCC state without cgo; the OS prompts on
// first capture, so report undetermined and let the request path run.
func probeMicrophone() dictation.PermissionStatus {
	return dictation.PermUndetermined
}

// requestMicrophone defers to the OS prompt raised by the first
// capture attempt.
func requestMicrophone() bool {
	return true
}

// probeAccessibility is optimistic here; a real denial surfaces as a
// tagged injection error and the recovery policy explains the fix.
func probeAccessibility() bool {
	return true
}
