// Package doctor runs interactive end-to-end diagnostics: hotkey,
// permissions, capture, transcription and keystroke delivery.
package doctor

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"murmur/audio"
	"murmur/clipboard"
	"murmur/dictation"
	"murmur/encoder"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/permission"
	"murmur/transcriber"
)

// Options names the pieces of configuration the checks exercise.
type Options struct {
	ServerURL string
	Model     string
	Combo     hotkey.Combo
}

// Run executes the diagnostic checks and returns an exit code (0=all
// pass, 1=any fail).
func Run(opts Options) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("murmur doctor - interactive system diagnostics")
	fmt.Println("==============================================")

	allPass := true

	if !checkPermissions() {
		allPass = false
	}
	if !checkHotkey(opts.Combo) {
		allPass = false
	}
	if allPass && !checkMicAndTranscription(opts) {
		allPass = false
	}
	if allPass && !checkInjection() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkPermissions() bool {
	fmt.Println()
	fmt.Println("[1/4] Permissions")

	perms := permission.NewChecker()
	ok := true

	switch perms.Microphone() {
	case dictation.PermGranted:
		fmt.Println("  PASS: microphone access")
	case dictation.PermUndetermined:
		fmt.Println("  WARN: microphone access undetermined (the OS will prompt on first capture)")
	default:
		fmt.Println("  FAIL: microphone access denied")
		ok = false
	}

	if perms.HasAccessibility() {
		fmt.Println("  PASS: input layer writable")
	} else {
		fmt.Println("  FAIL: cannot write keystrokes")
		fmt.Println("  Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		ok = false
	}
	return ok
}

func checkHotkey(combo hotkey.Combo) bool {
	fmt.Println()
	fmt.Println("[2/4] Hotkey detection")
	fmt.Printf("Press %s...\n", combo)

	hk := hotkey.New(combo)
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		// Wait for keyup to avoid triggering next step
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// Reset terminal after hotkey - it may leave terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicAndTranscription(opts Options) bool {
	fmt.Println()
	fmt.Println("[3/4] Microphone and transcription")

	reader := bufio.NewReader(os.Stdin)

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}

	var device *audio.DeviceInfo
	if len(devices) == 1 {
		device = &devices[0]
		fmt.Printf("Using device: %s\n", device.Name)
	} else {
		fmt.Println()
		fmt.Println("Select input device:")
		for i, d := range devices {
			fmt.Printf("  %d. %s\n", i+1, d.Name)
		}
		fmt.Printf("Choice [1-%d]: ", len(devices))

		devChoice, _ := reader.ReadString('\n')
		devChoice = strings.TrimSpace(devChoice)
		idx := 0
		if devChoice != "" {
			fmt.Sscanf(devChoice, "%d", &idx)
			idx--
		}
		if idx < 0 || idx >= len(devices) {
			fmt.Printf("  FAIL: invalid choice\n")
			return false
		}
		device = &devices[idx]
		fmt.Printf("Selected: %s\n", device.Name)
	}

	engine := transcriber.NewWhisper(opts.ServerURL)
	fmt.Printf("Loading model %s from %s...\n", opts.Model, opts.ServerURL)
	if err := engine.LoadModel(opts.Model); err != nil {
		fmt.Printf("  FAIL: model load: %v\n", err)
		fmt.Println("  Is the whisper server running?")
		return false
	}

	fmt.Println()
	fmt.Print("Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	rec := audio.NewRecorder(ctx, device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err := rec.StartRecording(); err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}

	fmt.Print("  Recording")
	for i := 0; i < 6; i++ {
		time.Sleep(500 * time.Millisecond)
		fmt.Print(".")
	}
	samples := rec.StopRecording()
	fmt.Println(" done")

	if len(samples) == 0 {
		fmt.Println("  FAIL: no audio captured")
		return false
	}

	fmt.Printf("  Recorded %.1fs, transcribing...\n", float64(len(samples))/float64(encoder.SampleRate))

	result, err := engine.Transcribe(samples, "")
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return false
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		text = "(no speech detected)"
	}
	fmt.Printf("\n  Transcribed text: %s (confidence %.2f)\n\n", text, result.Confidence)

	// Ask user to confirm - fresh reader to clear any buffered input
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func checkInjection() bool {
	fmt.Println()
	fmt.Println("[4/4] Text delivery")

	testStr := fmt.Sprintf("murmur-doctor-%d", time.Now().UnixNano())
	if err := clipboard.Copy(testStr); err != nil {
		fmt.Printf("  FAIL: clipboard copy failed: %v\n", err)
		return false
	}
	got, err := clipboard.Read()
	if err != nil {
		fmt.Printf("  FAIL: clipboard read failed: %v\n", err)
		return false
	}
	if got != testStr {
		fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, got)
		return false
	}
	fmt.Println("  PASS: clipboard write/read verified")

	fmt.Println("Focus on a text editor window...")
	for i := 5; i > 0; i-- {
		fmt.Printf("  %d...\n", i)
		time.Sleep(1 * time.Second)
	}

	w := inject.NewWriter()
	method, err := w.Inject("murmur doctor test")
	if err != nil {
		fmt.Printf("  FAIL: injection failed: %v\n", err)
		return false
	}
	fmt.Printf("  Delivered via %s\n", method)

	if msg, err := inject.Verify(); err != nil {
		fmt.Printf("  WARN: %v\n", err)
	} else {
		fmt.Printf("  %s\n", msg)
	}

	// Reset terminal and use fresh reader for confirmation
	resetTerminal()
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Println()
	fmt.Print("Did the text \"murmur doctor test\" appear? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm != "y" && confirm != "yes" {
		fmt.Println("  FAIL: delivery not confirmed")
		return false
	}
	fmt.Println("  PASS: text delivery verified by user")
	return true
}
