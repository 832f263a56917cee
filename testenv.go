package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"murmur/audio"
	"murmur/clipboard"
	"murmur/dictation"
	"murmur/encoder"
	"murmur/inject"
	"murmur/log"
	"murmur/permission"
	"murmur/prefs"
	"murmur/transcriber"
)

// runTestMode drives one headless dictation pipeline from stdin
// commands, feeding captured audio from a WAV file instead of a real
// microphone. Used by end-to-end scripts.
func runTestMode(wavPath string, p prefs.Prefs, store dictation.ModelStore) {
	fakeCtx, err := audio.NewFakeContext(wavPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	recorder := audio.NewRecorder(fakeCtx, nil, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})

	writer := inject.NewWriter()
	writer.PreserveClipboard = p.PreserveClipboard

	orch := dictation.New(dictation.Config{
		Model:       p.Model,
		Language:    p.Language,
		MaxDuration: time.Duration(p.MaxDurationSeconds) * time.Second,
	}, dictation.Deps{
		Capture:     recorder,
		Engine:      transcriber.NewWhisper(p.ServerURL),
		Injector:    writer,
		Permissions: permission.NewFake(),
		Models:      store,
		Clipboard:   clipboard.Store{},
	})
	defer orch.Close()

	// One signal per settled cycle, so WAIT can block on the outcome.
	settled := make(chan dictation.Phase, 4)
	orch.State().Subscribe(func(s dictation.State) {
		fmt.Printf("STATE %s\n", s)
		if s.Phase == dictation.PhaseSuccess || s.Phase == dictation.PhaseError {
			select {
			case settled <- s.Phase:
			default:
			}
		}
	})
	orch.LastTranscription().Subscribe(func(text string) {
		if text != "" {
			transcriptionCount.Add(1)
			fmt.Printf("TEXT %s\n", text)
		}
	})

	orch.LoadSelectedModel()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "KEYDOWN":
			orch.HandleHotkeyPress()
		case "KEYUP":
			orch.HandleHotkeyRelease()
		case "WAIT":
			select {
			case phase := <-settled:
				fmt.Printf("SETTLED %s\n", phase)
			case <-time.After(30 * time.Second):
				fmt.Println("SETTLED timeout")
			}
		case "QUIT":
			log.SessionEnd(int(transcriptionCount.Load()))
			os.Exit(0)
		default:
			if strings.HasPrefix(cmd, "SLEEP ") {
				if ms, err := strconv.Atoi(cmd[6:]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			}
		}
	}
}
