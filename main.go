package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"murmur/audio"
	"murmur/clipboard"
	"murmur/dictation"
	"murmur/doctor"
	"murmur/encoder"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/log"
	"murmur/models"
	"murmur/permission"
	"murmur/prefs"
	"murmur/shutdown"
	"murmur/transcriber"
)

var version = "dev"

var transcriptionCount atomic.Int64

var shutdownOnce sync.Once

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if n := transcriptionCount.Load(); n > 0 {
			log.SessionEnd(int(n))
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func run() {
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	modelFlag := flag.String("model", "", "Whisper model id (overrides config)")
	langFlag := flag.String("lang", "", "Language code for transcription, e.g. en (overrides config)")
	serverFlag := flag.String("server", "", "Whisper server base URL (overrides config)")
	hotkeyFlag := flag.String("hotkey", "", "Recording hotkey, e.g. ctrl+shift+space (overrides config)")
	longPressFlag := flag.Duration("longpress", 350*time.Millisecond, "Long-press threshold for hold-to-talk vs tap")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	prefsPath, err := prefs.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot resolve config path: %v\n", err)
		os.Exit(1)
	}
	p, err := prefs.Load(prefsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *modelFlag != "" {
		p.Model = *modelFlag
	}
	if *langFlag != "" {
		p.Language = *langFlag
	}
	if *serverFlag != "" {
		p.ServerURL = *serverFlag
	}
	if *hotkeyFlag != "" {
		p.Hotkey = *hotkeyFlag
	}
	if *deviceFlag != "" {
		p.Device = *deviceFlag
	}

	combo, err := hotkey.ParseCombo(p.Hotkey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad hotkey %q: %v\n", p.Hotkey, err)
		os.Exit(1)
	}

	if !models.Known(p.Model) {
		fmt.Fprintf(os.Stderr, "Error: unknown model %q\n", p.Model)
		os.Exit(1)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(doctor.Options{
			ServerURL: p.ServerURL,
			Model:     p.Model,
			Combo:     combo,
		}))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	log.SessionStart(p.Model, p.Language)

	modelsDir, err := models.DefaultDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot resolve models directory: %v\n", err)
		os.Exit(1)
	}
	store := models.NewManager(modelsDir)

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: murmur -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], p, store)
		return
	}

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if p.Device != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == p.Device {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Printf("Warning: device %q not found, using system default\n", p.Device)
		}
	} else if *setupFlag {
		selectedDevice, err = selectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
		if selectedDevice != nil {
			p.Device = selectedDevice.Name
			if err := prefs.Save(prefsPath, p); err != nil {
				log.Warnf("could not save preferences: %v", err)
			}
		}
	}

	recorder := audio.NewRecorder(ctx, selectedDevice, audio.CaptureConfig{
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
		Permissions: permission.NewChecker(),
		Models:      store,
		Clipboard:   clipboard.Store{},
	})
	defer orch.Close()

	// Capture level telemetry flows through the orchestrator so it is
	// only published while a recording owns the mic.
	recorder.Level().Subscribe(orch.PublishLevel)

	if !*tuiFlag {
		tuiReadyOnce.Do(func() { close(tuiReady) })
	} else {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(combo.String())
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()

		<-tuiReady
	}

	orch.State().Subscribe(func(s dictation.State) { tuiSend(StateMsg{State: s}) })
	orch.AudioLevel().Subscribe(func(l float64) { tuiSend(AudioLevelMsg{Level: l}) })
	orch.LastTranscription().Subscribe(func(text string) {
		if text != "" {
			transcriptionCount.Add(1)
		}
		tuiSend(TranscriptMsg{Text: text})
	})
	orch.ErrorMessage().Subscribe(func(text string) { tuiSend(ErrorTextMsg{Text: text}) })
	orch.Ready().Subscribe(func(r dictation.Readiness) { tuiSend(ReadyMsg{Ready: r}) })
	orch.Loading().Subscribe(func(l dictation.ModelLoading) { tuiSend(LoadingMsg{Loading: l}) })

	tuiSend(ModelLineMsg{Text: "model: " + p.Model + " @ " + p.ServerURL})
	tuiSend(DeviceLineMsg{Text: deviceLineText(selectedDevice)})

	orch.LoadSelectedModel()

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	hk := hotkey.New(combo)
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Printf("Error registering hotkey: %v\n", err)
		os.Exit(1)
	}
	defer hk.Unregister()

	dispatch := hotkey.NewDispatcher(hk, *longPressFlag)
	defer dispatch.Stop()

	for {
		select {
		case <-dispatch.Press():
			orch.HandleHotkeyPress()
		case <-dispatch.Release():
			orch.HandleHotkeyRelease()
		}
	}
}
