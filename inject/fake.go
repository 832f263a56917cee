package inject

import "sync"

// Fake records injected text for tests and can be scripted to fail.
type Fake struct {
	mu       sync.Mutex
	Err      error
	Injected []string
	Method   string
}

func NewFake() *Fake {
	return &Fake{Method: MethodKeyboard}
}

func (f *Fake) Inject(text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.Injected = append(f.Injected, text)
	return f.Method, nil
}

// Last returns the most recently injected text, or "".
func (f *Fake) Last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Injected) == 0 {
		return ""
	}
	return f.Injected[len(f.Injected)-1]
}
