package observe

import (
	"sync"
	"testing"
)

func TestGetReturnsInitial(t *testing.T) {
	v := NewValue(42)
	if got := v.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}
}

func TestSetNotifiesListeners(t *testing.T) {
	v := NewValue("")
	var got []string
	v.Subscribe(func(s string) { got = append(got, s) })

	v.Set("a")
	v.Set("b")

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("listener received %v, want [a b]", got)
	}
}

func TestSubscribeDoesNotReplayCurrent(t *testing.T) {
	v := NewValue("initial")
	called := false
	v.Subscribe(func(string) { called = true })
	if called {
		t.Error("listener called at subscribe time")
	}
}

func TestCancelStopsNotifications(t *testing.T) {
	v := NewValue(0)
	count := 0
	cancel := v.Subscribe(func(int) { count++ })

	v.Set(1)
	cancel()
	v.Set(2)

	if count != 1 {
		t.Errorf("listener called %d times after cancel, want 1", count)
	}
}

func TestWatchDropsWhenFull(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Watch(1)
	defer cancel()

	v.Set(1)
	v.Set(2) // dropped, buffer full

	if got := <-ch; got != 1 {
		t.Errorf("first value = %d, want 1", got)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra value %d", extra)
	default:
	}
}

func TestConcurrentSetAndSubscribe(t *testing.T) {
	v := NewValue(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			v.Set(n)
		}(i)
		go func() {
			defer wg.Done()
			cancel := v.Subscribe(func(int) {})
			cancel()
		}()
	}
	wg.Wait()
}
