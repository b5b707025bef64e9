package connectivity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestObserverEdges(t *testing.T) {
	o := NewObserver(false)
	ch, cancel := o.Subscribe()
	defer cancel()

	if o.Set(false) {
		t.Fatal("setting the same state must not report a change")
	}
	if !o.Set(true) {
		t.Fatal("expected a change on the online edge")
	}
	if !o.IsOnline() {
		t.Fatal("expected online")
	}

	select {
	case <-ch:
	default:
		t.Fatal("expected a signal after the online edge")
	}

	o.Set(false)
	select {
	case <-ch:
		t.Fatal("offline edge must not signal")
	default:
	}
}

func TestObserverCoalescesSignals(t *testing.T) {
	o := NewObserver(false)
	ch, cancel := o.Subscribe()
	defer cancel()

	for i := 0; i < 3; i++ {
		o.Set(true)
		o.Set(false)
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received != 1 {
		t.Fatalf("expected one coalesced signal, got %d", received)
	}
}

func TestObserverUnsubscribe(t *testing.T) {
	o := NewObserver(false)
	ch, cancel := o.Subscribe()
	cancel()
	cancel()

	o.Set(true)
	select {
	case <-ch:
		t.Fatal("released subscription must not be signalled")
	default:
	}
}

type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakePinger) set(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func TestProbeOnce(t *testing.T) {
	pinger := &fakePinger{err: errors.New("dial tcp: connection refused")}
	o := NewObserver(true)
	p := NewProber(pinger, o, time.Second)

	if p.ProbeOnce(context.Background()) {
		t.Fatal("expected offline after failed ping")
	}
	if o.IsOnline() {
		t.Fatal("observer should be offline")
	}

	pinger.set(nil)
	if !p.ProbeOnce(context.Background()) {
		t.Fatal("expected online after successful ping")
	}
	if !o.IsOnline() {
		t.Fatal("observer should be online")
	}
}

func TestProberRunStopsOnCancel(t *testing.T) {
	o := NewObserver(false)
	p := NewProber(&fakePinger{}, o, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for !o.IsOnline() {
		select {
		case <-deadline:
			t.Fatal("prober never marked the observer online")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
