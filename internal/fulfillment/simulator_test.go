package fulfillment

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"
)

type recordingFulfiller struct {
	mu        sync.Mutex
	delivered []string
	codes     []string
	pending   []string
	done      chan struct{}
}

func (f *recordingFulfiller) Fulfill(_ context.Context, purchaseID, code string) error {
	f.mu.Lock()
	f.delivered = append(f.delivered, purchaseID)
	f.codes = append(f.codes, code)
	f.mu.Unlock()
	if f.done != nil {
		f.done <- struct{}{}
	}
	return nil
}

func (f *recordingFulfiller) PendingPurchaseIDs(_ context.Context) ([]string, error) {
	return f.pending, nil
}

func (f *recordingFulfiller) deliveredIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.delivered...)
}

func TestGenerateCodeIsSixDigits(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := GenerateCode()
		if len(code) != 6 {
			t.Fatalf("expected 6 characters, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code is not numeric: %q", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code out of range: %d", n)
		}
	}
}

func TestScheduleDeliversAfterDelay(t *testing.T) {
	fulfiller := &recordingFulfiller{done: make(chan struct{}, 1)}
	sim := NewSimulator(fulfiller, time.Millisecond, 5*time.Millisecond)
	defer sim.Stop()

	sim.Schedule("p-1")

	select {
	case <-fulfiller.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	if ids := fulfiller.deliveredIDs(); len(ids) != 1 || ids[0] != "p-1" {
		t.Fatalf("unexpected deliveries: %#v", ids)
	}
}

func TestScheduleTwiceDeliversOnce(t *testing.T) {
	fulfiller := &recordingFulfiller{done: make(chan struct{}, 2)}
	sim := NewSimulator(fulfiller, 20*time.Millisecond, 20*time.Millisecond)
	defer sim.Stop()

	sim.Schedule("p-1")
	sim.Schedule("p-1")

	select {
	case <-fulfiller.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	time.Sleep(50 * time.Millisecond)
	if ids := fulfiller.deliveredIDs(); len(ids) != 1 {
		t.Fatalf("expected a single delivery, got %#v", ids)
	}
}

func TestCancelPreventsDelivery(t *testing.T) {
	fulfiller := &recordingFulfiller{}
	sim := NewSimulator(fulfiller, 50*time.Millisecond, 50*time.Millisecond)
	defer sim.Stop()

	sim.Schedule("p-1")
	if !sim.Cancel("p-1") {
		t.Fatal("expected cancel to find the timer")
	}
	if sim.Cancel("p-1") {
		t.Fatal("second cancel must report no timer")
	}

	time.Sleep(150 * time.Millisecond)
	if ids := fulfiller.deliveredIDs(); len(ids) != 0 {
		t.Fatalf("cancelled purchase must not deliver, got %#v", ids)
	}
}

func TestCancelUnknownPurchase(t *testing.T) {
	sim := NewSimulator(&recordingFulfiller{}, time.Millisecond, time.Millisecond)
	defer sim.Stop()
	if sim.Cancel("never-scheduled") {
		t.Fatal("expected false for unknown purchase")
	}
}

func TestRecoverSchedulesPending(t *testing.T) {
	fulfiller := &recordingFulfiller{
		pending: []string{"p-1", "p-2"},
		done:    make(chan struct{}, 2),
	}
	sim := NewSimulator(fulfiller, time.Millisecond, 5*time.Millisecond)
	defer sim.Stop()

	if err := sim.Recover(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-fulfiller.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for recovered deliveries")
		}
	}
	if ids := fulfiller.deliveredIDs(); len(ids) != 2 {
		t.Fatalf("expected both pending purchases delivered, got %#v", ids)
	}
}

func TestStopCancelsAllAndRejectsNewWork(t *testing.T) {
	fulfiller := &recordingFulfiller{}
	sim := NewSimulator(fulfiller, 50*time.Millisecond, 50*time.Millisecond)

	sim.Schedule("p-1")
	sim.Schedule("p-2")
	sim.Stop()
	sim.Schedule("p-3")

	time.Sleep(150 * time.Millisecond)
	if ids := fulfiller.deliveredIDs(); len(ids) != 0 {
		t.Fatalf("stopped simulator must not deliver, got %#v", ids)
	}
}

func TestRandomDelayWithinBounds(t *testing.T) {
	sim := NewSimulator(&recordingFulfiller{}, 5*time.Second, 15*time.Second)
	defer sim.Stop()
	for i := 0; i < 1000; i++ {
		d := sim.randomDelay()
		if d < 5*time.Second || d > 15*time.Second {
			t.Fatalf("delay out of bounds: %v", d)
		}
	}
}
