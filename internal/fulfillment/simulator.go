package fulfillment

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"chipsms/internal/metrics"
)

// Fulfiller applies the delivered code to a purchase. A missing or already
// fulfilled purchase must be treated as a no-op by the implementation.
type Fulfiller interface {
	Fulfill(ctx context.Context, purchaseID, code string) error
	PendingPurchaseIDs(ctx context.Context) ([]string, error)
}

// Simulator stands in for the real modem gateway: each scheduled purchase
// receives a six digit code after a randomized delay. Timers are tracked per
// purchase id so they can be cancelled individually or all at once.
type Simulator struct {
	fulfiller Fulfiller
	minDelay  time.Duration
	maxDelay  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewSimulator(fulfiller Fulfiller, minDelay, maxDelay time.Duration) *Simulator {
	if minDelay <= 0 {
		minDelay = 5 * time.Second
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Simulator{
		fulfiller: fulfiller,
		minDelay:  minDelay,
		maxDelay:  maxDelay,
		timers:    make(map[string]*time.Timer),
	}
}

// Schedule arms a one-shot delivery timer for the purchase. Each purchase gets
// an independent delay, so delivery order need not match creation order.
// Scheduling the same id twice resets its timer.
func (s *Simulator) Schedule(purchaseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if timer, ok := s.timers[purchaseID]; ok {
		timer.Stop()
		delete(s.timers, purchaseID)
		metrics.PendingFulfillments.Dec()
	}
	delay := s.randomDelay()
	s.timers[purchaseID] = time.AfterFunc(delay, func() {
		s.deliver(purchaseID)
	})
	metrics.PendingFulfillments.Inc()
}

// Cancel drops the pending timer, if any. The purchase stays pending in the
// database; Recover will pick it up on the next start.
func (s *Simulator) Cancel(purchaseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer, ok := s.timers[purchaseID]
	if !ok {
		return false
	}
	timer.Stop()
	delete(s.timers, purchaseID)
	metrics.PendingFulfillments.Dec()
	return true
}

// Recover re-schedules every purchase still pending in the database. Pending
// timers do not survive a process restart, so this runs once at startup.
func (s *Simulator) Recover(ctx context.Context) error {
	ids, err := s.fulfiller.PendingPurchaseIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.Schedule(id)
	}
	if len(ids) > 0 {
		log.Printf("fulfillment: recovered %d pending purchases", len(ids))
	}
	return nil
}

// Stop cancels all pending timers. Deliveries already in flight finish.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
		metrics.PendingFulfillments.Dec()
	}
}

func (s *Simulator) deliver(purchaseID string) {
	s.mu.Lock()
	if _, ok := s.timers[purchaseID]; ok {
		delete(s.timers, purchaseID)
		metrics.PendingFulfillments.Dec()
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	code := GenerateCode()
	if err := s.fulfiller.Fulfill(ctx, purchaseID, code); err != nil {
		log.Printf("fulfillment: deliver %s failed: %v", purchaseID, err)
	}
}

func (s *Simulator) randomDelay() time.Duration {
	spread := int64(s.maxDelay - s.minDelay)
	if spread <= 0 {
		return s.minDelay
	}
	return s.minDelay + time.Duration(rand.Int63n(spread+1))
}

// GenerateCode returns a six digit numeric code, uniform over
// [100000, 999999].
func GenerateCode() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}
