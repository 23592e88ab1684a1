// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"math/rand"
	"sync"
	"time"
)

// boundedBuffer is a thread-safe FIFO of sanitized events with a hard size
// cap. It never grows past maxSize; a push at capacity signals the
// scheduler to flush and is otherwise dropped.
type boundedBuffer struct {
	mu        sync.Mutex
	events    []Event
	maxSize   int
	batchSize int
	closed    bool

	// wake is a capacity-1 signal channel: a send means "something changed,
	// recheck state." Flush timing never depends on which particular push
	// triggered the wake, so a dropped duplicate signal is harmless — unlike
	// a scheme carrying distinct tokens, there is nothing here a later
	// signal could clobber.
	wake chan struct{}

	// Shared scheduler state: the buffer, in_flight, consecutive_failures,
	// and backoff_until all live under the same mutex as the event slice so
	// a flush decision and its side effects happen as one atomic step.
	inFlight            bool
	consecutiveFailures int
	backoffUntil        time.Time
}

func newBoundedBuffer(maxSize, batchSize int, wake chan struct{}) *boundedBuffer {
	return &boundedBuffer{
		maxSize:   maxSize,
		batchSize: batchSize,
		wake:      wake,
	}
}

// push appends event unless the buffer is already at capacity or has been
// shut down, in which case it signals a flush (if not shut down) and drops.
// Crossing batchSize also signals a flush. Returns false when the event was
// dropped rather than admitted.
func (b *boundedBuffer) push(event Event) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	full := len(b.events) >= b.maxSize
	if !full {
		b.events = append(b.events, event)
	}
	shouldWake := full || len(b.events) >= b.batchSize
	b.mu.Unlock()

	if shouldWake {
		signal(b.wake)
	}
	return !full
}

// shutdown marks the buffer closed to further pushes. Once closed, push
// always drops: the background worker is going away (or already gone), so
// an event admitted after this point would sit in the buffer forever.
func (b *boundedBuffer) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// drain removes up to n leading elements and returns them. Callers (the
// scheduler) must not call drain again for the same logical batch while it
// is still in flight; that invariant is enforced by the scheduler's
// in_flight flag, not by boundedBuffer itself.
func (b *boundedBuffer) drain(n int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	if n > len(b.events) {
		n = len(b.events)
	}
	batch := make([]Event, n)
	copy(batch, b.events[:n])
	remaining := len(b.events) - n
	copy(b.events, b.events[n:])
	b.events = b.events[:remaining]
	return batch
}

// pushFront re-inserts events at the head, keeping only the prefix that fits
// within maxSize - current size; the rest is discarded.
func (b *boundedBuffer) pushFront(events []Event) {
	if len(events) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	space := b.maxSize - len(b.events)
	if space <= 0 {
		return
	}
	if space < len(events) {
		events = events[:space]
	}
	merged := make([]Event, 0, len(events)+len(b.events))
	merged = append(merged, events...)
	merged = append(merged, b.events...)
	b.events = merged
}

// drainAll empties the buffer and returns everything it held, for shutdown's
// final persist-to-disk path.
func (b *boundedBuffer) drainAll() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	out := b.events
	b.events = nil
	return out
}

// pushBack appends recovered events after whatever is already buffered,
// keeping only the prefix that fits: disk-persisted batches are delivered
// after any events admitted since they were persisted.
func (b *boundedBuffer) pushBack(events []Event) {
	if len(events) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	space := b.maxSize - len(b.events)
	if space <= 0 {
		return
	}
	if space < len(events) {
		events = events[:space]
	}
	b.events = append(b.events, events...)
}

func (b *boundedBuffer) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// drainBatch checks and mutates in_flight/backoff_until as a single atomic
// step: if the buffer is empty, a flush is already in flight, or now is
// inside the backoff window, no batch is started. Otherwise up to n events
// are removed and in_flight is set.
func (b *boundedBuffer) drainBatch(n int, now time.Time) ([]Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 || b.inFlight || now.Before(b.backoffUntil) {
		return nil, false
	}
	if n > len(b.events) {
		n = len(b.events)
	}
	batch := make([]Event, n)
	copy(batch, b.events[:n])
	remaining := len(b.events) - n
	copy(b.events, b.events[n:])
	b.events = b.events[:remaining]
	b.inFlight = true
	return batch, true
}

// finishSuccess resets retry state after a successful flush.
func (b *boundedBuffer) finishSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
	b.backoffUntil = time.Time{}
	b.inFlight = false
}

// finishNonRetryable clears in_flight without touching the backoff state;
// the caller is responsible for persisting the batch to disk.
func (b *boundedBuffer) finishNonRetryable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFlight = false
}

// finishRetryable handles the retry/backoff half of a failed flush. It
// returns shouldPersist=true once maxFailures consecutive failures is
// reached, in which case the caller must persist the batch to disk instead
// of re-inserting it. Otherwise backoff_until is set and the caller must
// pushFront the batch itself (this method does not call pushFront, to keep
// the critical section short and avoid recursive locking).
func (b *boundedBuffer) finishRetryable(maxFailures int, baseBackoff time.Duration) (shouldPersist bool, failures int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures++
	failures = b.consecutiveFailures
	b.inFlight = false
	if failures >= maxFailures {
		b.consecutiveFailures = 0
		return true, failures
	}
	jitter := 0.5 + rand.Float64()*0.5
	backoff := float64(baseBackoff) * pow2(failures-1) * jitter
	b.backoffUntil = now().Add(time.Duration(backoff))
	return false, failures
}

func pow2(n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= 2
	}
	return r
}

// now is a var so tests can freeze time if ever needed; production code
// always uses time.Now.
var now = time.Now

// signal posts to a capacity-1 channel without blocking. If a signal is
// already pending, this is a no-op: the receiver will recheck state from
// scratch on the next wake regardless of how many pushes asked for it.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
