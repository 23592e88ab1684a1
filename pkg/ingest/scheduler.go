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
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// flushScheduler owns the single background goroutine that drains the
// buffer, sends batches, and retries or persists failures. It runs a
// ticker-driven loop with an idempotent Stop guarded by a CAS flag, plus a
// wake signal so a full buffer or a recovered batch can pull a cycle forward
// instead of waiting out the interval.
type flushScheduler struct {
	buffer *boundedBuffer
	sender *httpSender
	store  overflowStore
	logger *zap.Logger
	onErr  func(error)

	batchSize     int
	maxBufferSize int
	flushInterval time.Duration

	wake            chan struct{}
	stopCh          chan struct{}
	stopMode        int32
	wg              sync.WaitGroup
	stopped         uint32
	recoveryPending atomic.Bool
}

const (
	stopModeGraceful int32 = iota + 1
	stopModeSync
)

func newFlushScheduler(buf *boundedBuffer, sender *httpSender, store overflowStore, logger *zap.Logger, onErr func(error), batchSize, maxBufferSize int, flushInterval time.Duration) *flushScheduler {
	return &flushScheduler{
		buffer:        buf,
		sender:        sender,
		store:         store,
		logger:        logger,
		onErr:         onErr,
		batchSize:     batchSize,
		maxBufferSize: maxBufferSize,
		flushInterval: flushInterval,
		wake:          buf.wake,
		stopCh:        make(chan struct{}),
	}
}

// Start launches the background goroutine. It is not safe to call twice.
func (s *flushScheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop signals the goroutine to perform a final flush and exit, then waits
// for it. Safe to call multiple times and from multiple goroutines; only the
// first call has effect.
func (s *flushScheduler) Stop() {
	if !atomic.CompareAndSwapUint32(&s.stopped, 0, 1) {
		return
	}
	atomic.StoreInt32(&s.stopMode, stopModeGraceful)
	close(s.stopCh)
	s.wg.Wait()
}

// StopSync is the fast-path shutdown used from signal and process-exit
// hooks: it skips the final network flush and only persists whatever is
// still buffered to the overflow store, so it cannot block on a stalled
// network call.
func (s *flushScheduler) StopSync() {
	if !atomic.CompareAndSwapUint32(&s.stopped, 0, 1) {
		return
	}
	atomic.StoreInt32(&s.stopMode, stopModeSync)
	close(s.stopCh)
	s.wg.Wait()
}

// Flush runs one synchronous drain-and-send cycle on the calling goroutine.
// If the background goroutine already has a flush in flight, drainBatch
// simply declines to start a second one; Flush then returns having done
// nothing, which keeps at most one flush in flight at a time.
func (s *flushScheduler) Flush() {
	s.cycle()
}

func (s *flushScheduler) run() {
	defer s.wg.Done()

	// Probe for previously persisted overflow immediately, not just on the
	// first recovery tick, so a freshly-constructed Client picks up events
	// left behind by a prior crash right away.
	s.recover()

	flushTimer := time.NewTimer(s.flushInterval)
	defer flushTimer.Stop()
	recoveryTimer := time.NewTimer(diskRecoveryInterval)
	defer recoveryTimer.Stop()

	for {
		select {
		case <-s.wake:
			s.cycle()
			resetTimer(flushTimer, s.flushInterval)

		case <-flushTimer.C:
			s.cycle()
			flushTimer.Reset(s.flushInterval)

		case <-recoveryTimer.C:
			s.recover()
			recoveryTimer.Reset(diskRecoveryInterval)

		case <-s.stopCh:
			if atomic.LoadInt32(&s.stopMode) == stopModeSync {
				s.persist(s.buffer.drainAll())
			} else {
				s.finalFlush()
			}
			return
		}
	}
}

// cycle drains and sends batches until the buffer is empty, a flush is
// already in flight, or a backoff window is active.
func (s *flushScheduler) cycle() {
	for {
		bufferOccupancy.Set(float64(s.buffer.size()))
		batch, started := s.buffer.drainBatch(s.batchSize, now())
		if !started {
			return
		}
		s.flushBatch(batch)
	}
}

func (s *flushScheduler) flushBatch(batch []Event) {
	flushID := uuid.NewString()
	flushAttemptsTotal.Inc()
	eventsPerBatch.Observe(float64(len(batch)))
	s.logger.Debug("flushing batch", zap.String("flush_id", flushID), zap.Int("count", len(batch)))

	ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
	result := s.sender.send(ctx, batch)
	cancel()

	switch result.outcome {
	case outcomeSuccess:
		flushSuccessTotal.Inc()
		s.buffer.finishSuccess()
		s.clearRecoveryIfPending()
		s.logger.Debug("flush succeeded", zap.String("flush_id", flushID))

	case outcomeNonRetryable:
		flushFailureTotal.WithLabelValues("non_retryable").Inc()
		s.buffer.finishNonRetryable()
		s.surfaceError(result.err)
		s.persist(batch)

	case outcomeRetryable:
		shouldPersist, failures := s.buffer.finishRetryable(maxConsecutiveFailures, baseBackoff)
		flushFailureTotal.WithLabelValues("retryable").Inc()
		s.logger.Debug("retryable flush failure",
			zap.String("flush_id", flushID),
			zap.Int("consecutive_failures", failures))
		if shouldPersist {
			s.surfaceError(result.err)
			s.persist(batch)
		} else {
			s.buffer.pushFront(batch)
		}
	}
}

// finalFlush is the graceful-shutdown path: drain everything still buffered
// and attempt to send it one batch at a time, persisting to disk whatever
// cannot be sent. Unlike cycle, it does not retry or back off — there is no
// more time left to wait.
func (s *flushScheduler) finalFlush() {
	remaining := s.buffer.drainAll()
	for len(remaining) > 0 {
		n := s.batchSize
		if n > len(remaining) {
			n = len(remaining)
		}
		batch := remaining[:n]
		remaining = remaining[n:]

		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		result := s.sender.send(ctx, batch)
		cancel()

		flushAttemptsTotal.Inc()
		if result.outcome == outcomeSuccess {
			flushSuccessTotal.Inc()
			s.clearRecoveryIfPending()
			continue
		}
		flushFailureTotal.WithLabelValues("shutdown").Inc()
		s.surfaceError(result.err)
		s.persist(batch)
	}
}

// recover reloads any previously persisted overflow, every
// diskRecoveryInterval and once at startup, and appends it behind whatever is already
// live in the buffer. The recovery session is left open until the next
// successful send clears it, so a crash between recovery and delivery
// doesn't lose the events a second time.
func (s *flushScheduler) recover() {
	if s.store == nil {
		return
	}
	events, err := s.store.Recover(s.maxBufferSize)
	if err != nil {
		s.surfaceError(newError(KindStorageFull, "failed to recover overflow store", err))
		return
	}
	if len(events) == 0 {
		return
	}
	s.buffer.pushBack(events)
	s.recoveryPending.Store(true)
	signal(s.wake)
}

// clearRecoveryIfPending deletes the current recovery session once a flush
// has actually succeeded in delivering it downstream. It is a no-op when no
// recovery is outstanding.
func (s *flushScheduler) clearRecoveryIfPending() {
	if !s.recoveryPending.CompareAndSwap(true, false) {
		return
	}
	if err := s.store.ClearRecovered(); err != nil {
		s.surfaceError(newError(KindStorageFull, "failed to clear recovered overflow session", err))
	}
}

func (s *flushScheduler) persist(batch []Event) {
	if len(batch) == 0 || s.store == nil {
		return
	}
	ok, err := s.store.Append(batch)
	if err != nil {
		s.surfaceError(newError(KindStorageFull, "failed to persist overflow batch", err))
		return
	}
	if !ok {
		for range batch {
			recordDropped("storage_full")
		}
		s.surfaceError(newError(KindStorageFull, "overflow store at capacity, batch dropped", nil))
		return
	}
	diskBytesUsed.Set(float64(s.store.BytesUsed()))
}

// surfaceError invokes the user's OnError callback, recovering any panic it
// raises so a misbehaving callback can never bring down the background
// goroutine.
func (s *flushScheduler) surfaceError(err error) {
	if s.onErr == nil || err == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("on_error callback panicked", zap.Any("panic", r))
		}
	}()
	s.onErr(err)
}

// resetTimer drains a fired-or-not timer before resetting it, the documented
// safe pattern for reusing a time.Timer from a select loop.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
