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

// Package ingest is a lightweight client for batching and delivering HTTP
// request telemetry to a peekapi ingest endpoint. Events are sanitized and
// buffered in memory, flushed on a timer or when the buffer fills, and
// overflow to disk when the endpoint cannot keep up.
package ingest

import (
	"net/http"
	"strings"
)

// Client batches and delivers events to a peekapi ingest endpoint. A Client
// owns exactly one background goroutine (the flushScheduler); construct one
// per process, not one per request.
type Client struct {
	cfg       config
	buffer    *boundedBuffer
	scheduler *flushScheduler
}

// New constructs a Client and starts its background flush loop. Construction
// fails synchronously (KindInvalidArgument) for a missing or malformed API
// key, or an endpoint that fails validateEndpoint.
func New(apiKey string, opts ...Option) (*Client, error) {
	if err := validateAPIKey(apiKey); err != nil {
		return nil, err
	}

	cfg := config{
		apiKey:             apiKey,
		endpoint:           defaultEndpoint,
		flushInterval:      defaultFlushInterval,
		batchSize:          defaultBatchSize,
		maxBufferSize:      defaultMaxBufferSize,
		maxStorageBytes:    defaultMaxStorageBytes,
		maxEventBytes:      defaultMaxEventBytes,
		identifyConsumer:   defaultIdentifyConsumer,
		collectQueryString: false,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	endpoint, err := validateEndpoint(cfg.endpoint)
	if err != nil {
		return nil, err
	}
	cfg.endpoint = endpoint

	if cfg.storagePath == "" {
		cfg.storagePath = defaultStoragePath(cfg.endpoint)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: httpTimeout}
	}
	if cfg.store == nil {
		cfg.store = newDiskStore(cfg.storagePath, cfg.maxStorageBytes)
	}

	wake := make(chan struct{}, 1)
	buf := newBoundedBuffer(cfg.maxBufferSize, cfg.batchSize, wake)
	sender := newHTTPSender(cfg.httpClient, cfg.endpoint, cfg.apiKey)
	logger := newDiagnosticsLogger(cfg.debug)
	sched := newFlushScheduler(buf, sender, cfg.store, logger, cfg.onError, cfg.batchSize, cfg.maxBufferSize, cfg.flushInterval)
	sched.Start()

	return &Client{cfg: cfg, buffer: buf, scheduler: sched}, nil
}

// Track sanitizes event and admits it to the buffer. It never blocks and
// never panics: a nil, oversized, or unserializable event is dropped and
// counted. A buffer at capacity drops the event and wakes the scheduler to
// flush sooner.
func (c *Client) Track(event Event) {
	result := sanitizeEvent(event, c.cfg.maxEventBytes)
	if result.dropped {
		recordDropped(result.reason)
		return
	}
	if !c.buffer.push(result.event) {
		recordDropped("buffer_full")
	}
}

// Flush synchronously drains and sends whatever is currently buffered. It
// does not wait for in-flight backoff windows to expire.
func (c *Client) Flush() {
	c.scheduler.Flush()
}

// Shutdown performs a graceful stop: the background goroutine drains the
// buffer and attempts to send everything once, persisting to disk whatever
// cannot be sent, then returns. Safe to call more than once. A Track call
// that races with or follows Shutdown has no effect: the buffer is closed to
// further pushes first, so nothing can be admitted after the worker has
// stopped draining it.
func (c *Client) Shutdown() {
	c.buffer.shutdown()
	c.scheduler.Stop()
}

// ShutdownSync performs the fast-path stop used from signal handlers and
// process-exit hooks: it skips the network entirely and persists whatever is
// buffered to disk, so it cannot hang the process on a stalled connection.
// Like Shutdown, it closes the buffer to further pushes first.
func (c *Client) ShutdownSync() {
	c.buffer.shutdown()
	c.scheduler.StopSync()
}

// IdentifyConsumer derives a consumer id from the supplied headers using the
// client's configured policy, for callers (e.g. the gin middleware) building
// an Event outside of Track's normal path.
func (c *Client) IdentifyConsumer(headers map[string]string) (string, bool) {
	return c.cfg.identifyConsumer(headers)
}

// Path renders a request path for an Event, appending a sorted query string
// when this client is configured to collect one. Collaborators that build
// their own Event (e.g. the gin middleware) should call this instead of
// duplicating the CollectQueryString policy.
func (c *Client) Path(path string, query map[string][]string) string {
	if !c.cfg.collectQueryString {
		return path
	}
	return appendSortedQuery(path, query)
}

// validateAPIKey rejects an empty key or one containing control characters,
// which would otherwise be silently mangled by the HTTP header encoder.
func validateAPIKey(key string) error {
	if key == "" {
		return invalidArgument("api key must not be empty")
	}
	if strings.IndexFunc(key, isControlByte) >= 0 {
		return invalidArgument("api key must not contain control characters")
	}
	return nil
}

func isControlByte(r rune) bool {
	return r < 0x20 || r == 0x7f
}
