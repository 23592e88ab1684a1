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

import "time"

// Option configures a Client at construction time.
type Option func(*config)

// WithEndpoint overrides the provider default ingest URL. Screened by
// validateEndpoint; immutable once New returns.
func WithEndpoint(endpoint string) Option {
	return func(c *config) { c.endpoint = endpoint }
}

// WithFlushInterval sets the maximum time between flushes.
func WithFlushInterval(d time.Duration) Option {
	return func(c *config) { c.flushInterval = d }
}

// WithBatchSize sets the max events per POST and the fill-trigger threshold.
func WithBatchSize(n int) Option {
	return func(c *config) { c.batchSize = n }
}

// WithMaxBufferSize sets the hard cap on in-memory events.
func WithMaxBufferSize(n int) Option {
	return func(c *config) { c.maxBufferSize = n }
}

// WithMaxStorageBytes sets the hard cap on on-disk overflow.
func WithMaxStorageBytes(n int64) Option {
	return func(c *config) { c.maxStorageBytes = n }
}

// WithMaxEventBytes sets the per-event serialized ceiling.
func WithMaxEventBytes(n int) Option {
	return func(c *config) { c.maxEventBytes = n }
}

// WithStoragePath overrides the overflow file location.
func WithStoragePath(path string) Option {
	return func(c *config) { c.storagePath = path }
}

// WithIdentifyConsumer overrides the default consumer-id derivation policy.
// The supplied function's result is used unmodified, subject to later
// truncation in the sanitizer.
func WithIdentifyConsumer(fn IdentifyConsumerFunc) Option {
	return func(c *config) { c.identifyConsumer = fn }
}

// WithCollectQueryString enables appending a sorted query string to path.
func WithCollectQueryString(enabled bool) Option {
	return func(c *config) { c.collectQueryString = enabled }
}

// WithOnError registers a callback invoked with each surfaced failure.
// Panics raised by the callback are recovered and swallowed.
func WithOnError(fn func(error)) Option {
	return func(c *config) { c.onError = fn }
}

// WithDebug enables diagnostic logging to stderr via zap.
func WithDebug(enabled bool) Option {
	return func(c *config) { c.debug = enabled }
}

// WithHTTPClient overrides the HTTP sender's transport. Intended for tests;
// production callers should rely on the built-in timeouts.
func WithHTTPClient(client httpDoer) Option {
	return func(c *config) { c.httpClient = client }
}

// WithStore overrides the overflow persistence backend. By default a local
// DiskStore is used; NewRedisStore (redisstore.go) builds a supplemental
// alternative for read-only-filesystem deployments.
func WithStore(store overflowStore) Option {
	return func(c *config) { c.store = store }
}
