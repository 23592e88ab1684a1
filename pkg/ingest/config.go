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
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultEndpoint         = "https://ingest.peekapi.com/v1/events"
	defaultFlushInterval    = 15 * time.Second
	defaultBatchSize        = 250
	defaultMaxBufferSize    = 10_000
	defaultMaxStorageBytes  = 5 * 1 << 20 // 5 MiB
	defaultMaxEventBytes    = 64 * 1 << 10 // 64 KiB
	diskRecoveryInterval    = 60 * time.Second
	maxConsecutiveFailures  = 5
	baseBackoff             = 1 * time.Second
	httpTimeout             = 5 * time.Second
	sdkLanguage             = "go"
	sdkProduct              = "peekapi"
)

// SDKVersion is the version advertised in the x-peekapi-sdk header.
const SDKVersion = "1.0.0"

// config holds the fully-resolved, immutable configuration for a Client.
// It is built by applying Options over the defaults in New.
type config struct {
	apiKey        string
	endpoint      string
	flushInterval time.Duration
	batchSize     int
	maxBufferSize int
	maxStorageBytes int64
	maxEventBytes int

	storagePath       string
	identifyConsumer  IdentifyConsumerFunc
	collectQueryString bool
	onError           func(error)
	debug             bool

	httpClient httpDoer
	store      overflowStore
}

// defaultStoragePath builds <tmpdir>/peekapi-events-<12 hex of
// SHA-256(endpoint)>.jsonl, so distinct endpoints never collide on one path.
func defaultStoragePath(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return filepath.Join(os.TempDir(), sdkProduct+"-events-"+hex.EncodeToString(sum[:])[:12]+".jsonl")
}
