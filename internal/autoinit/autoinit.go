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

// Package autoinit builds a client from the process environment so that a
// host application can opt into telemetry with no code changes beyond
// importing this package. It is deliberately separate from pkg/ingest: most
// callers construct a Client explicitly with ingest.New, and should never pay
// for an env lookup they didn't ask for.
package autoinit

import (
	"os"
	"sync"

	"github.com/peekapi/sdk-go/pkg/ingest"
)

const (
	envAPIKey  = "PEEKAPI_API_KEY"
	envEndpoint = "PEEKAPI_ENDPOINT"
)

var (
	mu     sync.Mutex
	client *ingest.Client
)

// init constructs a Client from PEEKAPI_API_KEY and PEEKAPI_ENDPOINT if both
// are set, and installs its signal handlers. A missing key, a missing
// endpoint, or a construction error (e.g. an endpoint that fails validation)
// all leave Client nil; callers should treat autoinit as best-effort and
// check Client before relying on it.
func init() {
	c := buildFromEnv(os.Getenv(envAPIKey), os.Getenv(envEndpoint))
	if c == nil {
		return
	}
	c.InstallSignalHandlers()

	mu.Lock()
	client = c
	mu.Unlock()
}

// buildFromEnv is the testable core of init: given the two env values
// directly (rather than reading os.Getenv, which only ever reflects process
// state at package load), it returns nil unless both are non-empty and
// ingest.New accepts them.
func buildFromEnv(apiKey, endpoint string) *ingest.Client {
	if apiKey == "" || endpoint == "" {
		return nil
	}
	c, err := ingest.New(apiKey, ingest.WithEndpoint(endpoint))
	if err != nil {
		return nil
	}
	return c
}

// Client returns the client built at package init, or nil if auto-init did
// not run (missing env vars) or failed validation.
func Client() *ingest.Client {
	mu.Lock()
	defer mu.Unlock()
	return client
}

// Shutdown flushes and stops the auto-initialized client, if one exists. A
// host application's main is expected to defer this on startup; runtime
// finalizers are the wrong tool here since a finalizer only runs on garbage
// collection, never on normal process exit.
func Shutdown() {
	c := Client()
	if c == nil {
		return
	}
	c.Shutdown()
}
