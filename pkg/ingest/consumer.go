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
)

// IdentifyConsumerFunc derives a consumer id from a request's lowercased
// headers. A false second return means no consumer could be identified.
type IdentifyConsumerFunc func(headers map[string]string) (string, bool)

// defaultIdentifyConsumer implements the default policy:
//  1. x-api-key present and non-empty -> returned verbatim.
//  2. else authorization present and non-empty -> "hash_" + first 12 hex
//     digits of SHA-256(value).
//  3. else -> absent.
func defaultIdentifyConsumer(headers map[string]string) (string, bool) {
	if v := headers["x-api-key"]; v != "" {
		return v, true
	}
	if v := headers["authorization"]; v != "" {
		sum := sha256.Sum256([]byte(v))
		return "hash_" + hex.EncodeToString(sum[:])[:12], true
	}
	return "", false
}
