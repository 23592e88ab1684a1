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

// overflowStore is the persistence contract behind DiskStore. It is
// backend-agnostic so the scheduler can drive either the local
// append-only JSONL file or the supplemental Redis-backed store
// (redisstore.go) identically.
type overflowStore interface {
	// Append persists one previously-batched send as a single durable
	// record. ok=false means the budget was exhausted and the batch was
	// dropped without being stored; it is not an error.
	Append(batch []Event) (ok bool, err error)

	// Recover loads previously persisted events, stopping once the
	// returned count would exceed maxEvents. It opens (or keeps open) a
	// recovery session that must be closed with ClearRecovered once the
	// loaded events have been durably flushed.
	Recover(maxEvents int) ([]Event, error)

	// ClearRecovered deletes the current recovery session, if any. It is
	// idempotent.
	ClearRecovered() error

	// BytesUsed reports current storage usage for metrics and budget
	// enforcement.
	BytesUsed() int64
}
