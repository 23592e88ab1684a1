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
	"encoding/json"
	"sort"
	"strings"
	"time"
)

const isoMilli = "2006-01-02T15:04:05.000Z07:00"

// truncateBytes cuts s to at most n bytes without attempting to respect rune
// boundaries; the wire schema only bounds serialized byte length.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// sanitizeResult is what sanitizeEvent reports back to the caller (the
// buffer push path) purely for diagnostics; it never changes control flow
// beyond admit/drop.
type sanitizeResult struct {
	event   Event
	dropped bool
	reason  string
}

// sanitizeEvent coerces, truncates, and timestamp-fills an incoming Event
// before it reaches the buffer. It never panics: malformed input (nil map,
// wrong value types) is coerced best-effort or dropped silently.
func sanitizeEvent(in Event, maxEventBytes int) sanitizeResult {
	if in == nil {
		return sanitizeResult{dropped: true, reason: "nil event"}
	}

	out := make(Event, len(in))
	for k, v := range in {
		out[k] = v
	}

	if m, ok := stringField(out[fieldMethod]); ok {
		out[fieldMethod] = truncateBytes(strings.ToUpper(m), maxMethodBytes)
	} else if _, present := out[fieldMethod]; present {
		delete(out, fieldMethod)
	}

	if p, ok := stringField(out[fieldPath]); ok {
		out[fieldPath] = truncateBytes(p, maxPathBytes)
	} else if _, present := out[fieldPath]; present {
		delete(out, fieldPath)
	}

	if c, ok := stringField(out[fieldConsumerID]); ok {
		out[fieldConsumerID] = truncateBytes(c, maxConsumerIDBytes)
	}

	if _, present := out[fieldTimestamp]; !present {
		out[fieldTimestamp] = time.Now().UTC().Format(isoMilli)
	}

	b, err := json.Marshal(out)
	if err != nil {
		return sanitizeResult{dropped: true, reason: "unserializable event"}
	}
	if len(b) <= maxEventBytes {
		return sanitizeResult{event: out}
	}

	// Over budget: metadata is first to go.
	if _, hadMetadata := out[fieldMetadata]; hadMetadata {
		delete(out, fieldMetadata)
		b, err = json.Marshal(out)
		if err == nil && len(b) <= maxEventBytes {
			return sanitizeResult{event: out}
		}
	}

	return sanitizeResult{dropped: true, reason: "event exceeds max_event_bytes"}
}

func stringField(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// appendSortedQuery appends query to path as "?" followed by "&"-joined
// key=value pairs, with keys in lexicographic order; repeated values of one
// key keep their given order. It serves callers that opt into
// CollectQueryString. Client.Path calls this before constructing the event.
func appendSortedQuery(path string, query map[string][]string) string {
	if len(query) == 0 {
		return path
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(path)
	b.WriteByte('?')
	first := true
	for _, k := range keys {
		for _, v := range query[k] {
			if !first {
				b.WriteByte('&')
			}
			first = false
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}
