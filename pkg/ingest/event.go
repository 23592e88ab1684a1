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

// Event is the wire form of a single HTTP-request observation. It is a
// plain map so that callers (middleware, auto-wiring glue) can build
// it without depending on a concrete struct, and so that unknown fields pass
// through unmolested.
type Event map[string]interface{}

const (
	fieldMethod         = "method"
	fieldPath           = "path"
	fieldStatusCode     = "status_code"
	fieldResponseTimeMs = "response_time_ms"
	fieldRequestSize    = "request_size"
	fieldResponseSize   = "response_size"
	fieldConsumerID     = "consumer_id"
	fieldTimestamp      = "timestamp"
	fieldMetadata       = "metadata"
)

const (
	maxMethodBytes     = 16
	maxPathBytes       = 2048
	maxConsumerIDBytes = 256
)
