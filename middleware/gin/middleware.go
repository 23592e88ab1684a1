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

// Package ginmiddleware wires a peekapi ingest.Client into a gin.Engine,
// recording one Event per request.
package ginmiddleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/peekapi/sdk-go/pkg/ingest"
)

// tracker is the slice of *ingest.Client this middleware depends on, kept
// narrow so tests can supply a fake.
type tracker interface {
	Track(event ingest.Event)
	IdentifyConsumer(headers map[string]string) (string, bool)
	Path(path string, query map[string][]string) string
}

// New returns a gin.HandlerFunc that times each request and tracks it on
// client: capture start, call c.Next(), then report. A handler panic is
// tracked as status 500 with a zero response size before being re-raised
// unchanged, so gin's own recovery middleware still sees and handles it.
func New(client tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := client.Path(c.Request.URL.Path, map[string][]string(c.Request.URL.Query()))
		headers := lowerHeaders(c.Request.Header)

		defer func() {
			if r := recover(); r != nil {
				track(client, headers, method, path, http.StatusInternalServerError, 0, c.Request.ContentLength, start)
				panic(r)
			}
		}()

		c.Next()

		track(client, headers, method, path, c.Writer.Status(), int64(c.Writer.Size()), c.Request.ContentLength, start)
	}
}

func track(client tracker, headers map[string]string, method, path string, statusCode int, responseSize, requestSize int64, start time.Time) {
	event := ingest.Event{
		"method":           method,
		"path":             path,
		"status_code":      statusCode,
		"response_time_ms": time.Since(start).Milliseconds(),
		"request_size":     requestSize,
		"response_size":    responseSize,
	}
	if consumerID, ok := client.IdentifyConsumer(headers); ok {
		event["consumer_id"] = consumerID
	}
	client.Track(event)
}

// lowerHeaders flattens http.Header into the map[string]string form
// IdentifyConsumerFunc expects, lowercasing keys and keeping the first value
// of any repeated header.
func lowerHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) == 0 {
			continue
		}
		out[strings.ToLower(k)] = v[0]
	}
	return out
}
