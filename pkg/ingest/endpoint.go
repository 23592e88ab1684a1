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

import "net/url"

// localLoopbackHosts may use plain http; every other host must use https.
var localLoopbackHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// validateEndpoint parses and screens a caller-supplied ingest URL. It never
// performs DNS resolution: the SSRF screen only rejects IP literals, since
// the endpoint is operator-configured (not user input) and validated once at
// construction. On success it returns the input unchanged — normalization is
// cosmetic only and is never applied.
func validateEndpoint(raw string) (string, error) {
	if raw == "" {
		return "", invalidArgument("endpoint must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", newError(KindInvalidArgument, "endpoint is not a valid URL", err)
	}
	if u.Host == "" {
		return "", invalidArgument("endpoint is missing a host")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalidArgument("endpoint scheme must be http or https")
	}
	if u.User != nil {
		return "", invalidArgument("endpoint must not embed credentials")
	}

	host := u.Hostname()
	if localLoopbackHosts[host] {
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", invalidArgument("endpoint scheme must be http or https")
		}
		return raw, nil
	}

	if isPrivateAddress(host) {
		return "", invalidArgument("endpoint host resolves to a private or reserved address")
	}
	if u.Scheme != "https" {
		return "", invalidArgument("endpoint must use https unless the host is localhost/127.0.0.1/::1")
	}

	return raw, nil
}
