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

import "net"

// privateV4Blocks are the IPv4 ranges screened out of the ingest endpoint to
// guard against SSRF: an operator-supplied endpoint whose host is literally
// written as a loopback, link-local, or RFC1918/CGN address.
var privateV4Blocks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"0.0.0.0/8",
)

var privateV6Blocks = mustParseCIDRs(
	"::1/128",
	"fe80::/10",
	"fc00::/7",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic("ingest: invalid literal CIDR " + c)
		}
		nets = append(nets, n)
	}
	return nets
}

// isPrivateAddress reports whether host parses as an IP literal that falls
// inside a private/reserved range (IPv4 or IPv6, including v4-mapped IPv6).
// DNS names and malformed literals are never resolved; they return false.
func isPrivateAddress(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	if v4 := ip.To4(); v4 != nil {
		for _, n := range privateV4Blocks {
			if n.Contains(v4) {
				return true
			}
		}
		return false
	}
	for _, n := range privateV6Blocks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
