package ingest

import "testing"

func TestIsPrivateAddress(t *testing.T) {
	cases := []struct {
		host    string
		private bool
	}{
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.0.1", true},
		{"192.168.255.255", true},
		{"100.64.0.1", true},
		{"100.127.255.255", true},
		{"127.0.0.1", true},
		{"0.0.0.0", true},
		{"169.254.1.1", true},
		{"::1", true},
		{"fe80::1", true},
		{"::ffff:10.0.0.1", true},
		{"::ffff:192.168.1.1", true},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"203.0.113.1", false},
		{"example.com", false},
	}
	for _, tc := range cases {
		if got := isPrivateAddress(tc.host); got != tc.private {
			t.Errorf("isPrivateAddress(%q) = %v, want %v", tc.host, got, tc.private)
		}
	}
}
