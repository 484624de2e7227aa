// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"testing"
)

// TestValidateProfileAddr ensures profile addresses are normalized and
// validated as expected.
func TestValidateProfileAddr(t *testing.T) {
	tests := []struct {
		addr    string
		invalid bool
	}{
		{addr: "6060"},
		{addr: "127.0.0.1:6060"},
		{addr: "[::1]:6060"},
		{addr: "80", invalid: true},
		{addr: "127.0.0.1:65536", invalid: true},
		{addr: "localhost", invalid: true},
	}
	for _, test := range tests {
		err := validateProfileAddr(portToLocalHostAddr(test.addr))
		if test.invalid != (err != nil) {
			t.Errorf("%q: unexpected result %v", test.addr, err)
		}
	}
}

// TestProfileServer ensures the profile server only listens on loopback
// addresses unless allowed and that it can be stopped repeatedly.
func TestProfileServer(t *testing.T) {
	var s profileServer
	if err := s.Start("0.0.0.0:6061", false); err == nil {
		s.Stop()
		t.Fatal("listened on a non loopback address")
	}
	if err := s.Start("127.0.0.1:0", false); err == nil {
		s.Stop()
		t.Fatal("listened on a privileged port")
	}
	if s.Listener() != "" {
		t.Fatal("server reports a listener while stopped")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("unexpected error stopping idle server: %v", err)
	}
}
