// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sampleconfig houses the commented example configuration files of
// the plasma exit game utilities.
package sampleconfig

import (
	_ "embed"
)

// samplePlasmasimConf is a string containing the commented example config for
// plasmasim.
//
//go:embed sample-plasmasim.conf
var samplePlasmasimConf string

// Plasmasim returns a string containing the commented example config for
// plasmasim.
func Plasmasim() string {
	return samplePlasmasimConf
}
