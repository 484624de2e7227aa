// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package limits adjusts runtime resource limits of the plasma exit game
// utilities.
package limits

import (
	"math"
	"runtime/debug"
)

// bytesPerMiB is the number of bytes in a mebibyte.
const bytesPerMiB = 1 << 20

// SetMemoryLimitMiB configures the runtime to use the provided number of
// mebibytes as a soft memory limit and returns the previous limit in bytes.
// A limit of zero leaves the current limit in place.  Limits that do not fit
// in the runtime representation remove the limit.
func SetMemoryLimitMiB(limitMiB uint64) int64 {
	if limitMiB == 0 {
		return debug.SetMemoryLimit(-1)
	}
	if limitMiB > math.MaxInt64/bytesPerMiB {
		return debug.SetMemoryLimit(math.MaxInt64)
	}
	return debug.SetMemoryLimit(int64(limitMiB * bytesPerMiB))
}
