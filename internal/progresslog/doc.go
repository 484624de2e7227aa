// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package progresslog provides periodic logging for exit processing.

## Feature Overview

- Maintains cumulative totals about exits between each logging interval
  - Total number of finalized exits
  - Total number of omitted exits
  - Total number of challenged exits
- Logs all cumulative data every 10 seconds
- Immediately logs any outstanding data when forced to by the caller
*/
package progresslog
