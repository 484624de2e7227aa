// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package progresslog

import (
	"sync"
	"time"

	"github.com/decred/slog"
)

// logInterval is the minimum time between two unforced progress messages.
const logInterval = 10 * time.Second

// Outcome identifies how an exit left the system.
type Outcome uint8

const (
	// OutcomeFinalized indicates the exit paid out its funds.
	OutcomeFinalized Outcome = iota

	// OutcomeOmitted indicates the exit was dequeued without paying out.
	OutcomeOmitted

	// OutcomeChallenged indicates the exit was successfully challenged.
	OutcomeChallenged
)

// pickNoun returns the singular or plural form of a noun depending on the
// provided count.
func pickNoun(n uint64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// Logger provides periodic logging of the exits leaving the system.
type Logger struct {
	sync.Mutex
	subsystemLogger slog.Logger
	progressAction  string

	// lastLogTime tracks the last time a log statement was shown.
	lastLogTime time.Time

	// These fields accumulate information about exits between log
	// statements.
	finalized  uint64
	omitted    uint64
	challenged uint64
}

// New returns a new exit progress logger.
func New(progressAction string, logger slog.Logger) *Logger {
	return &Logger{
		lastLogTime:     time.Now(),
		progressAction:  progressAction,
		subsystemLogger: logger,
	}
}

// LogExit accumulates the outcome of an exit and periodically (every 10
// seconds) logs an information message with the totals since the previous
// message.
//
// The force flag may be used to force a log message to be shown regardless of
// the time the last one was shown.
//
// The progress message is templated as follows:
//  {progressAction} {numExits} {exits|exit} in the last {timePeriod}
//  ({numFinalized} finalized, {numOmitted} omitted, {numChallenged}
//  challenged)
func (l *Logger) LogExit(outcome Outcome, forceLog bool) {
	l.Lock()
	defer l.Unlock()

	switch outcome {
	case OutcomeFinalized:
		l.finalized++
	case OutcomeOmitted:
		l.omitted++
	case OutcomeChallenged:
		l.challenged++
	}
	l.logLocked(forceLog)
}

// Flush logs any outstanding totals.
func (l *Logger) Flush() {
	l.Lock()
	if l.finalized+l.omitted+l.challenged > 0 {
		l.logLocked(true)
	}
	l.Unlock()
}

// logLocked shows the accumulated totals when forced to or when the log
// interval elapsed and then resets them.
//
// This function MUST be called with the embedded mutex held.
func (l *Logger) logLocked(forceLog bool) {
	now := time.Now()
	duration := now.Sub(l.lastLogTime)
	if !forceLog && duration < logInterval {
		return
	}

	total := l.finalized + l.omitted + l.challenged
	l.subsystemLogger.Infof("%s %d %s in the last %0.2fs (%d finalized, "+
		"%d omitted, %d challenged)", l.progressAction, total,
		pickNoun(total, "exit", "exits"), duration.Seconds(), l.finalized,
		l.omitted, l.challenged)

	l.finalized = 0
	l.omitted = 0
	l.challenged = 0
	l.lastLogTime = now
}

// SetLastLogTime updates the last time data was logged to the provided time.
func (l *Logger) SetLastLogTime(time time.Time) {
	l.Lock()
	l.lastLogTime = time
	l.Unlock()
}
