// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bond tracks the size of an exit game bond and the bounty paid out
// of it.
//
// A bond can only be moved within a bounded factor of its current value and
// an update only takes effect after a waiting period.  A later update made
// before the waiting period elapses replaces the pending one.
package bond

import (
	"fmt"
	"math"
	"time"
)

const (
	// LowerBoundDivisor bounds how far a single update may lower the bond.
	// The new bond must be at least the current bond divided by it.
	LowerBoundDivisor = 2

	// UpperBoundMultiplier bounds how far a single update may raise the
	// bond.  The new bond must be at most the current bond multiplied by it.
	UpperBoundMultiplier = 2

	// WaitingPeriod is how long an update stays pending before it takes
	// effect.
	WaitingPeriod = 4 * 24 * time.Hour
)

// Size houses the state of a bond.  The zero value is not usable.  Use New.
//
// Size is not safe for concurrent access.
type Size struct {
	previousBond        uint64
	previousBounty      uint64
	updatedBond         uint64
	updatedBounty       uint64
	effectiveUpdateTime time.Time
}

// New returns a bond of the passed initial size and bounty that is in effect
// immediately.
func New(bond, bounty uint64) (*Size, error) {
	if bond == 0 {
		return nil, makeError(ErrZeroBond, "bond size must not be zero")
	}
	if bounty > bond {
		str := fmt.Sprintf("bounty %d exceeds bond %d", bounty, bond)
		return nil, makeError(ErrBountyExceedsBond, str)
	}
	return &Size{
		previousBond:   bond,
		previousBounty: bounty,
		updatedBond:    bond,
		updatedBounty:  bounty,
	}, nil
}

// isUpdated returns whether the most recent update is in effect at the
// passed time.
func (s *Size) isUpdated(now time.Time) bool {
	return !now.Before(s.effectiveUpdateTime)
}

// Bond returns the bond size in effect at the passed time.
func (s *Size) Bond(now time.Time) uint64 {
	if s.isUpdated(now) {
		return s.updatedBond
	}
	return s.previousBond
}

// Bounty returns the bounty in effect at the passed time.
func (s *Size) Bounty(now time.Time) uint64 {
	if s.isUpdated(now) {
		return s.updatedBounty
	}
	return s.previousBounty
}

// EffectiveUpdateTime returns the time the most recent update takes or took
// effect.  It is the zero time for a bond that was never updated.
func (s *Size) EffectiveUpdateTime() time.Time {
	return s.effectiveUpdateTime
}

// Update schedules a new bond and bounty that take effect once the waiting
// period has elapsed from the passed time.  The new bond is bounded relative
// to the bond in effect at the passed time.
func (s *Size) Update(newBond, newBounty uint64, now time.Time) error {
	if newBounty > newBond {
		str := fmt.Sprintf("bounty %d exceeds bond %d", newBounty, newBond)
		return makeError(ErrBountyExceedsBond, str)
	}

	current := s.Bond(now)
	if lower := current / LowerBoundDivisor; newBond < lower || newBond == 0 {
		str := fmt.Sprintf("bond %d is below the lower bound %d", newBond,
			lower)
		return makeError(ErrBondTooLow, str)
	}
	if current <= math.MaxUint64/UpperBoundMultiplier {
		upper := current * UpperBoundMultiplier
		if newBond > upper {
			str := fmt.Sprintf("bond %d is above the upper bound %d",
				newBond, upper)
			return makeError(ErrBondTooHigh, str)
		}
	}

	s.previousBond = current
	s.previousBounty = s.Bounty(now)
	s.updatedBond = newBond
	s.updatedBounty = newBounty
	s.effectiveUpdateTime = now.Add(WaitingPeriod)
	return nil
}
