// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package framework

import (
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/plasma"
)

// FlagOutputsFinalized records that the passed outputs were finalized by the
// exit with the passed id.  Either all outputs are flagged or, when any of
// them is already finalized, none is.  Only registered exit games that are
// not quarantined may flag outputs.
func (f *Framework) FlagOutputsFinalized(caller ExitGame, outputIDs []chainhash.Hash, exitID *uint256.Uint256) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	if err := f.checkExitGame(caller); err != nil {
		return err
	}
	for i := range outputIDs {
		outputID := &outputIDs[i]
		if *outputID == (chainhash.Hash{}) {
			return ruleError(ErrZeroOutputID, "output id must not be zero")
		}
		if by, ok := f.finalizations[*outputID]; ok {
			str := fmt.Sprintf("output %s is already finalized by exit %x",
				plasma.HashHex(outputID), by.Bytes())
			return ruleError(ErrOutputFinalized, str)
		}
	}
	for i := range outputIDs {
		f.finalizations[outputIDs[i]] = *exitID
	}
	return nil
}

// FlagOutputFinalized records that the passed output was finalized by the
// exit with the passed id.
func (f *Framework) FlagOutputFinalized(caller ExitGame, outputID *chainhash.Hash, exitID *uint256.Uint256) error {
	return f.FlagOutputsFinalized(caller, []chainhash.Hash{*outputID}, exitID)
}

// UnflagOutputsFinalized removes the finalization of the passed outputs
// recorded for the exit with the passed id.  Exit games use it to roll back
// a flag when paying out the exit fails afterwards.  Outputs finalized by
// another exit, or not finalized at all, are left untouched.
func (f *Framework) UnflagOutputsFinalized(caller ExitGame, outputIDs []chainhash.Hash, exitID *uint256.Uint256) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	if err := f.checkExitGame(caller); err != nil {
		return err
	}
	for i := range outputIDs {
		if by, ok := f.finalizations[outputIDs[i]]; ok && by.Eq(exitID) {
			delete(f.finalizations, outputIDs[i])
		}
	}
	return nil
}

// IsOutputFinalized returns whether the passed output was finalized by any
// exit.
//
// This function is safe for concurrent access.
func (f *Framework) IsOutputFinalized(outputID *chainhash.Hash) bool {
	_, ok := f.OutputFinalization(outputID)
	return ok
}

// OutputFinalization returns the id of the exit that finalized the passed
// output.  The boolean is false when the output was not finalized.
//
// This function is safe for concurrent access.
func (f *Framework) OutputFinalization(outputID *chainhash.Hash) (uint256.Uint256, bool) {
	f.mtx.Lock()
	exitID, ok := f.finalizations[*outputID]
	f.mtx.Unlock()
	return exitID, ok
}
