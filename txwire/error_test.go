// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txwire

import (
	"errors"
	"io"
	"testing"
)

// TestErrorKindStringer tests the stringized output for the ErrorKind type.
func TestErrorKindStringer(t *testing.T) {
	tests := []struct {
		in   ErrorKind
		want string
	}{
		{ErrMalformedTx, "ErrMalformedTx"},
		{ErrTrailingBytes, "ErrTrailingBytes"},
		{ErrTooManyInputs, "ErrTooManyInputs"},
		{ErrTooManyOutputs, "ErrTooManyOutputs"},
		{ErrNoOutputs, "ErrNoOutputs"},
		{ErrZeroInput, "ErrZeroInput"},
		{ErrZeroTxType, "ErrZeroTxType"},
		{ErrZeroOutputType, "ErrZeroOutputType"},
		{ErrZeroOutputAmount, "ErrZeroOutputAmount"},
		{ErrNonZeroTxData, "ErrNonZeroTxData"},
		{ErrOutputIndex, "ErrOutputIndex"},
	}

	for i, test := range tests {
		result := test.in.Error()
		if result != test.want {
			t.Errorf("#%d: got: %s want: %s", i, result, test.want)
			continue
		}
	}
}

// TestErrorKindIsAs ensures both ErrorKind and Error can be identified as
// being a specific error kind via errors.Is and unwrapped via errors.As.
func TestErrorKindIsAs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
		wantAs    ErrorKind
	}{{
		name:      "ErrMalformedTx == ErrMalformedTx",
		err:       ErrMalformedTx,
		target:    ErrMalformedTx,
		wantMatch: true,
		wantAs:    ErrMalformedTx,
	}, {
		name:      "Error.ErrNoOutputs == ErrNoOutputs",
		err:       makeError(ErrNoOutputs, ""),
		target:    ErrNoOutputs,
		wantMatch: true,
		wantAs:    ErrNoOutputs,
	}, {
		name:      "ErrZeroInput != ErrZeroTxType",
		err:       ErrZeroInput,
		target:    ErrZeroTxType,
		wantMatch: false,
		wantAs:    ErrZeroInput,
	}, {
		name:      "Error.ErrTrailingBytes != io.EOF",
		err:       makeError(ErrTrailingBytes, ""),
		target:    io.EOF,
		wantMatch: false,
		wantAs:    ErrTrailingBytes,
	}}

	for _, test := range tests {
		result := errors.Is(test.err, test.target)
		if result != test.wantMatch {
			t.Errorf("%s: incorrect error identification -- got %v, want %v",
				test.name, result, test.wantMatch)
			continue
		}

		var kind ErrorKind
		if !errors.As(test.err, &kind) {
			t.Errorf("%s: unable to unwrap to error kind", test.name)
			continue
		}
		if kind != test.wantAs {
			t.Errorf("%s: unexpected unwrapped error kind -- got %v, want %v",
				test.name, kind, test.wantAs)
			continue
		}
	}
}
