// Package seq encodes fixed-length nucleotide windows into per-position
// categorical columns for classifier input.
package seq

import (
	"errors"
	"fmt"

	"github.com/colinzyang/m6APrediction/internal/frame"
)

// Alphabet is the nucleotide level set in its fixed training order.
// Characters outside the alphabet encode as missing, not as errors.
var Alphabet = []string{"A", "T", "C", "G"}

// InvalidSequenceLengthError reports a sequence whose length differs from
// the first sequence in the batch. The batch length is defined by the
// first sequence; mis-splitting silently would corrupt the positional
// columns, so this is a hard failure.
type InvalidSequenceLengthError struct {
	Index int // offending sequence, 0-based
	Want  int
	Got   int
}

func (e *InvalidSequenceLengthError) Error() string {
	return fmt.Sprintf("seq: sequence %d has length %d, batch length is %d", e.Index, e.Got, e.Want)
}

// PositionColumn names the encoded column for a 1-based window position.
func PositionColumn(pos int) string {
	return fmt.Sprintf("position_%d", pos)
}

// Encode splits each sequence into single-nucleotide tokens and returns a
// frame with one row per sequence and one categorical column per window
// position, named position_1..position_N. N is taken from the first
// sequence; every sequence must share it.
func Encode(sequences []string) (*frame.Frame, error) {
	if len(sequences) == 0 {
		return nil, errors.New("seq: no sequences to encode")
	}
	n := len(sequences[0])
	for i, s := range sequences[1:] {
		if len(s) != n {
			return nil, &InvalidSequenceLengthError{Index: i + 1, Want: n, Got: len(s)}
		}
	}

	f := frame.New()
	for pos := 0; pos < n; pos++ {
		values := make([]string, len(sequences))
		for row, s := range sequences {
			values[row] = string(s[pos])
		}
		if err := f.Set(PositionColumn(pos+1), frame.Factor(values, Alphabet)); err != nil {
			return nil, err
		}
	}
	return f, nil
}
