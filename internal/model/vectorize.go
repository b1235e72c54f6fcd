// Package model provides classifier implementations for the prediction
// pipeline: an out-of-process ONNX sidecar, a remote scoring client, and
// deterministic stand-ins for tests and degraded operation.
package model

import (
	"fmt"

	"github.com/colinzyang/m6APrediction/internal/frame"
	"github.com/colinzyang/m6APrediction/internal/predict"
	"github.com/colinzyang/m6APrediction/internal/seq"
)

// Vectorize flattens a prepared feature table into per-row float vectors
// in canonical schema order: the six scalar features followed by the
// positional nucleotide columns. Categorical values use their level code,
// with -1 for missing, matching the ordinal encoding the model was
// trained against. The raw DNA_5mer string column is represented by the
// positional columns and is not emitted.
func Vectorize(records *frame.Frame) ([][]float32, error) {
	order := []string{
		predict.ColGCContent,
		predict.ColRNAType,
		predict.ColRNARegion,
		predict.ColExonLength,
		predict.ColDistanceToJunction,
		predict.ColConservation,
	}
	for pos := 1; records.Has(seq.PositionColumn(pos)); pos++ {
		order = append(order, seq.PositionColumn(pos))
	}

	rows := records.Rows()
	out := make([][]float32, rows)
	for i := range out {
		out[i] = make([]float32, 0, len(order))
	}

	for _, name := range order {
		col, ok := records.Get(name)
		if !ok {
			return nil, fmt.Errorf("model: column %s not present in prepared table", name)
		}
		for i := 0; i < rows; i++ {
			switch col.Kind() {
			case frame.Numeric:
				out[i] = append(out[i], float32(col.Float(i)))
			case frame.Categorical:
				out[i] = append(out[i], float32(col.Code(i)))
			default:
				return nil, fmt.Errorf("model: column %s has no numeric representation", name)
			}
		}
	}
	return out, nil
}
