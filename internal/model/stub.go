package model

import (
	"fmt"
	"math"

	"github.com/colinzyang/m6APrediction/internal/frame"
	"github.com/colinzyang/m6APrediction/internal/predict"
)

// Stub is a deterministic classifier for tests. It returns the configured
// probabilities in order, cycling when the batch is longer, and counts
// invocations so tests can assert the classifier was (or was not) called.
type Stub struct {
	Probs []float64
	Calls int
}

func (s *Stub) PredictProba(records *frame.Frame) ([]float64, error) {
	s.Calls++
	if len(s.Probs) == 0 {
		return nil, fmt.Errorf("stub has no probabilities configured")
	}
	out := make([]float64, records.Rows())
	for i := range out {
		out[i] = s.Probs[i%len(s.Probs)]
	}
	return out, nil
}

// PredictVectors lets the stub stand in for a raw-vector scorer too.
func (s *Stub) PredictVectors(rows [][]float32) ([]float64, error) {
	s.Calls++
	if len(s.Probs) == 0 {
		return nil, fmt.Errorf("stub has no probabilities configured")
	}
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = s.Probs[i%len(s.Probs)]
	}
	return out, nil
}

// FallbackMetrics counts predictions served without a real model.
type FallbackMetrics interface {
	FallbackInc()
}

// Heuristic is a model-free fallback used when no artifact or scoring
// service is configured. It combines GC content and evolutionary
// conservation into a score and squashes it to a probability. The score
// is a crude prior, not a trained model; deployments are expected to
// supply a real artifact.
type Heuristic struct {
	Metrics FallbackMetrics // optional
}

func (h Heuristic) PredictProba(records *frame.Frame) ([]float64, error) {
	gc, ok := records.Get(predict.ColGCContent)
	if !ok {
		return nil, fmt.Errorf("heuristic: %s column missing", predict.ColGCContent)
	}
	cons, ok := records.Get(predict.ColConservation)
	if !ok {
		return nil, fmt.Errorf("heuristic: %s column missing", predict.ColConservation)
	}

	out := make([]float64, records.Rows())
	for i := range out {
		score := 0.6*math.Tanh(cons.Float(i)) + 0.4*(gc.Float(i)-0.5)
		out[i] = sigmoid(score)
		if h.Metrics != nil {
			h.Metrics.FallbackInc()
		}
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
