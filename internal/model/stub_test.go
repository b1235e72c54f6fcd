package model

import (
	"testing"

	"github.com/colinzyang/m6APrediction/internal/frame"
	"github.com/colinzyang/m6APrediction/internal/predict"
)

func TestStubCyclesProbabilities(t *testing.T) {
	f := frame.New()
	_ = f.Set(predict.ColGCContent, frame.Numbers(0.1, 0.2, 0.3))

	stub := &Stub{Probs: []float64{0.9, 0.1}}
	probs, err := stub.PredictProba(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0.9, 0.1, 0.9}
	for i := range want {
		if probs[i] != want[i] {
			t.Errorf("prob %d = %g, want %g", i, probs[i], want[i])
		}
	}
	if stub.Calls != 1 {
		t.Errorf("calls = %d, want 1", stub.Calls)
	}
}

func TestStubUnconfiguredFails(t *testing.T) {
	stub := &Stub{}
	if _, err := stub.PredictProba(frame.New()); err == nil {
		t.Error("expected error for unconfigured stub")
	}
}

type countingFallback struct{ n int }

func (c *countingFallback) FallbackInc() { c.n++ }

func TestHeuristicDeterministicAndBounded(t *testing.T) {
	f := frame.New()
	_ = f.Set(predict.ColGCContent, frame.Numbers(0.2, 0.5, 0.8))
	_ = f.Set(predict.ColConservation, frame.Numbers(0.0, 0.5, 0.95))

	counter := &countingFallback{}
	h := Heuristic{Metrics: counter}

	first, err := h.PredictProba(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := h.PredictProba(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first {
		if first[i] < 0 || first[i] > 1 {
			t.Errorf("prob %d = %g out of [0,1]", i, first[i])
		}
		if first[i] != second[i] {
			t.Errorf("prob %d not deterministic: %g vs %g", i, first[i], second[i])
		}
	}
	// Conserved high-GC sites should score above unconserved low-GC ones.
	if first[2] <= first[0] {
		t.Errorf("expected monotone scores, got %v", first)
	}
	if counter.n != 6 {
		t.Errorf("fallback count = %d, want 6", counter.n)
	}
}

func TestHeuristicRequiresFeatureColumns(t *testing.T) {
	h := Heuristic{}
	if _, err := h.PredictProba(frame.New()); err == nil {
		t.Error("expected error for table without feature columns")
	}
}
