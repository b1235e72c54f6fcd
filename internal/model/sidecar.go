package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colinzyang/m6APrediction/internal/frame"
)

// MetricsInterface defines the metrics methods the classifiers report to.
type MetricsInterface interface {
	PredictionsInc()
	FailuresInc()
	TimeoutsInc()
	LatencyObserve(float64)
	ScoreObserve(float64)
	ModelAgeSet(float64)
}

// Sidecar runs the pre-trained ONNX classifier out of process: feature
// rows go to a Python helper as JSON on stdin, positive-class
// probabilities come back as JSON on stdout. The model artifact itself is
// never parsed here.
type Sidecar struct {
	modelPath  string
	pythonPath string
	scriptPath string
	timeout    time.Duration
	metrics    MetricsInterface

	mu       sync.Mutex
	lastUsed time.Time
}

type sidecarRequest struct {
	Rows [][]float32 `json:"rows"`
}

type sidecarResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
}

// NewSidecar prepares an out-of-process classifier for the given model
// artifact. It locates a Python 3 interpreter and materializes the
// embedded inference script next to the model when no script is present.
func NewSidecar(modelPath string, metrics MetricsInterface, timeout time.Duration) (*Sidecar, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", modelPath, err)
	}

	pythonPath, err := findPython()
	if err != nil {
		return nil, err
	}

	scriptPath := filepath.Join(filepath.Dir(modelPath), "onnx_batch_inference.py")
	if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
		if err := writeInferenceScript(scriptPath); err != nil {
			return nil, fmt.Errorf("create inference script: %w", err)
		}
	}

	s := &Sidecar{
		modelPath:  modelPath,
		pythonPath: pythonPath,
		scriptPath: scriptPath,
		timeout:    timeout,
		metrics:    metrics,
	}

	if metrics != nil {
		if info, err := os.Stat(modelPath); err == nil {
			metrics.ModelAgeSet(time.Since(info.ModTime()).Seconds())
		}
	}

	log.Info().Str("model_path", modelPath).Str("python_path", pythonPath).Msg("ONNX sidecar ready")
	return s, nil
}

// PredictProba scores the prepared table in one sidecar invocation.
func (s *Sidecar) PredictProba(records *frame.Frame) ([]float64, error) {
	rows, err := Vectorize(records)
	if err != nil {
		return nil, err
	}
	return s.PredictVectors(rows)
}

// PredictVectors scores already-vectorized feature rows.
func (s *Sidecar) PredictVectors(rows [][]float32) ([]float64, error) {
	start := time.Now()
	s.mu.Lock()
	defer func() {
		s.lastUsed = time.Now()
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.LatencyObserve(time.Since(start).Seconds())
		}
	}()

	probs, err := s.invoke(rows)
	if err != nil {
		if s.metrics != nil {
			s.metrics.FailuresInc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PredictionsInc()
		for _, p := range probs {
			s.metrics.ScoreObserve(p)
		}
	}
	return probs, nil
}

func (s *Sidecar) invoke(rows [][]float32) ([]float64, error) {
	reqJSON, err := json.Marshal(sidecarRequest{Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("marshal sidecar request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.pythonPath, s.scriptPath, s.modelPath)
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Error().
			Err(err).
			Str("python_path", s.pythonPath).
			Str("script_path", s.scriptPath).
			Str("model_path", s.modelPath).
			Str("stderr", stderr.String()).
			Int("rows", len(rows)).
			Msg("sidecar inference failed")

		if ctx.Err() == context.DeadlineExceeded {
			if s.metrics != nil {
				s.metrics.TimeoutsInc()
			}
			return nil, fmt.Errorf("sidecar inference timeout after %v", s.timeout)
		}
		if strings.Contains(stderr.String(), "onnxruntime not installed") {
			return nil, fmt.Errorf("onnxruntime missing in sidecar environment: %w", err)
		}
		return nil, fmt.Errorf("sidecar inference failed: %w, stderr: %s", err, stderr.String())
	}

	var resp sidecarResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("parse sidecar response: %w, stdout: %s", err, stdout.String())
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("sidecar inference error: %s", resp.Error)
	}
	if len(resp.Probabilities) != len(rows) {
		return nil, fmt.Errorf("sidecar returned %d probabilities for %d rows", len(resp.Probabilities), len(rows))
	}
	return resp.Probabilities, nil
}

func findPython() (string, error) {
	if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
		candidates := []string{
			filepath.Join(venv, "bin", "python3"),
			filepath.Join(venv, "bin", "python"),
			filepath.Join(venv, "Scripts", "python.exe"),
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				return c, nil
			}
		}
	}

	for _, candidate := range []string{"python3", "python"} {
		path, err := exec.LookPath(candidate)
		if err != nil {
			continue
		}
		cmd := exec.Command(path, "-c", "import sys; exit(0 if sys.version_info[0] == 3 else 1)")
		if err := cmd.Run(); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no Python 3 interpreter found for the ONNX sidecar")
}

func writeInferenceScript(scriptPath string) error {
	script := `#!/usr/bin/env python3
"""Batch ONNX inference helper for the m6A prediction pipeline."""
import sys
import json
import numpy as np

try:
    import onnxruntime as ort
except ImportError:
    print(json.dumps({"error": "onnxruntime not installed"}))
    sys.exit(1)


def main():
    if len(sys.argv) != 2:
        print(json.dumps({"error": "usage: onnx_batch_inference.py <model_path>"}))
        sys.exit(1)

    try:
        request = json.load(sys.stdin)
        rows = np.array(request["rows"], dtype=np.float32)

        session = ort.InferenceSession(sys.argv[1])
        input_name = session.get_inputs()[0].name
        outputs = session.run(None, {input_name: rows})

        if len(outputs) == 2:
            # sklearn converters emit [labels, probabilities]
            probs = outputs[1]
        else:
            probs = outputs[0]
        probs = np.asarray(probs)
        if probs.ndim == 2 and probs.shape[1] == 2:
            positive = probs[:, 1]
        else:
            positive = probs.reshape(-1)

        print(json.dumps({"probabilities": [float(p) for p in positive]}))
    except Exception as e:
        print(json.dumps({"error": str(e)}))
        sys.exit(1)


if __name__ == "__main__":
    main()
`
	return os.WriteFile(scriptPath, []byte(script), 0o755)
}
