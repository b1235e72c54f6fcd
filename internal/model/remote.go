package model

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/colinzyang/m6APrediction/internal/frame"
)

// Remote scores feature tables against an HTTP scoring service speaking
// the raw-vector protocol served at POST /proba.
type Remote struct {
	base string
	rest *resty.Client
}

type probaRequest struct {
	Rows [][]float32 `json:"rows"`
}

type probaResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
}

// NewRemote creates a scoring client for the given base URL.
func NewRemote(base string, timeout time.Duration) *Remote {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Remote{base: base, rest: r}
}

// PredictProba sends the vectorized rows to the scoring service and
// returns the positive-class probabilities.
func (r *Remote) PredictProba(records *frame.Frame) ([]float64, error) {
	rows, err := Vectorize(records)
	if err != nil {
		return nil, err
	}

	resp := &probaResponse{}
	httpResp, err := r.rest.R().
		SetBody(probaRequest{Rows: rows}).
		SetResult(resp).
		Post(r.base + "/proba")
	if err != nil {
		return nil, fmt.Errorf("scoring service request: %w", err)
	}
	if httpResp.IsError() {
		return nil, fmt.Errorf("scoring service: HTTP %d", httpResp.StatusCode())
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("scoring service: %s", resp.Error)
	}
	if len(resp.Probabilities) != len(rows) {
		return nil, fmt.Errorf("scoring service returned %d probabilities for %d rows", len(resp.Probabilities), len(rows))
	}
	return resp.Probabilities, nil
}
