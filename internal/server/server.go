// Package server exposes the prediction pipeline as an HTTP API with a
// websocket endpoint for streaming single-site scoring.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/colinzyang/m6APrediction/internal/frame"
	"github.com/colinzyang/m6APrediction/internal/metrics"
	"github.com/colinzyang/m6APrediction/internal/predict"
	"github.com/colinzyang/m6APrediction/internal/report"
	"github.com/colinzyang/m6APrediction/internal/seq"
	"github.com/colinzyang/m6APrediction/internal/storage"
)

// VectorScorer is implemented by classifiers that can score raw feature
// vectors directly, bypassing table preparation. Used by the /proba
// endpoint that remote pipeline instances call.
type VectorScorer interface {
	PredictVectors(rows [][]float32) ([]float64, error)
}

// Server wires the pipeline, classifier, metrics, and optional store
// behind an HTTP API.
type Server struct {
	classifier predict.Classifier
	threshold  float64
	metrics    *metrics.Metrics
	store      *storage.Store
	reporter   *report.Reporter
	upgrader   websocket.Upgrader
	server     *http.Server
}

// New builds a scoring server. store may be nil to disable persistence,
// reporter may be nil to disable batch reports, m may be nil to disable
// metrics accounting.
func New(classifier predict.Classifier, threshold float64, m *metrics.Metrics, store *storage.Store, reporter *report.Reporter, port int) *Server {
	s := &Server{
		classifier: classifier,
		threshold:  threshold,
		metrics:    m,
		store:      store,
		reporter:   reporter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/predict/batch", s.handlePredictBatch)
	mux.HandleFunc("/proba", s.handleProba)
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting scoring server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// SiteRequest is one candidate site to score. Threshold overrides the
// server default when present.
type SiteRequest struct {
	SiteID             string   `json:"site_id,omitempty"`
	GCContent          float64  `json:"gc_content"`
	RNAType            string   `json:"RNA_type"`
	RNARegion          string   `json:"RNA_region"`
	ExonLength         float64  `json:"exon_length"`
	DistanceToJunction float64  `json:"distance_to_junction"`
	Conservation       float64  `json:"evolutionary_conservation"`
	DNA5mer            string   `json:"DNA_5mer"`
	Threshold          *float64 `json:"threshold,omitempty"`
}

// SiteResponse is the scored result for one site.
type SiteResponse struct {
	SiteID string  `json:"site_id,omitempty"`
	Prob   float64 `json:"predicted_m6A_prob"`
	Status string  `json:"predicted_m6A_status"`
}

type errorResponse struct {
	Error          string   `json:"error"`
	MissingColumns []string `json:"missing_columns,omitempty"`
}

// BatchRequest carries a column-oriented feature table. Numeric columns
// are JSON number arrays, categorical and sequence columns string arrays.
type BatchRequest struct {
	Columns   map[string]json.RawMessage `json:"columns"`
	Threshold *float64                   `json:"threshold,omitempty"`
}

// BatchResponse returns the derived columns in input row order.
type BatchResponse struct {
	Probs    []float64 `json:"predicted_m6A_prob"`
	Statuses []string  `json:"predicted_m6A_status"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	resp, err := s.scoreSite(req)
	if err != nil {
		s.writePredictionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	records, err := frameFromColumns(req.Columns)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	threshold := s.threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	scored, err := predict.PredictBatch(s.classifier, records, threshold)
	if err != nil {
		s.writePredictionError(w, err)
		return
	}
	s.observeBatch(scored)

	if s.reporter != nil {
		if err := s.reporter.Write(scored); err != nil {
			log.Warn().Err(err).Msg("failed to write batch report")
		}
	}

	probCol, _ := scored.Get(predict.ColProb)
	statusCol, _ := scored.Get(predict.ColStatus)
	resp := BatchResponse{
		Probs:    make([]float64, scored.Rows()),
		Statuses: make([]string, scored.Rows()),
	}
	for i := 0; i < scored.Rows(); i++ {
		resp.Probs[i] = probCol.Float(i)
		resp.Statuses[i] = statusCol.Value(i)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProba(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	scorer, ok := s.classifier.(VectorScorer)
	if !ok {
		writeError(w, http.StatusNotImplemented, errors.New("classifier does not score raw vectors"))
		return
	}

	var req struct {
		Rows [][]float32 `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	probs, err := scorer.PredictVectors(req.Rows)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"probabilities": probs})
}

// handleStream upgrades to a websocket and scores one site per message.
// Per-message failures are reported on the socket and do not close it.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var req SiteRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		resp, err := s.scoreSite(req)
		if err != nil {
			if werr := conn.WriteJSON(toErrorResponse(err)); werr != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"threshold": s.threshold,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) scoreSite(req SiteRequest) (SiteResponse, error) {
	threshold := s.threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	p, err := predict.PredictSingle(s.classifier,
		req.GCContent, req.RNAType, req.RNARegion,
		req.ExonLength, req.DistanceToJunction, req.Conservation,
		req.DNA5mer, threshold)
	if err != nil {
		s.countFailure(err)
		return SiteResponse{}, err
	}

	if s.metrics != nil {
		s.metrics.BatchSize.Observe(1)
		if p.Status == predict.StatusPositive {
			s.metrics.PositiveCalls.Inc()
		}
	}

	if s.store != nil && req.SiteID != "" {
		record := storage.PredictionRecord{
			SiteID:             req.SiteID,
			Timestamp:          time.Now().UTC(),
			GCContent:          req.GCContent,
			RNAType:            req.RNAType,
			RNARegion:          req.RNARegion,
			ExonLength:         req.ExonLength,
			DistanceToJunction: req.DistanceToJunction,
			Conservation:       req.Conservation,
			DNA5mer:            req.DNA5mer,
			Prob:               p.Prob,
			Status:             p.Status,
		}
		if err := s.store.StorePrediction(record); err != nil {
			log.Warn().Err(err).Str("site_id", req.SiteID).Msg("failed to persist prediction")
		} else if s.metrics != nil {
			s.metrics.StoredResults.Inc()
		}
	}

	return SiteResponse{SiteID: req.SiteID, Prob: p.Prob, Status: p.Status}, nil
}

func (s *Server) observeBatch(scored *frame.Frame) {
	if s.metrics == nil {
		return
	}
	s.metrics.BatchSize.Observe(float64(scored.Rows()))
	statusCol, _ := scored.Get(predict.ColStatus)
	for i := 0; i < scored.Rows(); i++ {
		if statusCol.Value(i) == predict.StatusPositive {
			s.metrics.PositiveCalls.Inc()
		}
	}
}

func (s *Server) countFailure(err error) {
	if s.metrics == nil {
		return
	}
	var missing *predict.MissingFeatureColumnsError
	var badLen *seq.InvalidSequenceLengthError
	switch {
	case errors.As(err, &missing):
		s.metrics.SchemaRejections.Inc()
	case errors.As(err, &badLen):
		s.metrics.EncodeFailures.Inc()
	}
}

func (s *Server) writePredictionError(w http.ResponseWriter, err error) {
	s.countFailure(err)

	var missing *predict.MissingFeatureColumnsError
	var badLen *seq.InvalidSequenceLengthError
	var invocation *predict.ClassifierInvocationError
	switch {
	case errors.As(err, &missing), errors.As(err, &badLen):
		writeJSON(w, http.StatusBadRequest, toErrorResponse(err))
	case errors.As(err, &invocation):
		writeJSON(w, http.StatusBadGateway, toErrorResponse(err))
	default:
		writeJSON(w, http.StatusInternalServerError, toErrorResponse(err))
	}
}

func toErrorResponse(err error) errorResponse {
	resp := errorResponse{Error: err.Error()}
	var missing *predict.MissingFeatureColumnsError
	if errors.As(err, &missing) {
		resp.MissingColumns = missing.Columns
	}
	return resp
}

// frameFromColumns builds a feature table from a column-oriented JSON
// payload. Only schema columns are considered; a column that fails to
// parse as its expected type is an error, a column absent from the
// payload is simply absent from the table (the pipeline reports it).
func frameFromColumns(columns map[string]json.RawMessage) (*frame.Frame, error) {
	f := frame.New()
	for _, name := range predict.RequiredColumns {
		raw, ok := columns[name]
		if !ok {
			continue
		}
		switch name {
		case predict.ColRNAType, predict.ColRNARegion, predict.ColDNA5mer:
			var values []string
			if err := json.Unmarshal(raw, &values); err != nil {
				return nil, fmt.Errorf("column %s: expected string array: %w", name, err)
			}
			if err := f.Set(name, frame.Strings(values...)); err != nil {
				return nil, err
			}
		default:
			var values []float64
			if err := json.Unmarshal(raw, &values); err != nil {
				return nil, fmt.Errorf("column %s: expected number array: %w", name, err)
			}
			if err := f.Set(name, frame.Numbers(values...)); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
