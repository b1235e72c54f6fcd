// Package report summarizes scored batches: score distribution statistics
// and the positive-call rate, written as text and JSON artifacts.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"

	"github.com/colinzyang/m6APrediction/internal/frame"
	"github.com/colinzyang/m6APrediction/internal/predict"
)

// Summary describes one scored batch.
type Summary struct {
	GeneratedAt  time.Time `json:"generated_at"`
	Rows         int       `json:"rows"`
	Positives    int       `json:"positives"`
	PositiveRate float64   `json:"positive_rate"`
	MeanProb     float64   `json:"mean_prob"`
	MedianProb   float64   `json:"median_prob"`
	MinProb      float64   `json:"min_prob"`
	MaxProb      float64   `json:"max_prob"`
	P90Prob      float64   `json:"p90_prob"`
}

// Summarize computes distribution statistics over a scored table. The
// table must carry the derived prediction columns.
func Summarize(scored *frame.Frame) (Summary, error) {
	probCol, ok := scored.Get(predict.ColProb)
	if !ok {
		return Summary{}, fmt.Errorf("report: table has no %s column", predict.ColProb)
	}
	statusCol, ok := scored.Get(predict.ColStatus)
	if !ok {
		return Summary{}, fmt.Errorf("report: table has no %s column", predict.ColStatus)
	}

	rows := scored.Rows()
	probs := make(stats.Float64Data, rows)
	positives := 0
	for i := 0; i < rows; i++ {
		probs[i] = probCol.Float(i)
		if statusCol.Value(i) == predict.StatusPositive {
			positives++
		}
	}

	mean, err := stats.Mean(probs)
	if err != nil {
		return Summary{}, fmt.Errorf("report: %w", err)
	}
	median, err := stats.Median(probs)
	if err != nil {
		return Summary{}, fmt.Errorf("report: %w", err)
	}
	min, err := stats.Min(probs)
	if err != nil {
		return Summary{}, fmt.Errorf("report: %w", err)
	}
	max, err := stats.Max(probs)
	if err != nil {
		return Summary{}, fmt.Errorf("report: %w", err)
	}
	p90, err := stats.Percentile(probs, 90)
	if err != nil {
		// Percentile needs more than one sample; fall back to the only value.
		p90 = max
	}

	return Summary{
		GeneratedAt:  time.Now().UTC(),
		Rows:         rows,
		Positives:    positives,
		PositiveRate: float64(positives) / float64(rows),
		MeanProb:     mean,
		MedianProb:   median,
		MinProb:      min,
		MaxProb:      max,
		P90Prob:      p90,
	}, nil
}

// Reporter writes batch summaries to an output directory.
type Reporter struct {
	outputPath string
}

// NewReporter creates a reporter rooted at outputPath.
func NewReporter(outputPath string) *Reporter {
	return &Reporter{outputPath: outputPath}
}

// Write generates both report formats for a scored table.
func (r *Reporter) Write(scored *frame.Frame) error {
	summary, err := Summarize(scored)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.writeText(summary); err != nil {
		return err
	}
	if err := r.writeJSON(summary); err != nil {
		return err
	}

	log.Info().
		Int("rows", summary.Rows).
		Float64("positive_rate", summary.PositiveRate).
		Str("output", r.outputPath).
		Msg("batch report written")
	return nil
}

func (r *Reporter) writeText(s Summary) error {
	path := filepath.Join(r.outputPath, "batch_summary.txt")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "m6A batch scoring summary\n")
	fmt.Fprintf(file, "=========================\n\n")
	fmt.Fprintf(file, "Generated:      %s\n", s.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(file, "Sites scored:   %d\n", s.Rows)
	fmt.Fprintf(file, "Positive calls: %d (%.1f%%)\n\n", s.Positives, s.PositiveRate*100)
	fmt.Fprintf(file, "Probability distribution\n")
	fmt.Fprintf(file, "  mean:   %.4f\n", s.MeanProb)
	fmt.Fprintf(file, "  median: %.4f\n", s.MedianProb)
	fmt.Fprintf(file, "  min:    %.4f\n", s.MinProb)
	fmt.Fprintf(file, "  max:    %.4f\n", s.MaxProb)
	fmt.Fprintf(file, "  p90:    %.4f\n", s.P90Prob)
	return nil
}

func (r *Reporter) writeJSON(s Summary) error {
	path := filepath.Join(r.outputPath, "batch_summary.json")
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
