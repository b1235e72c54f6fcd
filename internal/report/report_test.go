package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colinzyang/m6APrediction/internal/frame"
	"github.com/colinzyang/m6APrediction/internal/predict"
)

func scoredTable(t *testing.T, probs []float64, statuses []string) *frame.Frame {
	t.Helper()
	f := frame.New()
	require.NoError(t, f.Set(predict.ColProb, frame.Numbers(probs...)))
	require.NoError(t, f.Set(predict.ColStatus, frame.Factor(statuses, predict.StatusLevels)))
	return f
}

func TestSummarize(t *testing.T) {
	f := scoredTable(t,
		[]float64{0.1, 0.3, 0.7, 0.9},
		[]string{"Negative", "Negative", "Positive", "Positive"})

	s, err := Summarize(f)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, 2, s.Positives)
	assert.InDelta(t, 0.5, s.PositiveRate, 1e-12)
	assert.InDelta(t, 0.5, s.MeanProb, 1e-12)
	assert.InDelta(t, 0.5, s.MedianProb, 1e-12)
	assert.InDelta(t, 0.1, s.MinProb, 1e-12)
	assert.InDelta(t, 0.9, s.MaxProb, 1e-12)
}

func TestSummarizeRequiresDerivedColumns(t *testing.T) {
	f := frame.New()
	require.NoError(t, f.Set(predict.ColGCContent, frame.Numbers(0.5)))
	_, err := Summarize(f)
	assert.Error(t, err)
}

func TestReporterWritesBothFormats(t *testing.T) {
	dir := t.TempDir()
	f := scoredTable(t, []float64{0.2, 0.8}, []string{"Negative", "Positive"})

	r := NewReporter(dir)
	require.NoError(t, r.Write(f))

	text, err := os.ReadFile(filepath.Join(dir, "batch_summary.txt"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(text), "Sites scored:   2"))
	assert.True(t, strings.Contains(string(text), "Positive calls: 1"))

	raw, err := os.ReadFile(filepath.Join(dir, "batch_summary.json"))
	require.NoError(t, err)
	var s Summary
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, 2, s.Rows)
	assert.Equal(t, 1, s.Positives)
}

func TestSummarizeSingleRow(t *testing.T) {
	f := scoredTable(t, []float64{0.6}, []string{"Positive"})
	s, err := Summarize(f)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Rows)
	assert.InDelta(t, 0.6, s.MeanProb, 1e-12)
}
