package metrics

// Wrapper adapts Metrics to the model package's MetricsInterface without
// a direct dependency from model onto prometheus types.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) PredictionsInc()          { w.m.PredictionsTotal.Inc() }
func (w *Wrapper) FailuresInc()             { w.m.PredictionFailures.Inc() }
func (w *Wrapper) TimeoutsInc()             { w.m.PredictionTimeouts.Inc() }
func (w *Wrapper) LatencyObserve(v float64) { w.m.PredictionLatency.Observe(v) }
func (w *Wrapper) ScoreObserve(v float64)   { w.m.PredictionScores.Observe(v) }
func (w *Wrapper) ModelAgeSet(v float64)    { w.m.ModelAge.Set(v) }
func (w *Wrapper) FallbackInc()             { w.m.FallbackUse.Inc() }
