package metrics

// Wrapper adapts Metrics to the narrow interfaces the predict and model
// packages declare, keeping those packages free of a Prometheus dependency.
// A nil inner Metrics turns every method into a no-op, so callers can pass
// the wrapper unconditionally.
type Wrapper struct {
	m *Metrics
}

// NewWrapper wraps m; m may be nil.
func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

// PredictionsInc implements predict.MetricsInterface.
func (w *Wrapper) PredictionsInc(n int) {
	if w.m != nil {
		w.m.Predictions.Add(float64(n))
	}
}

// FailuresInc implements predict.MetricsInterface.
func (w *Wrapper) FailuresInc() {
	if w.m != nil {
		w.m.Failures.Inc()
	}
}

// LatencyObserve implements predict.MetricsInterface.
func (w *Wrapper) LatencyObserve(seconds float64) {
	if w.m != nil {
		w.m.Latency.Observe(seconds)
	}
}

// ScoreObserve implements predict.MetricsInterface.
func (w *Wrapper) ScoreObserve(p float64) {
	if w.m != nil {
		w.m.Scores.Observe(p)
	}
}

// BatchSizeObserve implements predict.MetricsInterface.
func (w *Wrapper) BatchSizeObserve(n int) {
	if w.m != nil {
		w.m.BatchSize.Observe(float64(n))
	}
}

// ValidationErrorsInc implements predict.MetricsInterface.
func (w *Wrapper) ValidationErrorsInc() {
	if w.m != nil {
		w.m.ValidationErrors.Inc()
	}
}

// PositiveCallsInc implements predict.MetricsInterface.
func (w *Wrapper) PositiveCallsInc() {
	if w.m != nil {
		w.m.PositiveCalls.Inc()
	}
}

// InferenceLatencyObserve implements model.MetricsInterface.
func (w *Wrapper) InferenceLatencyObserve(seconds float64) {
	if w.m != nil {
		w.m.InferenceLatency.Observe(seconds)
	}
}

// InferenceTimeoutsInc implements model.MetricsInterface.
func (w *Wrapper) InferenceTimeoutsInc() {
	if w.m != nil {
		w.m.InferenceTimeout.Inc()
	}
}

// ModelAgeSet implements model.MetricsInterface.
func (w *Wrapper) ModelAgeSet(seconds float64) {
	if w.m != nil {
		w.m.ModelAge.Set(seconds)
	}
}

// StorageErrorsInc implements server.MetricsInterface.
func (w *Wrapper) StorageErrorsInc() {
	if w.m != nil {
		w.m.StorageErrors.Inc()
	}
}
