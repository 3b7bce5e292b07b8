// Package predict exposes the two prediction entry points of the service:
// single-sample and batch. Both assemble model input through the same
// feature-table builder against the shared schema, so a sample predicted on
// its own and the same values predicted inside a batch always produce the
// same probability and call.
package predict

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"m6apred/internal/encode"
	"m6apred/internal/schema"
	"m6apred/internal/table"
)

// Model is the injected classifier. Given a feature table laid out per
// schema.FeatureColumns it returns the positive-class probability for each
// row, in row order. Implementations must not retain the table.
type Model interface {
	PredictProba(ctx context.Context, features *table.Table) ([]float64, error)
}

// MetricsInterface defines the metrics hooks the predictor reports to.
type MetricsInterface interface {
	PredictionsInc(n int)
	FailuresInc()
	ValidationErrorsInc()
	PositiveCallsInc()
	LatencyObserve(seconds float64)
	ScoreObserve(p float64)
	BatchSizeObserve(n int)
}

// Sample is one biological observation to classify.
type Sample struct {
	GCContent          float64 `json:"gc_content"`
	RNAType            string  `json:"RNA_type"`
	RNARegion          string  `json:"RNA_region"`
	ExonLength         int64   `json:"exon_length"`
	DistanceToJunction float64 `json:"distance_to_junction"`
	Conservation       float64 `json:"evolutionary_conservation"`
	DNA5mer            string  `json:"DNA_5mer"`
}

// Result is the outcome of classifying one sample.
type Result struct {
	Prob   float64 `json:"predicted_m6A_prob"`
	Status string  `json:"predicted_m6A_status"`
}

// Predictor runs a Model over validated feature input. It holds no state
// between calls beyond the injected model and configuration.
type Predictor struct {
	model     Model
	threshold float64
	metrics   MetricsInterface
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithThreshold overrides the default probability cutoff.
func WithThreshold(t float64) Option {
	return func(p *Predictor) { p.threshold = t }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m MetricsInterface) Option {
	return func(p *Predictor) { p.metrics = m }
}

// New creates a Predictor around the given model. The threshold defaults to
// schema.DefaultThreshold.
func New(model Model, opts ...Option) *Predictor {
	p := &Predictor{model: model, threshold: schema.DefaultThreshold}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Threshold returns the configured probability cutoff.
func (p *Predictor) Threshold() float64 { return p.threshold }

// StatusFor converts a probability into a binary call. The boundary is
// inclusive: a probability exactly equal to the threshold is Positive.
func StatusFor(prob, threshold float64) string {
	if prob >= threshold {
		return schema.StatusPositive
	}
	return schema.StatusNegative
}

// Single classifies one sample. Validation failures surface as
// InvalidCategoryError or InvalidSequenceError before the model is invoked.
func (p *Predictor) Single(ctx context.Context, s Sample) (Result, error) {
	start := time.Now()

	if err := validateSample(s); err != nil {
		return Result{}, p.validationError(err)
	}

	features, err := buildFeatureTable(
		[]float64{s.GCContent},
		[]string{s.RNAType},
		[]string{s.RNARegion},
		[]int64{s.ExonLength},
		[]float64{s.DistanceToJunction},
		[]float64{s.Conservation},
		[]string{s.DNA5mer},
	)
	if err != nil {
		return Result{}, p.validationError(err)
	}

	probs, err := p.model.PredictProba(ctx, features)
	if err != nil {
		if p.metrics != nil {
			p.metrics.FailuresInc()
		}
		return Result{}, fmt.Errorf("model prediction: %w", err)
	}
	if len(probs) != 1 {
		if p.metrics != nil {
			p.metrics.FailuresInc()
		}
		return Result{}, fmt.Errorf("model returned %d probabilities for 1 row", len(probs))
	}

	res := Result{Prob: probs[0], Status: StatusFor(probs[0], p.threshold)}

	if p.metrics != nil {
		p.metrics.PredictionsInc(1)
		p.metrics.ScoreObserve(res.Prob)
		if res.Status == schema.StatusPositive {
			p.metrics.PositiveCallsInc()
		}
		p.metrics.LatencyObserve(time.Since(start).Seconds())
	}

	log.Debug().
		Float64("prob", res.Prob).
		Str("status", res.Status).
		Str("sequence", s.DNA5mer).
		Msg("single prediction complete")
	return res, nil
}

// Batch classifies every row of the input table and returns a copy with
// predicted_m6A_prob and predicted_m6A_status appended. The input table is
// never mutated; extra columns pass through unchanged in their original
// order; row count and order are preserved.
func (p *Predictor) Batch(ctx context.Context, in *table.Table) (*table.Table, error) {
	start := time.Now()

	// Schema check runs before any encoding or model work.
	if missing := in.MissingColumns(schema.RequiredColumns); len(missing) > 0 {
		return nil, p.validationError(&SchemaError{Missing: missing})
	}

	n := in.NumRows()

	// A header-only table is valid input: the augmented copy just carries
	// empty prediction columns, and the model is never invoked.
	if n == 0 {
		out := in.Clone()
		out.MustAddColumn(table.Column{Name: schema.ColPredictedProb, Kind: table.Float, Floats: []float64{}})
		out.MustAddColumn(table.Column{Name: schema.ColPredictedStatus, Kind: table.String, Strings: []string{}})
		return out, nil
	}

	gc, err := floatValues(in.Column(schema.ColGCContent))
	if err != nil {
		return nil, p.validationError(err)
	}
	exon, err := intValues(in.Column(schema.ColExonLength))
	if err != nil {
		return nil, p.validationError(err)
	}
	dist, err := floatValues(in.Column(schema.ColDistJunction))
	if err != nil {
		return nil, p.validationError(err)
	}
	cons, err := floatValues(in.Column(schema.ColConservation))
	if err != nil {
		return nil, p.validationError(err)
	}

	rnaTypes, err := categoryValues(in.Column(schema.ColRNAType), schema.RNATypes)
	if err != nil {
		return nil, p.validationError(err)
	}
	rnaRegions, err := categoryValues(in.Column(schema.ColRNARegion), schema.RNARegions)
	if err != nil {
		return nil, p.validationError(err)
	}

	seqs, err := sequenceValues(in.Column(schema.ColDNA5mer))
	if err != nil {
		return nil, p.validationError(err)
	}

	features, err := buildFeatureTable(gc, rnaTypes, rnaRegions, exon, dist, cons, seqs)
	if err != nil {
		return nil, p.validationError(err)
	}

	probs, err := p.model.PredictProba(ctx, features)
	if err != nil {
		if p.metrics != nil {
			p.metrics.FailuresInc()
		}
		return nil, fmt.Errorf("model prediction: %w", err)
	}
	if len(probs) != n {
		if p.metrics != nil {
			p.metrics.FailuresInc()
		}
		return nil, fmt.Errorf("model returned %d probabilities for %d rows", len(probs), n)
	}

	statuses := make([]string, n)
	for i, pr := range probs {
		statuses[i] = StatusFor(pr, p.threshold)
		if p.metrics != nil {
			p.metrics.ScoreObserve(pr)
			if statuses[i] == schema.StatusPositive {
				p.metrics.PositiveCallsInc()
			}
		}
	}

	out := in.Clone()
	out.MustAddColumn(table.Column{Name: schema.ColPredictedProb, Kind: table.Float, Floats: probs})
	out.MustAddColumn(table.Column{Name: schema.ColPredictedStatus, Kind: table.String, Strings: statuses})

	if p.metrics != nil {
		p.metrics.PredictionsInc(n)
		p.metrics.BatchSizeObserve(n)
		p.metrics.LatencyObserve(time.Since(start).Seconds())
	}

	log.Info().
		Int("rows", n).
		Dur("elapsed", time.Since(start)).
		Msg("batch prediction complete")
	return out, nil
}

// validationError counts an input rejected before model invocation and
// passes the error through.
func (p *Predictor) validationError(err error) error {
	if p.metrics != nil {
		p.metrics.ValidationErrorsInc()
	}
	return err
}

func validateSample(s Sample) error {
	if schema.LevelIndex(schema.RNATypes, s.RNAType) < 0 {
		return &InvalidCategoryError{Field: schema.ColRNAType, Value: s.RNAType, Levels: schema.RNATypes}
	}
	if schema.LevelIndex(schema.RNARegions, s.RNARegion) < 0 {
		return &InvalidCategoryError{Field: schema.ColRNARegion, Value: s.RNARegion, Levels: schema.RNARegions}
	}
	if !schema.ValidSequence(s.DNA5mer) {
		return &InvalidSequenceError{Seq: s.DNA5mer}
	}
	return nil
}

// buildFeatureTable is the single place model input is assembled, for both
// entry points: six scalar columns followed by the encoded sequence
// positions, in schema.FeatureColumns order.
func buildFeatureTable(gc []float64, rnaTypes, rnaRegions []string, exon []int64, dist, cons []float64, seqs []string) (*table.Table, error) {
	encoded, err := encode.FiveMers(seqs)
	if err != nil {
		return nil, err
	}

	t := table.New()
	t.MustAddColumn(table.Column{Name: schema.ColGCContent, Kind: table.Float, Floats: gc})
	t.MustAddColumn(table.Column{Name: schema.ColRNAType, Kind: table.Category, Strings: rnaTypes, Levels: schema.RNATypes})
	t.MustAddColumn(table.Column{Name: schema.ColRNARegion, Kind: table.Category, Strings: rnaRegions, Levels: schema.RNARegions})
	t.MustAddColumn(table.Column{Name: schema.ColExonLength, Kind: table.Int, Ints: exon})
	t.MustAddColumn(table.Column{Name: schema.ColDistJunction, Kind: table.Float, Floats: dist})
	t.MustAddColumn(table.Column{Name: schema.ColConservation, Kind: table.Float, Floats: cons})
	for pos := 1; pos <= schema.SeqLen; pos++ {
		name := schema.NtPosName(pos)
		if err := t.AddColumn(*encoded.Column(name)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// floatValues coerces a column to float64, accepting float, int, and
// string-typed input (CSV tables arrive as strings).
func floatValues(c *table.Column) ([]float64, error) {
	switch c.Kind {
	case table.Float:
		return c.Floats, nil
	case table.Int:
		out := make([]float64, len(c.Ints))
		for i, v := range c.Ints {
			out[i] = float64(v)
		}
		return out, nil
	default:
		out := make([]float64, len(c.Strings))
		for i, v := range c.Strings {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: column %s: %q is not numeric", i, c.Name, v)
			}
			out[i] = f
		}
		return out, nil
	}
}

func intValues(c *table.Column) ([]int64, error) {
	switch c.Kind {
	case table.Int:
		return c.Ints, nil
	case table.Float:
		out := make([]int64, len(c.Floats))
		for i, v := range c.Floats {
			out[i] = int64(v)
		}
		return out, nil
	default:
		out := make([]int64, len(c.Strings))
		for i, v := range c.Strings {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: column %s: %q is not an integer", i, c.Name, v)
			}
			out[i] = n
		}
		return out, nil
	}
}

func categoryValues(c *table.Column, levels []string) ([]string, error) {
	if c.Kind == table.Float || c.Kind == table.Int {
		return nil, fmt.Errorf("column %s: expected categorical values, got %s", c.Name, c.Kind)
	}
	for i, v := range c.Strings {
		if schema.LevelIndex(levels, v) < 0 {
			return nil, &InvalidCategoryError{Row: i, Field: c.Name, Value: v, Levels: levels}
		}
	}
	return c.Strings, nil
}

func sequenceValues(c *table.Column) ([]string, error) {
	if c.Kind == table.Float || c.Kind == table.Int {
		return nil, fmt.Errorf("column %s: expected sequences, got %s", c.Name, c.Kind)
	}
	for i, v := range c.Strings {
		if !schema.ValidSequence(v) {
			return nil, &InvalidSequenceError{Row: i, Seq: v}
		}
	}
	return c.Strings, nil
}
