// Package report summarizes batch prediction output for operators: score
// distribution statistics and the positive-call rate.
package report

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"m6apred/internal/schema"
	"m6apred/internal/table"
)

// Summary captures the shape of one batch's predictions.
type Summary struct {
	Rows         int     `json:"rows"`
	Positives    int     `json:"positives"`
	PositiveRate float64 `json:"positive_rate"`
	MeanProb     float64 `json:"mean_prob"`
	StdDevProb   float64 `json:"stddev_prob"`
	MedianProb   float64 `json:"median_prob"`
	Q1Prob       float64 `json:"q1_prob"`
	Q3Prob       float64 `json:"q3_prob"`
	MinProb      float64 `json:"min_prob"`
	MaxProb      float64 `json:"max_prob"`
}

// Summarize computes distribution statistics over the predicted_m6A_prob
// and predicted_m6A_status columns of an augmented table.
func Summarize(t *table.Table) (Summary, error) {
	probCol := t.Column(schema.ColPredictedProb)
	statusCol := t.Column(schema.ColPredictedStatus)
	if probCol == nil || statusCol == nil {
		return Summary{}, fmt.Errorf("table has no prediction columns; run the batch predictor first")
	}

	n := t.NumRows()
	s := Summary{Rows: n}
	if n == 0 {
		return s, nil
	}

	for _, status := range statusCol.Strings {
		if status == schema.StatusPositive {
			s.Positives++
		}
	}
	s.PositiveRate = float64(s.Positives) / float64(n)

	probs := append([]float64(nil), probCol.Floats...)
	sort.Float64s(probs)

	s.MeanProb, s.StdDevProb = stat.MeanStdDev(probs, nil)
	if n == 1 {
		s.StdDevProb = 0
	}
	s.MedianProb = stat.Quantile(0.5, stat.Empirical, probs, nil)
	s.Q1Prob = stat.Quantile(0.25, stat.Empirical, probs, nil)
	s.Q3Prob = stat.Quantile(0.75, stat.Empirical, probs, nil)
	s.MinProb = probs[0]
	s.MaxProb = probs[n-1]

	return s, nil
}
