package model

import (
	"context"
	"math"
	"strings"

	"m6apred/internal/schema"
	"m6apred/internal/table"
)

// HeuristicModel is a deterministic stand-in used when no trained artifact
// is available. It scores samples with a hand-tuned logistic over the
// strongest published m6A signals: a DRACH-like motif in the window,
// conservation, and CDS/mRNA context. It exists so the pipeline stays
// usable end to end, not to match the trained model's accuracy.
type HeuristicModel struct{}

// NewHeuristic returns the fallback scorer.
func NewHeuristic() *HeuristicModel { return &HeuristicModel{} }

// PredictProba implements predict.Model.
func (h *HeuristicModel) PredictProba(_ context.Context, features *table.Table) ([]float64, error) {
	if _, err := featureMatrix(features); err != nil {
		return nil, err
	}

	n := features.NumRows()
	gc := features.Column(schema.ColGCContent)
	cons := features.Column(schema.ColConservation)
	rnaType := features.Column(schema.ColRNAType)
	rnaRegion := features.Column(schema.ColRNARegion)

	probs := make([]float64, n)
	for i := 0; i < n; i++ {
		score := -1.2

		// Central adenosine with an RAC context is the core m6A motif.
		window := h.window(features, i)
		if window[2] == "A" {
			score += 1.1
			if (window[1] == "A" || window[1] == "G") && window[3] == "C" {
				score += 1.3
			}
		}

		score += 1.5 * (cons.Floats[i] - 0.5)
		score += 0.6 * (gc.Floats[i] - 0.5)

		if rnaType.Strings[i] == "mRNA" {
			score += 0.4
		}
		if rnaRegion.Strings[i] == "CDS" || rnaRegion.Strings[i] == "3'UTR" {
			score += 0.3
		}

		probs[i] = sigmoid(score)
	}
	return probs, nil
}

func (h *HeuristicModel) window(t *table.Table, row int) []string {
	w := make([]string, schema.SeqLen)
	for pos := 1; pos <= schema.SeqLen; pos++ {
		w[pos-1] = strings.ToUpper(t.Column(schema.NtPosName(pos)).Strings[row])
	}
	return w
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
