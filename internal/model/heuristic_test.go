package model

import (
	"context"
	"testing"
)

func TestHeuristic_Deterministic(t *testing.T) {
	h := NewHeuristic()
	tbl := featureTableFor(t, "GGACT", "mRNA", "CDS")

	first, err := h.PredictProba(context.Background(), tbl)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	second, err := h.PredictProba(context.Background(), tbl)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	if first[0] != second[0] {
		t.Error("Heuristic must be deterministic for identical input")
	}
}

func TestHeuristic_ProbabilitiesInRange(t *testing.T) {
	h := NewHeuristic()
	for _, seq := range []string{"GGACT", "TTTTT", "AAAAA", "CCCCC", "ATGAT"} {
		tbl := featureTableFor(t, seq, "mRNA", "CDS")
		probs, err := h.PredictProba(context.Background(), tbl)
		if err != nil {
			t.Fatalf("PredictProba failed for %s: %v", seq, err)
		}
		if probs[0] <= 0 || probs[0] >= 1 {
			t.Errorf("Probability for %s out of (0,1): %f", seq, probs[0])
		}
	}
}

func TestHeuristic_MotifScoresHigher(t *testing.T) {
	h := NewHeuristic()

	// GGACT carries the RAC core (A at the center, G before, C after);
	// TTTTT carries no adenosine at all.
	motif := featureTableFor(t, "GGACT", "mRNA", "CDS")
	nonMotif := featureTableFor(t, "TTTTT", "mRNA", "CDS")

	pm, err := h.PredictProba(context.Background(), motif)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	pn, err := h.PredictProba(context.Background(), nonMotif)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}

	if pm[0] <= pn[0] {
		t.Errorf("Motif window must outscore a motif-free window: %f vs %f", pm[0], pn[0])
	}
}

func TestHeuristic_RejectsMalformedInput(t *testing.T) {
	h := NewHeuristic()
	tbl := featureTableFor(t, "ATGAT", "mRNA", "CDS")
	tbl.Column("nt_pos3").Strings[0] = "X"

	if _, err := h.PredictProba(context.Background(), tbl); err == nil {
		t.Fatal("Expected error for a value outside the level set")
	}
}
