// Package schema defines the feature schema the m6A classifier was trained
// against: categorical level sets, the nucleotide alphabet, the 5-mer window
// length, and the exact column order of the model input. Both the single and
// batch prediction paths and every model backend consume these constants, so
// the encoding is guaranteed to match training regardless of entry point.
package schema

import "strconv"

// Version identifies the feature schema. Bump it whenever a level set or the
// column order changes; model metadata carries the schema version it was
// trained with.
const Version = "m6a-v1"

// SeqLen is the fixed nucleotide window length around a candidate site.
const SeqLen = 5

// DefaultThreshold is the probability cutoff separating Positive from
// Negative calls when the caller does not supply one.
const DefaultThreshold = 0.5

// Binary call labels.
const (
	StatusPositive = "Positive"
	StatusNegative = "Negative"
)

// Feature column names.
const (
	ColGCContent    = "gc_content"
	ColRNAType      = "RNA_type"
	ColRNARegion    = "RNA_region"
	ColExonLength   = "exon_length"
	ColDistJunction = "distance_to_junction"
	ColConservation = "evolutionary_conservation"
	ColDNA5mer      = "DNA_5mer"

	ColPredictedProb   = "predicted_m6A_prob"
	ColPredictedStatus = "predicted_m6A_status"
)

// Nucleotides is the fixed alphabet for every sequence position. The level
// order is the factor order used at training time and must not change.
var Nucleotides = []string{"A", "T", "C", "G"}

// RNATypes is the fixed level set for the RNA_type feature.
var RNATypes = []string{"mRNA", "lincRNA", "lncRNA", "pseudogene"}

// RNARegions is the fixed level set for the RNA_region feature.
var RNARegions = []string{"CDS", "intron", "3'UTR", "5'UTR"}

// RequiredColumns lists the columns a batch input table must contain, in the
// order the single-sample path assembles them.
var RequiredColumns = []string{
	ColGCContent,
	ColRNAType,
	ColRNARegion,
	ColExonLength,
	ColDistJunction,
	ColConservation,
	ColDNA5mer,
}

// FeatureColumns is the exact model input column order: the six scalar
// features followed by the encoded sequence positions. The trained artifact
// is rigid about this layout.
var FeatureColumns = []string{
	ColGCContent,
	ColRNAType,
	ColRNARegion,
	ColExonLength,
	ColDistJunction,
	ColConservation,
	"nt_pos1",
	"nt_pos2",
	"nt_pos3",
	"nt_pos4",
	"nt_pos5",
}

// NtPosName returns the column name for the 1-based sequence position.
func NtPosName(pos int) string {
	return "nt_pos" + strconv.Itoa(pos)
}

// LevelIndex returns the position of value within levels, or -1 when the
// value is not a declared level.
func LevelIndex(levels []string, value string) int {
	for i, l := range levels {
		if l == value {
			return i
		}
	}
	return -1
}

// ValidNucleotide reports whether b is one of the four uppercase bases.
func ValidNucleotide(b byte) bool {
	switch b {
	case 'A', 'T', 'C', 'G':
		return true
	}
	return false
}

// ValidSequence reports whether s has exactly SeqLen characters, all drawn
// from the nucleotide alphabet.
func ValidSequence(s string) bool {
	if len(s) != SeqLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !ValidNucleotide(s[i]) {
			return false
		}
	}
	return true
}
