// Package model provides the classifier backends the predictors run
// against: the local ONNX artifact driven through an onnxruntime
// subprocess, a remote inference service, and a deterministic heuristic
// used when no artifact is available.
package model

import (
	"fmt"
	"math"

	"m6apred/internal/schema"
	"m6apred/internal/table"
)

// featureMatrix flattens a feature table into the numeric matrix the
// trained artifact consumes: columns in schema.FeatureColumns order,
// categorical values replaced by their fixed level index. The level
// ordering matters as much as the column ordering; both were frozen at
// training time.
func featureMatrix(t *table.Table) ([][]float64, error) {
	if missing := t.MissingColumns(schema.FeatureColumns); len(missing) > 0 {
		return nil, fmt.Errorf("feature table missing model columns: %v", missing)
	}

	n := t.NumRows()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, len(schema.FeatureColumns))
	}

	for j, name := range schema.FeatureColumns {
		c := t.Column(name)
		switch c.Kind {
		case table.Float:
			for i, v := range c.Floats {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, fmt.Errorf("row %d: column %s is not finite", i, name)
				}
				rows[i][j] = v
			}
		case table.Int:
			for i, v := range c.Ints {
				rows[i][j] = float64(v)
			}
		case table.Category:
			for i, v := range c.Strings {
				idx := schema.LevelIndex(c.Levels, v)
				if idx < 0 {
					return nil, fmt.Errorf("row %d: column %s: %q outside level set", i, name, v)
				}
				rows[i][j] = float64(idx)
			}
		default:
			return nil, fmt.Errorf("column %s: unsupported kind %s for model input", name, c.Kind)
		}
	}
	return rows, nil
}
