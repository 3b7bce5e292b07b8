package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"m6apred/internal/schema"
)

// Metadata describes a trained artifact. It is written by the training
// pipeline next to the .onnx file.
type Metadata struct {
	Version       string    `json:"version"`
	SchemaVersion string    `json:"schema_version"`
	TrainedAt     time.Time `json:"trained_at"`
	Features      []string  `json:"features"`
	Accuracy      float64   `json:"accuracy"`
	ROCAUC        float64   `json:"roc_auc"`
	PRAUC         float64   `json:"pr_auc"`
	TrainingRows  int       `json:"training_rows"`
}

// LoadMetadata reads model metadata from the artifact's directory. It tries
// model_metadata.json first, then the newest timestamped variant. When the
// metadata declares a feature list it must match the schema's model input
// columns exactly.
func LoadMetadata(modelPath string) (*Metadata, error) {
	dir := filepath.Dir(modelPath)

	path := filepath.Join(dir, "model_metadata.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		matches, _ := filepath.Glob(filepath.Join(dir, "model_metadata_*.json"))
		if len(matches) == 0 {
			return nil, fmt.Errorf("no metadata file found in %s", dir)
		}
		sort.Strings(matches)
		path = matches[len(matches)-1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}

	if err := md.validate(); err != nil {
		return nil, err
	}
	return &md, nil
}

func (md *Metadata) validate() error {
	if md.SchemaVersion != "" && md.SchemaVersion != schema.Version {
		return fmt.Errorf("metadata schema version %q does not match %q", md.SchemaVersion, schema.Version)
	}
	if len(md.Features) > 0 {
		if len(md.Features) != len(schema.FeatureColumns) {
			return fmt.Errorf("metadata lists %d features, schema has %d", len(md.Features), len(schema.FeatureColumns))
		}
		for i, f := range md.Features {
			if f != schema.FeatureColumns[i] {
				return fmt.Errorf("metadata feature %d is %q, schema expects %q", i, f, schema.FeatureColumns[i])
			}
		}
	}
	return nil
}
