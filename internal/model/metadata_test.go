package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"m6apred/internal/schema"
)

func writeMetadata(t *testing.T, dir, name string, md Metadata) {
	t.Helper()
	data, err := json.Marshal(md)
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
}

func TestLoadMetadata(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "m6a_rf.onnx")

	want := Metadata{
		Version:       "2024-06-01",
		SchemaVersion: schema.Version,
		TrainedAt:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Features:      schema.FeatureColumns,
		Accuracy:      0.91,
		ROCAUC:        0.95,
		PRAUC:         0.88,
		TrainingRows:  12000,
	}
	writeMetadata(t, dir, "model_metadata.json", want)

	got, err := LoadMetadata(modelPath)
	if err != nil {
		t.Fatalf("LoadMetadata failed: %v", err)
	}
	if got.Version != want.Version || got.ROCAUC != want.ROCAUC {
		t.Errorf("Loaded metadata mismatch: %+v", got)
	}
}

func TestLoadMetadata_TimestampedFallback(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "m6a_rf.onnx")

	writeMetadata(t, dir, "model_metadata_20240101.json", Metadata{Version: "old"})
	writeMetadata(t, dir, "model_metadata_20240601.json", Metadata{Version: "new"})

	got, err := LoadMetadata(modelPath)
	if err != nil {
		t.Fatalf("LoadMetadata failed: %v", err)
	}
	if got.Version != "new" {
		t.Errorf("Expected newest timestamped metadata, got %q", got.Version)
	}
}

func TestLoadMetadata_Missing(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadMetadata(filepath.Join(dir, "m6a_rf.onnx")); err == nil {
		t.Fatal("Expected error when no metadata file exists")
	}
}

func TestLoadMetadata_SchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	writeMetadata(t, dir, "model_metadata.json", Metadata{SchemaVersion: "m6a-v0"})

	if _, err := LoadMetadata(filepath.Join(dir, "m6a_rf.onnx")); err == nil {
		t.Fatal("Expected error for schema version mismatch")
	}
}

func TestLoadMetadata_FeatureOrderMismatch(t *testing.T) {
	dir := t.TempDir()
	features := append([]string(nil), schema.FeatureColumns...)
	features[0], features[1] = features[1], features[0]
	writeMetadata(t, dir, "model_metadata.json", Metadata{Features: features})

	if _, err := LoadMetadata(filepath.Join(dir, "m6a_rf.onnx")); err == nil {
		t.Fatal("Expected error for reordered feature list")
	}
}
