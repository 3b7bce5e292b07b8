package model

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"m6apred/internal/schema"
	"m6apred/internal/table"
)

// RemoteModel scores feature batches against an external inference service.
// The service receives the numeric feature matrix and returns one
// positive-class probability per row.
type RemoteModel struct {
	base string
	rest *resty.Client
}

type remoteRequest struct {
	SchemaVersion string      `json:"schema_version"`
	Features      [][]float64 `json:"features"`
}

type remoteResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
}

// NewRemote creates a client for the inference service at base.
func NewRemote(base string, timeout time.Duration) *RemoteModel {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second)
	}
	return &RemoteModel{base: base, rest: r}
}

// PredictProba implements predict.Model.
func (m *RemoteModel) PredictProba(ctx context.Context, features *table.Table) ([]float64, error) {
	matrix, err := featureMatrix(features)
	if err != nil {
		return nil, err
	}

	req := remoteRequest{SchemaVersion: schema.Version, Features: matrix}
	out := &remoteResponse{}

	resp, err := m.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(out).
		Post(m.base + "/v1/predict_proba")
	if err != nil {
		return nil, fmt.Errorf("remote inference: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("remote inference: HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error != "" {
		return nil, fmt.Errorf("remote inference: %s", out.Error)
	}
	if len(out.Probabilities) != len(matrix) {
		return nil, fmt.Errorf("remote inference: expected %d probabilities, got %d", len(matrix), len(out.Probabilities))
	}
	return out.Probabilities, nil
}
