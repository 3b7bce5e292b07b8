package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"m6apred/internal/table"
)

// MetricsInterface defines the metrics hooks the ONNX backend reports to.
type MetricsInterface interface {
	InferenceLatencyObserve(seconds float64)
	InferenceTimeoutsInc()
	ModelAgeSet(seconds float64)
}

// ONNXModel runs the exported random-forest artifact through a Python
// onnxruntime subprocess. The Go side owns validation, scheduling, and
// timeouts; the script only feeds the matrix to the session and prints the
// positive-class probabilities.
type ONNXModel struct {
	modelPath    string
	pythonPath   string
	scriptPath   string
	timeout      time.Duration
	modelCreated time.Time
	metadata     *Metadata
	metrics      MetricsInterface

	mu            sync.Mutex
	healthChecked time.Time
}

type inferenceRequest struct {
	Features [][]float64 `json:"features"`
}

type inferenceResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
}

// NewONNX loads the artifact at path. It fails when the file or a usable
// Python interpreter is missing; callers decide whether to fall back to
// another backend.
func NewONNX(path string, metrics MetricsInterface, timeout time.Duration) (*ONNXModel, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}

	pythonPath, err := findPython()
	if err != nil {
		return nil, fmt.Errorf("onnx backend unavailable: %w", err)
	}

	scriptPath := filepath.Join(filepath.Dir(path), "onnx_inference.py")
	if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
		scriptPath = filepath.Join(filepath.Dir(path), "onnx_inference_embedded.py")
		if err := writeInferenceScript(scriptPath); err != nil {
			return nil, fmt.Errorf("create inference script: %w", err)
		}
	}

	metadata, err := LoadMetadata(path)
	if err != nil {
		log.Warn().Err(err).Str("model_path", path).Msg("model metadata unavailable")
		metadata = nil
	}

	m := &ONNXModel{
		modelPath:    path,
		pythonPath:   pythonPath,
		scriptPath:   scriptPath,
		timeout:      timeout,
		modelCreated: info.ModTime(),
		metadata:     metadata,
		metrics:      metrics,
	}

	if err := m.healthCheck(); err != nil {
		return nil, fmt.Errorf("model health check: %w", err)
	}

	if m.metrics != nil {
		m.metrics.ModelAgeSet(time.Since(m.modelCreated).Seconds())
	}

	log.Info().
		Str("model_path", path).
		Str("python_path", pythonPath).
		Msg("ONNX model loaded")
	return m, nil
}

// Metadata returns the artifact's metadata, or nil when none was found.
func (m *ONNXModel) Metadata() *Metadata { return m.metadata }

// PredictProba implements predict.Model. The whole batch goes to the
// subprocess in one call.
func (m *ONNXModel) PredictProba(ctx context.Context, features *table.Table) ([]float64, error) {
	if err := m.healthCheck(); err != nil {
		return nil, fmt.Errorf("model health check: %w", err)
	}
	matrix, err := featureMatrix(features)
	if err != nil {
		return nil, err
	}
	return m.infer(ctx, matrix)
}

func (m *ONNXModel) infer(ctx context.Context, matrix [][]float64) ([]float64, error) {
	start := time.Now()
	defer func() {
		if m.metrics != nil {
			m.metrics.InferenceLatencyObserve(time.Since(start).Seconds())
		}
	}()

	reqJSON, err := json.Marshal(inferenceRequest{Features: matrix})
	if err != nil {
		return nil, fmt.Errorf("marshal inference request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.pythonPath, m.scriptPath, m.modelPath)
	// Without a WaitDelay, Run blocks past the context kill whenever a
	// descendant of the killed subprocess still holds the stdout/stderr pipes.
	cmd.WaitDelay = time.Second
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Error().
			Err(err).
			Str("model_path", m.modelPath).
			Str("stderr", stderr.String()).
			Int("rows", len(matrix)).
			Msg("onnx inference subprocess failed")

		if ctx.Err() == context.DeadlineExceeded {
			if m.metrics != nil {
				m.metrics.InferenceTimeoutsInc()
			}
			m.mu.Lock()
			m.healthChecked = time.Time{} // force next health check
			m.mu.Unlock()
			return nil, fmt.Errorf("inference timeout after %v", m.timeout)
		}
		if strings.Contains(stderr.String(), "onnxruntime not installed") {
			return nil, fmt.Errorf("onnxruntime dependency missing: %w", err)
		}
		return nil, fmt.Errorf("onnx inference failed: %w, stderr: %s", err, stderr.String())
	}

	var resp inferenceResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("parse inference response: %w, stdout: %s", err, stdout.String())
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("onnx inference error: %s", resp.Error)
	}
	if len(resp.Probabilities) != len(matrix) {
		return nil, fmt.Errorf("expected %d probabilities, got %d", len(matrix), len(resp.Probabilities))
	}
	for i, p := range resp.Probabilities {
		if p < 0 || p > 1 || p != p {
			return nil, fmt.Errorf("invalid probability at row %d: %f", i, p)
		}
	}
	return resp.Probabilities, nil
}

const healthCheckInterval = 5 * time.Minute

// healthCheck runs a probe inference unless one succeeded within the
// freshness window. The mutex guards only the healthChecked timestamp; it
// must not be held across infer, whose timeout branch takes it too.
func (m *ONNXModel) healthCheck() error {
	m.mu.Lock()
	fresh := time.Since(m.healthChecked) < healthCheckInterval
	m.mu.Unlock()
	if fresh {
		return nil
	}

	// One well-formed row: mid-range scalars, first level of each factor.
	probe := [][]float64{{0.5, 0, 0, 100, 25, 0.5, 0, 0, 0, 0, 0}}
	if _, err := m.infer(context.Background(), probe); err != nil {
		return err
	}

	m.mu.Lock()
	m.healthChecked = time.Now()
	m.mu.Unlock()
	return nil
}

func findPython() (string, error) {
	if venvPath := os.Getenv("VIRTUAL_ENV"); venvPath != "" {
		candidates := []string{
			filepath.Join(venvPath, "bin", "python3"),
			filepath.Join(venvPath, "bin", "python"),
			filepath.Join(venvPath, "Scripts", "python.exe"),
		}
		for _, p := range candidates {
			if hasOnnxRuntime(p) {
				log.Info().Str("python_path", p).Msg("using virtual environment Python")
				return p, nil
			}
		}
	}

	for _, candidate := range []string{"python3", "python", "python3.12", "python3.11", "python3.10"} {
		path, err := exec.LookPath(candidate)
		if err != nil {
			continue
		}
		if hasOnnxRuntime(path) {
			log.Info().Str("python_path", path).Msg("using system Python")
			return path, nil
		}
	}

	return "", fmt.Errorf("no Python 3 with onnxruntime found")
}

func hasOnnxRuntime(path string) bool {
	if _, err := os.Stat(path); err != nil {
		if _, lerr := exec.LookPath(path); lerr != nil {
			return false
		}
	}
	cmd := exec.Command(path, "-c", "import sys, onnxruntime; print('Python', sys.version)")
	output, err := cmd.Output()
	return err == nil && strings.Contains(string(output), "Python 3")
}

func writeInferenceScript(scriptPath string) error {
	script := `#!/usr/bin/env python3
"""Batch ONNX inference bridge for the m6A site classifier."""
import sys
import json
import numpy as np

try:
    import onnxruntime as ort
except ImportError:
    print(json.dumps({"error": "onnxruntime not installed"}))
    sys.exit(1)


def main():
    if len(sys.argv) != 2:
        print(json.dumps({"error": "usage: onnx_inference.py <model_path>"}))
        sys.exit(1)

    try:
        request = json.load(sys.stdin)
        features = np.array(request["features"], dtype=np.float32)

        session = ort.InferenceSession(sys.argv[1])
        input_name = session.get_inputs()[0].name
        outputs = session.run(None, {input_name: features})

        if len(outputs) == 2:
            # sklearn converters emit [labels, probabilities]
            probs = outputs[1]
            if isinstance(probs, list):
                # zipmap output: list of {label: prob} dicts
                positive = [float(row[max(row.keys())]) for row in probs]
            else:
                positive = probs[:, -1].astype(float).tolist()
        else:
            out = outputs[0]
            if out.ndim == 2 and out.shape[1] == 2:
                positive = out[:, 1].astype(float).tolist()
            else:
                positive = out.reshape(-1).astype(float).tolist()

        print(json.dumps({"probabilities": positive}))
    except Exception as e:
        print(json.dumps({"error": str(e)}))
        sys.exit(1)


if __name__ == "__main__":
    main()
`
	return os.WriteFile(scriptPath, []byte(script), 0o755)
}
