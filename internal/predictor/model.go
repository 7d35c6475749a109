package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// Model is a scoring capability loaded from a model file or injected
// directly. Implementations provide class probabilities (ProbabilityModel)
// or direct predictions (DirectModel); the predictor checks which at scoring
// time and falls back to the heuristic when neither is present.
type Model interface{}

// ProbabilityModel scores a feature row into class probabilities.
// Index 1 is the high-risk class.
type ProbabilityModel interface {
	PredictProba(row []float64) ([]float64, error)
}

// DirectModel scores a feature row into a single prediction in [0, 1].
type DirectModel interface {
	Predict(row []float64) (float64, error)
}

// ErrUnknownModelType is returned by LoadModel for unrecognized model files.
var ErrUnknownModelType = errors.New("unknown model type")

type modelFile struct {
	Type      string    `json:"type"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// LoadModel reads a model from a JSON file. Supported types: "logistic"
// (ProbabilityModel) and "linear" (DirectModel).
func LoadModel(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if len(mf.Weights) == 0 {
		return nil, fmt.Errorf("model %s has no weights", path)
	}

	switch mf.Type {
	case "logistic":
		return &LogisticModel{Weights: mf.Weights, Intercept: mf.Intercept}, nil
	case "linear":
		return &LinearModel{Weights: mf.Weights, Intercept: mf.Intercept}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelType, mf.Type)
	}
}

// LogisticModel is a logistic-regression scorer. PredictProba returns
// {P(low-risk), P(high-risk)}.
type LogisticModel struct {
	Weights   []float64
	Intercept float64
}

var _ ProbabilityModel = (*LogisticModel)(nil)

func (m *LogisticModel) PredictProba(row []float64) ([]float64, error) {
	z, err := dot(m.Weights, m.Intercept, row)
	if err != nil {
		return nil, err
	}
	p := 1 / (1 + math.Exp(-z))
	return []float64{1 - p, p}, nil
}

// LinearModel is a linear scorer whose prediction is clamped to [0, 1].
type LinearModel struct {
	Weights   []float64
	Intercept float64
}

var _ DirectModel = (*LinearModel)(nil)

func (m *LinearModel) Predict(row []float64) (float64, error) {
	y, err := dot(m.Weights, m.Intercept, row)
	if err != nil {
		return 0, err
	}
	return math.Max(0, math.Min(1, y)), nil
}

func dot(weights []float64, intercept float64, row []float64) (float64, error) {
	if len(row) != len(weights) {
		return 0, fmt.Errorf("row has %d features, model expects %d", len(row), len(weights))
	}
	z := intercept
	for i, w := range weights {
		z += w * row[i]
	}
	return z, nil
}
