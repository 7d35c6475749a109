package features

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scaler rescales feature columns to [0, 1] using per-column bounds captured
// at training time. Values outside the training range scale past the unit
// interval on purpose.
type Scaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// LoadScaler reads scaler bounds from a JSON file.
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}

	var s Scaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scaler: %w", err)
	}

	if len(s.Min) == 0 {
		return nil, fmt.Errorf("scaler %s has no bounds", path)
	}
	if len(s.Min) != len(s.Max) {
		return nil, fmt.Errorf("scaler bounds mismatch: %d min vs %d max", len(s.Min), len(s.Max))
	}

	return &s, nil
}

// Transform rescales every row as (x - min) / (max - min) per column.
// A column whose bounds coincide maps to zero.
func (s *Scaler) Transform(matrix [][]float64) ([][]float64, error) {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != len(s.Min) {
			return nil, fmt.Errorf("row has %d features, scaler expects %d", len(row), len(s.Min))
		}

		scaled := make([]float64, len(row))
		for j, x := range row {
			span := s.Max[j] - s.Min[j]
			if span > 0 {
				scaled[j] = (x - s.Min[j]) / span
			}
		}
		out[i] = scaled
	}
	return out, nil
}
