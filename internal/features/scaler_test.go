package features

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeScalerFile(t *testing.T, min, max []float64) string {
	t.Helper()

	data, err := json.Marshal(Scaler{Min: min, Max: max})
	if err != nil {
		t.Fatalf("Marshal scaler: %v", err)
	}

	path := filepath.Join(t.TempDir(), "scaler.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Write scaler: %v", err)
	}
	return path
}

func TestLoadScaler(t *testing.T) {
	path := writeScalerFile(t, []float64{0, 10}, []float64{1, 20})

	s, err := LoadScaler(path)
	if err != nil {
		t.Fatalf("LoadScaler failed: %v", err)
	}

	if len(s.Min) != 2 || s.Min[1] != 10 || s.Max[1] != 20 {
		t.Errorf("Bounds not loaded: min=%v max=%v", s.Min, s.Max)
	}
}

func TestLoadScaler_MissingFile(t *testing.T) {
	if _, err := LoadScaler(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadScaler_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaler.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadScaler(path); err == nil {
		t.Error("Expected error for unparseable file")
	}
}

func TestLoadScaler_BoundsMismatch(t *testing.T) {
	path := writeScalerFile(t, []float64{0, 0}, []float64{1, 1, 1})

	if _, err := LoadScaler(path); err == nil {
		t.Error("Expected error for mismatched bound lengths")
	}
}

func TestLoadScaler_EmptyBounds(t *testing.T) {
	path := writeScalerFile(t, nil, nil)

	if _, err := LoadScaler(path); err == nil {
		t.Error("Expected error for empty bounds")
	}
}

func TestTransform_Basic(t *testing.T) {
	s := &Scaler{Min: []float64{0, 100}, Max: []float64{10, 200}}

	out, err := s.Transform([][]float64{{5, 150}, {0, 200}})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if math.Abs(out[0][0]-0.5) > 1e-9 || math.Abs(out[0][1]-0.5) > 1e-9 {
		t.Errorf("Row 0: expected (0.5, 0.5), got %v", out[0])
	}
	if out[1][0] != 0 || out[1][1] != 1.0 {
		t.Errorf("Row 1: expected (0, 1), got %v", out[1])
	}
}

func TestTransform_OutsideTrainingRange(t *testing.T) {
	// Values past the training bounds scale past [0, 1]; no clamping
	s := &Scaler{Min: []float64{0}, Max: []float64{10}}

	out, err := s.Transform([][]float64{{20}, {-10}})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if out[0][0] != 2.0 {
		t.Errorf("Expected 2.0 above range, got %v", out[0][0])
	}
	if out[1][0] != -1.0 {
		t.Errorf("Expected -1.0 below range, got %v", out[1][0])
	}
}

func TestTransform_ZeroRange(t *testing.T) {
	// Degenerate column (min == max) maps everything to zero
	s := &Scaler{Min: []float64{5}, Max: []float64{5}}

	out, err := s.Transform([][]float64{{5}, {999}})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if out[0][0] != 0 || out[1][0] != 0 {
		t.Errorf("Expected zero-range column to map to 0, got %v, %v", out[0][0], out[1][0])
	}
}

func TestTransform_WidthMismatch(t *testing.T) {
	s := &Scaler{Min: []float64{0, 0}, Max: []float64{1, 1}}

	if _, err := s.Transform([][]float64{{1, 2, 3}}); err == nil {
		t.Error("Expected error for row width mismatch")
	}
}

func TestTransform_DoesNotMutateInput(t *testing.T) {
	s := &Scaler{Min: []float64{0}, Max: []float64{10}}
	in := [][]float64{{5}}

	if _, err := s.Transform(in); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if in[0][0] != 5 {
		t.Errorf("Input mutated: got %v", in[0][0])
	}
}
