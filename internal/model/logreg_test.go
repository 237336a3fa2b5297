package model

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// separable builds a one-feature training set that a logistic regression
// separates cleanly: label equals the feature.
func separable(n int) []Example {
	var out []Example
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		out = append(out, Example{
			OrderID: fmt.Sprintf("o%d", i),
			X:       []float64{label},
			Label:   label,
			Labeled: true,
		})
	}
	return out
}

// TestTrainSeparatesLinearlySeparableData verifies gradient descent drives
// the separable fixture to confident, correctly ordered probabilities.
func TestTrainSeparatesLinearlySeparableData(t *testing.T) {
	t.Parallel()

	m, err := Train(separable(40), []string{"x"}, TrainConfig{})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	p0, err := m.PredictProba([]float64{0})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	p1, err := m.PredictProba([]float64{1})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	if p1 <= p0 {
		t.Fatalf("p(1)=%v <= p(0)=%v; model did not learn the ordering", p1, p0)
	}
	if p1 < 0.9 || p0 > 0.1 {
		t.Fatalf("p(0)=%v p(1)=%v, want confident separation", p0, p1)
	}
}

// TestTrainIsDeterministic verifies two trainings over the same data produce
// identical weights: zero init, full-batch updates, no randomness.
func TestTrainIsDeterministic(t *testing.T) {
	t.Parallel()

	a, err := Train(separable(20), []string{"x"}, TrainConfig{})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	b, err := Train(separable(20), []string{"x"}, TrainConfig{})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if a.Weights[0] != b.Weights[0] || a.Bias != b.Bias {
		t.Fatalf("training not deterministic: %v/%v vs %v/%v", a.Weights[0], a.Bias, b.Weights[0], b.Bias)
	}
}

// TestTrainRejectsDegenerateSets covers empty input, single-class labels and
// mismatched feature widths.
func TestTrainRejectsDegenerateSets(t *testing.T) {
	t.Parallel()

	if _, err := Train(nil, []string{"x"}, TrainConfig{}); err == nil {
		t.Fatalf("expected error for empty training set")
	}

	oneClass := []Example{
		{OrderID: "a", X: []float64{1}, Label: 1, Labeled: true},
		{OrderID: "b", X: []float64{2}, Label: 1, Labeled: true},
	}
	if _, err := Train(oneClass, []string{"x"}, TrainConfig{}); err == nil {
		t.Fatalf("expected error for single-class labels")
	}

	ragged := []Example{
		{OrderID: "a", X: []float64{1, 2}, Label: 1, Labeled: true},
		{OrderID: "b", X: []float64{2}, Label: 0, Labeled: true},
	}
	if _, err := Train(ragged, []string{"x", "y"}, TrainConfig{}); err == nil {
		t.Fatalf("expected error for ragged feature vectors")
	}
}

// TestPredictProbaChecksWidth verifies scoring rejects wrong-width vectors.
func TestPredictProbaChecksWidth(t *testing.T) {
	t.Parallel()

	m, err := Train(separable(10), []string{"x"}, TrainConfig{Epochs: 10})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if _, err := m.PredictProba([]float64{1, 2}); err == nil {
		t.Fatalf("expected error for mismatched vector width")
	}
}

// TestSaveLoadRoundTrip verifies weights survive the JSON round trip and
// produce identical scores.
func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	m, err := Train(separable(20), []string{"x"}, TrainConfig{})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want, _ := m.PredictProba([]float64{1})
	got, err := loaded.PredictProba([]float64{1})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	if got != want {
		t.Fatalf("loaded model scores %v, original %v", got, want)
	}
}

// TestLoadRejectsInconsistentFiles verifies dimension checks on load.
func TestLoadRejectsInconsistentFiles(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.json")
	bad := `{"feature_names":["a","b"],"weights":[1],"bias":0,"mean":[0],"std":[1]}`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for inconsistent dimensions")
	}
}
