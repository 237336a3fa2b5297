package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// TrainConfig holds the gradient-descent hyperparameters. Zero values pick
// the defaults below; training is fully deterministic (weights start at
// zero, full-batch updates).
type TrainConfig struct {
	LearningRate float64
	Epochs       int
	L2           float64
}

const (
	defaultLearningRate = 0.1
	defaultEpochs       = 400
	defaultL2           = 1e-3
)

// Model is a trained logistic regression with per-column standardization
// baked in, so callers feed raw feature vectors to PredictProba.
type Model struct {
	FeatureNames []string  `json:"feature_names"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	Mean         []float64 `json:"mean"`
	Std          []float64 `json:"std"`
}

// Train fits the model on labeled examples with full-batch gradient descent
// over standardized columns.
func Train(examples []Example, names []string, cfg TrainConfig) (*Model, error) {
	n := len(examples)
	if n == 0 {
		return nil, fmt.Errorf("model: no training examples")
	}
	d := len(names)
	for _, ex := range examples {
		if len(ex.X) != d {
			return nil, fmt.Errorf("model: example %s has %d features, want %d", ex.OrderID, len(ex.X), d)
		}
	}
	var pos int
	for _, ex := range examples {
		if ex.Label == 1 {
			pos++
		}
	}
	if pos == 0 || pos == n {
		return nil, fmt.Errorf("model: training set has a single class (%d/%d late)", pos, n)
	}

	if cfg.LearningRate == 0 {
		cfg.LearningRate = defaultLearningRate
	}
	if cfg.Epochs == 0 {
		cfg.Epochs = defaultEpochs
	}
	if cfg.L2 == 0 {
		cfg.L2 = defaultL2
	}

	m := &Model{
		FeatureNames: append([]string(nil), names...),
		Weights:      make([]float64, d),
		Mean:         make([]float64, d),
		Std:          make([]float64, d),
	}
	m.fitScaler(examples)

	X := mat.NewDense(n, d, nil)
	y := mat.NewVecDense(n, nil)
	for i, ex := range examples {
		for j, v := range ex.X {
			X.Set(i, j, m.scale(j, v))
		}
		y.SetVec(i, ex.Label)
	}

	w := mat.NewVecDense(d, nil)
	var bias float64

	z := mat.NewVecDense(n, nil)
	diff := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(d, nil)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		z.MulVec(X, w)
		var biasGrad float64
		for i := 0; i < n; i++ {
			p := sigmoid(z.AtVec(i) + bias)
			diff.SetVec(i, p-y.AtVec(i))
			biasGrad += p - y.AtVec(i)
		}
		grad.MulVec(X.T(), diff)
		grad.ScaleVec(1/float64(n), grad)
		grad.AddScaledVec(grad, cfg.L2, w)

		w.AddScaledVec(w, -cfg.LearningRate, grad)
		bias -= cfg.LearningRate * biasGrad / float64(n)
	}

	for j := 0; j < d; j++ {
		m.Weights[j] = w.AtVec(j)
	}
	m.Bias = bias
	return m, nil
}

// PredictProba scores one raw feature vector.
func (m *Model) PredictProba(x []float64) (float64, error) {
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("model: vector has %d features, want %d", len(x), len(m.Weights))
	}
	z := m.Bias
	for j, v := range x {
		z += m.Weights[j] * m.scale(j, v)
	}
	return sigmoid(z), nil
}

// Save writes the model as JSON.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("model: marshal: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("model: write %s: %w", path, err)
	}
	return nil
}

// Load reads a model saved by Save.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read %s: %w", path, err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("model: parse %s: %w", path, err)
	}
	if len(m.Weights) != len(m.FeatureNames) || len(m.Mean) != len(m.Weights) || len(m.Std) != len(m.Weights) {
		return nil, fmt.Errorf("model: %s: inconsistent dimensions", path)
	}
	return &m, nil
}

// fitScaler computes per-column mean/std over the training matrix. Constant
// columns keep std 1 so they pass through unscaled instead of dividing by
// zero.
func (m *Model) fitScaler(examples []Example) {
	n := float64(len(examples))
	for j := range m.Mean {
		var sum float64
		for _, ex := range examples {
			sum += ex.X[j]
		}
		mean := sum / n
		var sq float64
		for _, ex := range examples {
			d := ex.X[j] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / n)
		if std == 0 {
			std = 1
		}
		m.Mean[j] = mean
		m.Std[j] = std
	}
}

func (m *Model) scale(j int, v float64) float64 {
	return (v - m.Mean[j]) / m.Std[j]
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
