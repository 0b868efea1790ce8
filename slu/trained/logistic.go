package trained

import (
	"math"
)

// LogisticRegression is the linear back-end: an L1/L2-regularized binary
// logistic regression trained by full-batch gradient descent.
type LogisticRegression struct {
	Weights []float64
	C       float64 // inverse regularization strength
	L1      bool

	Epochs       int
	LearningRate float64
}

// NewLogisticRegression creates an untrained classifier over dim features.
func NewLogisticRegression(dim int, c float64, l1 bool) *LogisticRegression {
	if c <= 0 {
		c = 1.0
	}
	return &LogisticRegression{
		Weights:      make([]float64, dim),
		C:            c,
		L1:           l1,
		Epochs:       200,
		LearningRate: 0.5,
	}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

// Fit trains the weights on the dense feature matrix.
func (lr *LogisticRegression) Fit(x [][]float64, y []int) error {
	n := len(x)
	if n == 0 {
		return nil
	}
	dim := len(lr.Weights)
	lambda := 1.0 / (lr.C * float64(n))
	grad := make([]float64, dim)
	for epoch := 0; epoch < lr.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		for i := range x {
			p := lr.PredictProb(x[i])
			diff := p - float64(y[i])
			for j, xv := range x[i] {
				if xv != 0 {
					grad[j] += diff * xv
				}
			}
		}
		for j := range lr.Weights {
			g := grad[j] / float64(n)
			if lr.L1 {
				// subgradient of the L1 penalty
				switch {
				case lr.Weights[j] > 0:
					g += lambda
				case lr.Weights[j] < 0:
					g -= lambda
				}
			} else {
				g += lambda * lr.Weights[j]
			}
			lr.Weights[j] -= lr.LearningRate * g
		}
	}
	return nil
}

// PredictProb returns the positive-class probability for one feature
// vector.
func (lr *LogisticRegression) PredictProb(x []float64) float64 {
	z := 0.0
	for j, xv := range x {
		if xv != 0 && j < len(lr.Weights) {
			z += lr.Weights[j] * xv
		}
	}
	return sigmoid(z)
}
