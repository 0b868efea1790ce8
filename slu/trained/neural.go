package trained

import (
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/golangast/transitslu/sluerr"
)

// binarySoftmaxEpsilon guards the pair normalisation against numeric
// underflow.
const binarySoftmaxEpsilon = 1e-20

// Layer is one dense layer of the neural back-end.
type Layer struct {
	W [][]float64 // [out][in]
	B []float64
}

// NeuralClassifier is the feed-forward back-end: one to several hidden
// layers with a configurable activation and a binary-set softmax output
// normalizing the (positive, negative) logit pair.
type NeuralClassifier struct {
	Hidden     []Layer
	Out        Layer // two output units: positive and negative logit
	Activation string

	LearningRate  float64
	BatchSize     int
	Epochs        int
	Patience      int
	L2Decay       float64
	GradClipMin   float64
	GradClipMax   float64
	GradNormLimit float64
	ClassWeightA  float64
	Seed          uint64
}

// NewNeuralClassifier builds an initialized network over dim input
// features with the configured hidden sizes.
func NewNeuralClassifier(dim int, cfg Config) *NeuralClassifier {
	nc := &NeuralClassifier{
		Activation:    cfg.Activation,
		LearningRate:  cfg.LearningRate,
		BatchSize:     cfg.BatchSize,
		Epochs:        cfg.Epochs,
		Patience:      cfg.Patience,
		L2Decay:       cfg.L2Decay,
		GradClipMin:   cfg.GradClipMin,
		GradClipMax:   cfg.GradClipMax,
		GradNormLimit: cfg.GradNormLimit,
		ClassWeightA:  cfg.ClassWeightA,
		Seed:          cfg.Seed,
	}
	r := rand.New(rand.NewSource(cfg.Seed))
	in := dim
	for _, h := range cfg.HiddenSizes {
		nc.Hidden = append(nc.Hidden, newLayer(r, h, in))
		in = h
	}
	nc.Out = newLayer(r, 2, in)
	return nc
}

func newLayer(r *rand.Rand, out, in int) Layer {
	scale := 1.0 / math.Sqrt(float64(in)+1)
	l := Layer{W: make([][]float64, out), B: make([]float64, out)}
	for i := range l.W {
		l.W[i] = make([]float64, in)
		for j := range l.W[i] {
			l.W[i][j] = (r.Float64()*2 - 1) * scale
		}
	}
	return l
}

func (nc *NeuralClassifier) activate(z float64) float64 {
	switch nc.Activation {
	case "sigmoid":
		return sigmoid(z)
	case "softplus":
		return math.Log1p(math.Exp(z))
	case "relu":
		if z < 0 {
			return 0
		}
		return z
	default: // tanh
		return math.Tanh(z)
	}
}

func (nc *NeuralClassifier) activateDeriv(a float64) float64 {
	switch nc.Activation {
	case "sigmoid":
		return a * (1 - a)
	case "softplus":
		// derivative of softplus is sigmoid of the pre-activation;
		// recover it from the activation
		return 1 - math.Exp(-a)
	case "relu":
		if a <= 0 {
			return 0
		}
		return 1
	default: // tanh
		return 1 - a*a
	}
}

// forward runs the network, returning the activations of every layer; the
// last entry holds the two output logits.
func (nc *NeuralClassifier) forward(x []float64) [][]float64 {
	acts := [][]float64{x}
	cur := x
	for _, l := range nc.Hidden {
		next := make([]float64, len(l.W))
		for i := range l.W {
			z := l.B[i]
			for j, w := range l.W[i] {
				if cur[j] != 0 {
					z += w * cur[j]
				}
			}
			next[i] = nc.activate(z)
		}
		acts = append(acts, next)
		cur = next
	}
	logits := make([]float64, 2)
	for i := range nc.Out.W {
		z := nc.Out.B[i]
		for j, w := range nc.Out.W[i] {
			z += w * cur[j]
		}
		logits[i] = z
	}
	acts = append(acts, logits)
	return acts
}

// binarySoftmax normalizes the (positive, negative) logit pair to the
// positive-class probability, guarded by an additive epsilon.
func binarySoftmax(pos, neg float64) float64 {
	m := pos
	if neg > m {
		m = neg
	}
	ep := math.Exp(pos - m)
	en := math.Exp(neg - m)
	return (ep + binarySoftmaxEpsilon) / (ep + en + 2*binarySoftmaxEpsilon)
}

// PredictProb returns the positive-class probability for one feature
// vector.
func (nc *NeuralClassifier) PredictProb(x []float64) float64 {
	acts := nc.forward(x)
	logits := acts[len(acts)-1]
	return binarySoftmax(logits[0], logits[1])
}

// Fit trains the network by mini-batch stochastic gradient descent with
// inverse-class-frequency weighting, gradient clipping or norm
// normalisation, L2 decay and patience-based stopping on the
// cross-validation F-measure.
func (nc *NeuralClassifier) Fit(x [][]float64, y []int) error {
	n := len(x)
	if n == 0 {
		return nil
	}
	if nc.BatchSize <= 0 {
		return sluerr.Configurationf("neural back-end needs a positive batch size")
	}

	wPos, wNeg := nc.classWeights(y)

	// hold out a tenth for the patience check
	nVal := n / 10
	if nVal < 1 && n >= 4 {
		nVal = 1
	}
	trainX, trainY := x[nVal:], y[nVal:]
	valX, valY := x[:nVal], y[:nVal]

	r := rand.New(rand.NewSource(nc.Seed))
	order := make([]int, len(trainX))
	for i := range order {
		order[i] = i
	}

	bestF := -1.0
	sinceBest := 0
	for epoch := 0; epoch < nc.Epochs; epoch++ {
		r.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for start := 0; start < len(order); start += nc.BatchSize {
			end := start + nc.BatchSize
			if end > len(order) {
				end = len(order)
			}
			nc.trainBatch(trainX, trainY, order[start:end], wPos, wNeg)
		}
		if len(valX) > 0 {
			f := nc.fMeasure(valX, valY)
			if f > bestF {
				bestF = f
				sinceBest = 0
			} else {
				sinceBest++
				if sinceBest >= nc.Patience {
					log.Debug().Int("epoch", epoch).Float64("f", bestF).
						Msg("early stop: cross-validation f-measure plateaued")
					return nil
				}
			}
		}
	}
	return nil
}

// classWeights computes per-class weights from inverse class frequencies
// blended with the smoothing hyperparameter alpha.
func (nc *NeuralClassifier) classWeights(y []int) (wPos, wNeg float64) {
	npos := 0
	for _, v := range y {
		if v == 1 {
			npos++
		}
	}
	n := len(y)
	nneg := n - npos
	if npos == 0 || nneg == 0 {
		return 1, 1
	}
	a := nc.ClassWeightA
	invPos := float64(n) / (2 * float64(npos))
	invNeg := float64(n) / (2 * float64(nneg))
	return a*invPos + (1 - a), a*invNeg + (1 - a)
}

func (nc *NeuralClassifier) trainBatch(x [][]float64, y []int, batch []int, wPos, wNeg float64) {
	gradH := make([]Layer, len(nc.Hidden))
	for i, l := range nc.Hidden {
		gradH[i] = zeroLike(l)
	}
	gradO := zeroLike(nc.Out)

	for _, i := range batch {
		acts := nc.forward(x[i])
		logits := acts[len(acts)-1]
		p := binarySoftmax(logits[0], logits[1])
		target := float64(y[i])
		weight := wNeg
		if y[i] == 1 {
			weight = wPos
		}
		// gradient of the weighted cross-entropy wrt the logit pair
		dOut := []float64{(p - target) * weight, (target - p) * weight}

		last := acts[len(acts)-2]
		for oi := range gradO.W {
			for j := range gradO.W[oi] {
				gradO.W[oi][j] += dOut[oi] * last[j]
			}
			gradO.B[oi] += dOut[oi]
		}

		// backpropagate through the hidden stack
		delta := make([]float64, len(last))
		for j := range delta {
			s := 0.0
			for oi := range nc.Out.W {
				s += dOut[oi] * nc.Out.W[oi][j]
			}
			delta[j] = s * nc.activateDeriv(last[j])
		}
		for li := len(nc.Hidden) - 1; li >= 0; li-- {
			in := acts[li]
			for hi := range gradH[li].W {
				for j := range gradH[li].W[hi] {
					gradH[li].W[hi][j] += delta[hi] * in[j]
				}
				gradH[li].B[hi] += delta[hi]
			}
			if li > 0 {
				next := make([]float64, len(in))
				for j := range next {
					s := 0.0
					for hi := range nc.Hidden[li].W {
						s += delta[hi] * nc.Hidden[li].W[hi][j]
					}
					next[j] = s * nc.activateDeriv(in[j])
				}
				delta = next
			}
		}
	}

	scale := 1.0 / float64(len(batch))
	nc.applyGrad(&nc.Out, gradO, scale)
	for i := range nc.Hidden {
		nc.applyGrad(&nc.Hidden[i], gradH[i], scale)
	}
}

func zeroLike(l Layer) Layer {
	g := Layer{W: make([][]float64, len(l.W)), B: make([]float64, len(l.B))}
	for i := range l.W {
		g.W[i] = make([]float64, len(l.W[i]))
	}
	return g
}

// applyGrad updates one layer: the gradient is clipped to
// [GradClipMin, GradClipMax] or rescaled to the norm limit, then applied
// with L2 weight decay.
func (nc *NeuralClassifier) applyGrad(l *Layer, g Layer, scale float64) {
	if nc.GradNormLimit > 0 {
		norm := 0.0
		for i := range g.W {
			for _, v := range g.W[i] {
				norm += v * v
			}
		}
		for _, v := range g.B {
			norm += v * v
		}
		norm = math.Sqrt(norm) * scale
		if norm > nc.GradNormLimit {
			scale *= nc.GradNormLimit / norm
		}
	}
	clip := func(v float64) float64 {
		if nc.GradNormLimit > 0 {
			return v
		}
		if v < nc.GradClipMin {
			return nc.GradClipMin
		}
		if v > nc.GradClipMax {
			return nc.GradClipMax
		}
		return v
	}
	for i := range l.W {
		for j := range l.W[i] {
			gv := clip(g.W[i][j] * scale)
			l.W[i][j] -= nc.LearningRate * (gv + nc.L2Decay*l.W[i][j])
		}
		gb := clip(g.B[i] * scale)
		l.B[i] -= nc.LearningRate * gb
	}
}

// fMeasure computes the F1 of the positive class at the 0.5 threshold.
func (nc *NeuralClassifier) fMeasure(x [][]float64, y []int) float64 {
	tp, fp, fn := 0, 0, 0
	for i := range x {
		pred := 0
		if nc.PredictProb(x[i]) > 0.5 {
			pred = 1
		}
		switch {
		case pred == 1 && y[i] == 1:
			tp++
		case pred == 1 && y[i] == 0:
			fp++
		case pred == 0 && y[i] == 1:
			fn++
		}
	}
	if tp == 0 {
		return 0
	}
	precision := float64(tp) / float64(tp+fp)
	recall := float64(tp) / float64(tp+fn)
	return 2 * precision * recall / (precision + recall)
}
