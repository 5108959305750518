// Package inference implements the sparse INT8 dot-product kernel that
// scores a feature vector against a loaded model's quantized weights,
// plus the numerically stable softmax and Shannon entropy used to turn
// logits into a probability distribution and a confidence signal.
package inference

import "math"

// weights abstracts the row-access a Model exposes, so this package
// never needs to import the model package's ownership details.
type weights interface {
	NumBuckets() int32
	NumClasses() int32
	ReadRow(bucket int32, dst []int8)
	Scales() []float32
	Biases() []float32
}

// PredictLogits computes the pre-softmax logits for features against m.
// features must have length m.NumBuckets(); this is a caller contract,
// not a checked precondition, so the hot path never allocates an error.
func PredictLogits(m weights, features []int32) []float32 {
	numClasses := m.NumClasses()
	dots := make([]int64, numClasses)
	row := make([]int8, numClasses)
	for b, v := range features {
		if v == 0 {
			continue
		}
		m.ReadRow(int32(b), row)
		for c, w := range row {
			dots[c] += int64(w) * int64(v)
		}
	}

	scales := m.Scales()
	biases := m.Biases()
	logits := make([]float32, numClasses)
	for c := range logits {
		logits[c] = biases[c] + scales[c]*float32(dots[c])
	}
	return logits
}

// Predict returns the softmax probability distribution over classes for
// features. If the pre-softmax exponential sum is non-positive (can only
// happen for pathological weight/bias combinations), the pre-softmax
// logits are returned unchanged rather than dividing by zero.
func Predict(m weights, features []int32) []float32 {
	logits := PredictLogits(m, features)
	return Softmax(logits)
}

// Softmax applies a numerically stable softmax: subtract max(logits)
// before exponentiating, then normalize. Returns logits unchanged if the
// resulting sum is non-positive.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return logits
	}
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	exps := make([]float32, len(logits))
	var sum float32
	for i, v := range logits {
		e := float32(math.Exp(float64(v - max)))
		exps[i] = e
		sum += e
	}
	if sum <= 0 {
		return logits
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

// Entropy returns the Shannon entropy of probs in bits. Entries with
// p <= 0 contribute 0 rather than NaN from log2(0).
func Entropy(probs []float32) float64 {
	var h float64
	for _, p := range probs {
		if p <= 0 {
			continue
		}
		pf := float64(p)
		h -= pf * math.Log2(pf)
	}
	return h
}
