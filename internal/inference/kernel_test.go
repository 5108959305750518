package inference

import (
	"math"
	"testing"

	"github.com/agentx/charsoup/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) *model.Model {
	t.Helper()
	labels := []string{"a", "b", "c"}
	scales := []float32{1, 1, 1}
	biases := []float32{0, 0, 0}
	weights := []int8{
		10, 0, 0,
		0, 10, 0,
		0, 0, 10,
		1, 1, 1,
	}
	m, err := model.New(4, 3, labels, scales, biases, weights, model.LoadOptions{})
	require.NoError(t, err)
	return m
}

func TestPredictSumsToOne(t *testing.T) {
	m := newTestModel(t)
	probs := Predict(m, []int32{1, 0, 0, 0})
	var sum float32
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, float32(0))
		assert.LessOrEqual(t, p, float32(1))
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestPredictFavorsStrongestClass(t *testing.T) {
	m := newTestModel(t)
	probs := Predict(m, []int32{1, 0, 0, 0})
	assert.Greater(t, probs[0], probs[1])
	assert.Greater(t, probs[0], probs[2])
}

func TestPredictZeroFeaturesIsUniform(t *testing.T) {
	m := newTestModel(t)
	probs := Predict(m, []int32{0, 0, 0, 0})
	for _, p := range probs {
		assert.InDelta(t, float32(1.0/3.0), p, 1e-6)
	}
}

func TestEntropyBoundsAndUniformCase(t *testing.T) {
	m := newTestModel(t)
	probs := Predict(m, []int32{0, 0, 0, 0})
	h := Entropy(probs)
	assert.InDelta(t, math.Log2(3), h, 1e-6)
	assert.GreaterOrEqual(t, h, 0.0)
	assert.LessOrEqual(t, h, math.Log2(float64(m.NumClasses())))
}

func TestEntropyOfCertainDistributionIsZero(t *testing.T) {
	h := Entropy([]float32{1, 0, 0})
	assert.Equal(t, 0.0, h)
}

func TestSoftmaxStableUnderLargeLogits(t *testing.T) {
	probs := Softmax([]float32{1000, 1000.0001, 999.9999})
	var sum float32
	for _, p := range probs {
		sum += p
		assert.False(t, math.IsNaN(float64(p)))
		assert.False(t, math.IsInf(float64(p), 0))
	}
	assert.InDelta(t, 1.0, sum, 1e-4)
}
