// Package model implements the LDM1 binary model format: parsing,
// serialization, and the two ownership modes (heap-allocated or
// memory-mapped) a loaded model's weight blob can hold.
package model

import (
	"fmt"

	"github.com/agentx/charsoup/internal/errs"
	"github.com/agentx/charsoup/internal/textproc"
)

// Model is an immutable, loaded LDM1 artifact. It is safe to share by
// reference across concurrent readers; nothing about a Model changes
// after a successful load.
type Model struct {
	numBuckets      int32
	numClasses      int32
	labels          []string
	labelIndex      map[string]int32
	scales          []float32
	biases          []float32
	store           weightStore
	includeTrigrams bool
}

// New builds a Model directly from in-memory weights, bypassing the
// LDM1 wire format. Useful for tests and for callers that already have
// a trained weight blob in hand.
func New(numBuckets, numClasses int32, labels []string, scales, biases []float32, weights []int8, opts LoadOptions) (*Model, error) {
	m, err := newModel(numBuckets, numClasses, labels, scales, biases, &heapStore{weights: weights})
	if err != nil {
		return nil, err
	}
	return m.applyOptions(opts), nil
}

func newModel(numBuckets, numClasses int32, labels []string, scales, biases []float32, store weightStore) (*Model, error) {
	if numBuckets <= 0 || numClasses <= 0 {
		return nil, errs.BadArgument("newModel", fmt.Errorf("num_buckets=%d num_classes=%d", numBuckets, numClasses))
	}
	want := int64(numBuckets) * int64(numClasses)
	if store.len() != want {
		return nil, errs.Format("newModel", fmt.Errorf("weight blob has %d bytes, want %d (B*C)", store.len(), want))
	}
	index := make(map[string]int32, len(labels))
	for i, label := range labels {
		index[label] = int32(i)
	}
	return &Model{
		numBuckets: numBuckets,
		numClasses: numClasses,
		labels:     labels,
		labelIndex: index,
		scales:     scales,
		biases:     biases,
		store:      store,
	}, nil
}

// NumBuckets returns B.
func (m *Model) NumBuckets() int32 { return m.numBuckets }

// NumClasses returns C.
func (m *Model) NumClasses() int32 { return m.numClasses }

// Labels returns the model's ISO-639-3 tags in class-index order. The
// returned slice must not be mutated by callers.
func (m *Model) Labels() []string { return m.labels }

// Label returns the label for class index i, or false if i is out of
// range.
func (m *Model) Label(i int32) (string, bool) {
	if i < 0 || i >= m.numClasses {
		return "", false
	}
	return m.labels[i], true
}

// IndexOf is an O(1) reverse lookup from label to class index.
func (m *Model) IndexOf(label string) (int32, bool) {
	i, ok := m.labelIndex[label]
	return i, ok
}

// Scales returns the per-class dequantization factors.
func (m *Model) Scales() []float32 { return m.scales }

// Biases returns the per-class biases.
func (m *Model) Biases() []float32 { return m.biases }

// ReadRow copies the numClasses weight cells for bucket b into dst.
// dst must have length NumClasses(); this is a caller contract upheld
// on the inference hot path, not a checked precondition.
func (m *Model) ReadRow(b int32, dst []int8) { m.store.readRow(b, dst) }

// WeightsClassMajor materializes the weight matrix transposed into
// class-major [C][B] order. Allocates on every call; this is a
// compatibility accessor for tooling, not a cached value, so callers
// that need it repeatedly should cache it themselves.
func (m *Model) WeightsClassMajor() [][]int8 {
	out := make([][]int8, m.numClasses)
	for c := range out {
		out[c] = make([]int8, m.numBuckets)
	}
	row := make([]int8, m.numClasses)
	for b := int32(0); b < m.numBuckets; b++ {
		m.store.readRow(b, row)
		for c, v := range row {
			out[c][b] = v
		}
	}
	return out
}

// IncludeTrigrams reports whether this model was loaded with the
// trigram-augmented extractor configuration. The LDM1 wire format does
// not carry this flag; it is set by the loader from LoadOptions and must
// match whatever the training pipeline used.
func (m *Model) IncludeTrigrams() bool { return m.includeTrigrams }

// CreateExtractor returns the textproc.Extractor that matches this
// model's declared tokenization, guaranteeing training/inference
// agreement on n-gram emission.
func (m *Model) CreateExtractor() (*textproc.Extractor, error) {
	return textproc.NewExtractor(m.numBuckets, m.includeTrigrams)
}

// Close releases any memory-mapped region backing this model. Safe to
// call on a heap-backed model, where it is a no-op.
func (m *Model) Close() error { return m.store.close() }
