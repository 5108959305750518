package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallModel(t *testing.T) *Model {
	t.Helper()
	const numBuckets, numClasses = 4, 3
	labels := []string{"eng", "fra", "deu"}
	scales := []float32{0.1, 0.2, 0.3}
	biases := []float32{0.0, 0.1, -0.1}
	weights := []int8{
		1, 2, 3,
		-1, -2, -3,
		4, 5, 6,
		-4, -5, -6,
	}
	m, err := New(numBuckets, numClasses, labels, scales, biases, weights, LoadOptions{})
	require.NoError(t, err)
	return m
}

func TestNewRejectsWeightSizeMismatch(t *testing.T) {
	_, err := New(4, 3, []string{"a", "b", "c"}, make([]float32, 3), make([]float32, 3), make([]int8, 5), LoadOptions{})
	assert.Error(t, err)
}

func TestAccessors(t *testing.T) {
	m := smallModel(t)
	assert.Equal(t, int32(4), m.NumBuckets())
	assert.Equal(t, int32(3), m.NumClasses())
	assert.Equal(t, []string{"eng", "fra", "deu"}, m.Labels())

	label, ok := m.Label(1)
	assert.True(t, ok)
	assert.Equal(t, "fra", label)

	_, ok = m.Label(99)
	assert.False(t, ok)

	idx, ok := m.IndexOf("deu")
	assert.True(t, ok)
	assert.Equal(t, int32(2), idx)

	_, ok = m.IndexOf("xxx")
	assert.False(t, ok)
}

func TestReadRowBucketMajor(t *testing.T) {
	m := smallModel(t)
	row := make([]int8, 3)
	m.ReadRow(2, row)
	assert.Equal(t, []int8{4, 5, 6}, row)
}

func TestWeightsClassMajorTransposes(t *testing.T) {
	m := smallModel(t)
	cm := m.WeightsClassMajor()
	require.Len(t, cm, 3)
	require.Len(t, cm[0], 4)
	assert.Equal(t, []int8{1, -1, 4, -4}, cm[0])
	assert.Equal(t, []int8{2, -2, 5, -5}, cm[1])
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := smallModel(t)
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, m))

	loaded, err := Load(bytes.NewReader(buf.Bytes()), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, m.Labels(), loaded.Labels())
	assert.Equal(t, m.Scales(), loaded.Scales())
	assert.Equal(t, m.Biases(), loaded.Biases())
	assert.Equal(t, m.WeightsClassMajor(), loaded.WeightsClassMajor())

	var buf2 bytes.Buffer
	require.NoError(t, Save(&buf2, loaded))
	assert.Equal(t, buf.Bytes(), buf2.Bytes())
}

func TestLoadFileMmapRoundTrip(t *testing.T) {
	m := smallModel(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "model.ldm1")
	require.NoError(t, SaveFile(path, m))

	loaded, err := LoadFile(path, LoadOptions{})
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, m.Labels(), loaded.Labels())
	assert.Equal(t, m.WeightsClassMajor(), loaded.WeightsClassMajor())
}

func TestLoadSplitRoundTrip(t *testing.T) {
	m := smallModel(t)
	dir := t.TempDir()
	weightPath := filepath.Join(dir, "model.weights")
	metaPath := filepath.Join(dir, "model.meta")
	require.NoError(t, SaveSplit(weightPath, metaPath, m))

	loaded, err := LoadSplit(weightPath, metaPath, LoadOptions{})
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, m.Labels(), loaded.Labels())
	assert.Equal(t, m.WeightsClassMajor(), loaded.WeightsClassMajor())

	info, err := os.Stat(weightPath)
	require.NoError(t, err)
	assert.Equal(t, int64(m.NumBuckets())*int64(m.NumClasses()), info.Size())
}

func TestLoadSplitRejectsSizeMismatch(t *testing.T) {
	m := smallModel(t)
	dir := t.TempDir()
	weightPath := filepath.Join(dir, "model.weights")
	metaPath := filepath.Join(dir, "model.meta")
	require.NoError(t, SaveSplit(weightPath, metaPath, m))
	require.NoError(t, os.Truncate(weightPath, 1))

	_, err := LoadSplit(weightPath, metaPath, LoadOptions{})
	assert.Error(t, err)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	buf := make([]byte, 16)
	_, err := Load(bytes.NewReader(buf), LoadOptions{})
	assert.Error(t, err)
}

func TestLoadRejectsTruncatedInput(t *testing.T) {
	m := smallModel(t)
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, m))
	truncated := buf.Bytes()[:buf.Len()-2]

	_, err := Load(bytes.NewReader(truncated), LoadOptions{})
	assert.Error(t, err)
}

func TestLoadRejectsDuplicateLabels(t *testing.T) {
	m := smallModel(t)
	m.labels[1] = m.labels[0]
	var buf bytes.Buffer
	require.NoError(t, writeHeader(&buf, m.numBuckets, m.numClasses))
	require.NoError(t, writeLabelsScalesBiases(&buf, m.labels, m.scales, m.biases))
	buf.Write(bytes.Repeat([]byte{0}, int(m.numBuckets)*int(m.numClasses)))

	_, err := Load(bytes.NewReader(buf.Bytes()), LoadOptions{})
	assert.Error(t, err)
}

func TestCreateExtractorMatchesModelBuckets(t *testing.T) {
	m := smallModel(t)
	ext, err := m.CreateExtractor()
	require.NoError(t, err)
	assert.Equal(t, m.NumBuckets(), ext.NumBuckets())
}
