// Package ngram implements the FNV-1a codepoint hash that turns n-grams
// of Unicode scalars into feature bucket indices. The exact byte sequence
// fed to the hash is load-bearing: it must match any model artifact
// produced by an independent training pipeline.
package ngram

const (
	offsetBasis uint32 = 0x811C9DC5
	prime       uint32 = 0x01000193
)

// HashCodepoints hashes a sequence of Unicode codepoints with FNV-1a,
// feeding each codepoint as four little-endian bytes, xor-then-multiply
// per byte. Used for both bigrams (2 codepoints) and trigrams
// (3 codepoints), including occurrences of the word-boundary sentinel.
func HashCodepoints(cps ...rune) uint32 {
	h := offsetBasis
	for _, cp := range cps {
		v := uint32(cp)
		h ^= byte0(v)
		h *= prime
		h ^= byte1(v)
		h *= prime
		h ^= byte2(v)
		h *= prime
		h ^= byte3(v)
		h *= prime
	}
	return h
}

func byte0(v uint32) uint32 { return v & 0xFF }
func byte1(v uint32) uint32 { return (v >> 8) & 0xFF }
func byte2(v uint32) uint32 { return (v >> 16) & 0xFF }
func byte3(v uint32) uint32 { return (v >> 24) & 0xFF }

// Bucket maps a hash to a bucket index in [0, numBuckets). numBuckets
// must be positive; callers are expected to have validated this at
// construction time (see internal/textproc.NewExtractor).
func Bucket(hash uint32, numBuckets int32) int32 {
	return int32(hash&0x7FFFFFFF) % numBuckets
}
