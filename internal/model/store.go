package model

import (
	"errors"
	"io"

	"golang.org/x/exp/mmap"
)

// weightStore is the ownership enum from the design notes made concrete
// as an interface with exactly two implementations: a heap-owned slice
// or a read-only memory-mapped region. A Model holds exactly one.
type weightStore interface {
	// readRow copies the numClasses weights for bucket b into dst.
	readRow(b int32, dst []int8)
	// readAll returns every weight byte, in bucket-major order. The mmap
	// store allocates a copy; the heap store returns its own slice. Used
	// only by the (rare) serialization path.
	readAll() []int8
	// len reports the total weight count (numBuckets * numClasses).
	len() int64
	close() error
}

type heapStore struct {
	weights []int8
}

func (s *heapStore) readRow(b int32, dst []int8) {
	numClasses := int32(len(dst))
	copy(dst, s.weights[int64(b)*int64(numClasses):int64(b)*int64(numClasses)+int64(numClasses)])
}

func (s *heapStore) readAll() []int8 { return s.weights }
func (s *heapStore) len() int64      { return int64(len(s.weights)) }
func (s *heapStore) close() error    { return nil }

// mmapStore holds a read-only mapped region plus a byte offset into it
// where the bucket-major weight section begins (0 for a split weight
// file mapped on its own, non-zero for a single-file LDM1 artifact
// mapped whole).
type mmapStore struct {
	reader     *mmap.ReaderAt
	offset     int64
	numClasses int32
	count      int64
}

func (s *mmapStore) readRow(b int32, dst []int8) {
	off := s.offset + int64(b)*int64(s.numClasses)
	raw := make([]byte, len(dst))
	if _, err := s.reader.ReadAt(raw, off); err != nil && !errors.Is(err, io.EOF) {
		// Bucket indices and numClasses are derived from the model's own
		// validated header, so a short read here means the underlying
		// mapping shrank out from under us; there is no safe recovery.
		panic("charsoup: mmap weight read failed: " + err.Error())
	}
	for i, rawByte := range raw {
		dst[i] = int8(rawByte)
	}
}

func (s *mmapStore) readAll() []int8 {
	raw := make([]byte, s.count)
	if _, err := s.reader.ReadAt(raw, s.offset); err != nil && !errors.Is(err, io.EOF) {
		panic("charsoup: mmap weight read failed: " + err.Error())
	}
	out := make([]int8, s.count)
	for i, rawByte := range raw {
		out[i] = int8(rawByte)
	}
	return out
}

func (s *mmapStore) len() int64   { return s.count }
func (s *mmapStore) close() error { return s.reader.Close() }
