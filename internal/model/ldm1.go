package model

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/agentx/charsoup/internal/errs"
)

const (
	magic          uint32 = 0x4C444D31
	formatVersion  uint32 = 1
	maxLabelLength        = 1<<16 - 1 // u16 length prefix
)

// header is the fixed-size prefix of an LDM1 artifact.
type header struct {
	Magic      uint32
	Version    uint32
	NumBuckets uint32
	NumClasses uint32
}

func readHeader(r io.Reader) (header, error) {
	var h header
	var raw [16]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return h, errs.Format("readHeader", fmt.Errorf("truncated header: %w", err))
	}
	h.Magic = binary.BigEndian.Uint32(raw[0:4])
	h.Version = binary.BigEndian.Uint32(raw[4:8])
	h.NumBuckets = binary.BigEndian.Uint32(raw[8:12])
	h.NumClasses = binary.BigEndian.Uint32(raw[12:16])
	if h.Magic != magic {
		return h, errs.Format("readHeader", fmt.Errorf("bad magic %#x", h.Magic))
	}
	if h.Version != formatVersion {
		return h, errs.Format("readHeader", fmt.Errorf("unsupported version %d", h.Version))
	}
	if h.NumBuckets == 0 || h.NumClasses == 0 {
		return h, errs.BadArgument("readHeader", fmt.Errorf("num_buckets=%d num_classes=%d", h.NumBuckets, h.NumClasses))
	}
	return h, nil
}

func writeHeader(w io.Writer, numBuckets, numClasses int32) error {
	var raw [16]byte
	binary.BigEndian.PutUint32(raw[0:4], magic)
	binary.BigEndian.PutUint32(raw[4:8], formatVersion)
	binary.BigEndian.PutUint32(raw[8:12], uint32(numBuckets))
	binary.BigEndian.PutUint32(raw[12:16], uint32(numClasses))
	_, err := w.Write(raw[:])
	return err
}

// readLabelsScalesBiases reads the C labels, C scales and C biases
// sections that follow the header, validating UTF-8 and rejecting
// duplicate labels.
func readLabelsScalesBiases(r io.Reader, numClasses uint32) ([]string, []float32, []float32, error) {
	labels := make([]string, numClasses)
	seen := make(map[string]struct{}, numClasses)
	var lenBuf [2]byte
	for i := range labels {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, nil, nil, errs.Format("readLabels", fmt.Errorf("truncated label length at %d: %w", i, err))
		}
		length := binary.BigEndian.Uint16(lenBuf[:])
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, nil, nil, errs.Format("readLabels", fmt.Errorf("truncated label bytes at %d: %w", i, err))
		}
		if !utf8.Valid(buf) {
			return nil, nil, nil, errs.Format("readLabels", fmt.Errorf("label %d is not valid UTF-8", i))
		}
		label := string(buf)
		if _, dup := seen[label]; dup {
			return nil, nil, nil, errs.Format("readLabels", fmt.Errorf("duplicate label %q", label))
		}
		seen[label] = struct{}{}
		labels[i] = label
	}

	scales := make([]float32, numClasses)
	if err := binary.Read(r, binary.BigEndian, scales); err != nil {
		return nil, nil, nil, errs.Format("readScales", fmt.Errorf("truncated scales: %w", err))
	}

	biases := make([]float32, numClasses)
	if err := binary.Read(r, binary.BigEndian, biases); err != nil {
		return nil, nil, nil, errs.Format("readBiases", fmt.Errorf("truncated biases: %w", err))
	}
	return labels, scales, biases, nil
}

func writeLabelsScalesBiases(w io.Writer, labels []string, scales, biases []float32) error {
	for i, label := range labels {
		if len(label) > maxLabelLength {
			return errs.Format("writeLabels", fmt.Errorf("label %d too long (%d bytes)", i, len(label)))
		}
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(label)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, label); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.BigEndian, scales); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, biases)
}

// readFromBuffered implements the buffered-byte-source loader: read
// sequentially, allocate the weight blob on the heap.
func readFromBuffered(r io.Reader) (*Model, error) {
	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	labels, scales, biases, err := readLabelsScalesBiases(br, h.NumClasses)
	if err != nil {
		return nil, err
	}
	weightLen := int64(h.NumBuckets) * int64(h.NumClasses)
	weights := make([]int8, weightLen)
	if err := binary.Read(br, binary.BigEndian, weights); err != nil {
		return nil, errs.Format("readWeights", fmt.Errorf("truncated weight blob: %w", err))
	}
	return newModel(int32(h.NumBuckets), int32(h.NumClasses), labels, scales, biases, &heapStore{weights: weights})
}

// writeTo serializes m as a single-file LDM1 artifact. Deterministic and
// the exact inverse of readFromBuffered / LoadFile.
func writeTo(w io.Writer, m *Model) error {
	if err := writeHeader(w, m.numBuckets, m.numClasses); err != nil {
		return err
	}
	if err := writeLabelsScalesBiases(w, m.labels, m.scales, m.biases); err != nil {
		return err
	}
	raw := m.store.readAll()
	return binary.Write(w, binary.BigEndian, raw)
}
