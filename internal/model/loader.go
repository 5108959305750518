package model

import (
	"fmt"
	"io"
	"os"

	"github.com/agentx/charsoup/internal/errs"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"
)

// LoadOptions configures how a Model interprets its extractor
// configuration. The LDM1 wire format itself carries no trigram flag;
// callers must supply whatever the training pipeline used. Logger is
// injected rather than read from a package-global; a nil Logger
// defaults to logrus.StandardLogger().
type LoadOptions struct {
	IncludeTrigrams bool
	Logger          *logrus.Logger
}

func (o LoadOptions) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}

func (m *Model) applyOptions(opts LoadOptions) *Model {
	m.includeTrigrams = opts.IncludeTrigrams
	return m
}

// Load parses an LDM1 artifact from a buffered byte source, allocating
// the weight blob on the heap. This is the loader to use for embedded
// model bytes or any io.Reader that is not a local file worth mapping.
func Load(r io.Reader, opts LoadOptions) (*Model, error) {
	log := opts.logger()
	m, err := readFromBuffered(r)
	if err != nil {
		log.WithError(err).Error("model: load failed")
		return nil, err
	}
	m = m.applyOptions(opts)
	log.WithFields(logrus.Fields{
		"num_buckets": m.NumBuckets(),
		"num_classes": m.NumClasses(),
	}).Debug("model: loaded from reader")
	return m, nil
}

// countingReader tracks how many bytes have been read through it, so
// LoadFile can locate the weight section's byte offset without relying
// on a buffered reader's look-ahead position.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// LoadFile parses an LDM1 artifact's header and metadata from path, then
// memory-maps the file and retains a read-only view over the weight
// section rather than copying it to the heap. The mapping is released
// on Model.Close and on every error path below that follows mmap.Open.
func LoadFile(path string, opts LoadOptions) (*Model, error) {
	log := opts.logger()
	f, err := os.Open(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Error("model: LoadFile failed")
		return nil, errs.IO("LoadFile", err)
	}
	cr := &countingReader{r: f}
	h, err := readHeader(cr)
	if err != nil {
		f.Close()
		log.WithError(err).WithField("path", path).Error("model: LoadFile failed")
		return nil, err
	}
	labels, scales, biases, err := readLabelsScalesBiases(cr, h.NumClasses)
	if err != nil {
		f.Close()
		log.WithError(err).WithField("path", path).Error("model: LoadFile failed")
		return nil, err
	}
	weightOffset := cr.n
	info, err := f.Stat()
	if err != nil {
		f.Close()
		log.WithError(err).WithField("path", path).Error("model: LoadFile failed")
		return nil, errs.IO("LoadFile", err)
	}
	f.Close()

	want := int64(h.NumBuckets) * int64(h.NumClasses)
	got := info.Size() - weightOffset
	if got != want {
		err := errs.Format("LoadFile", fmt.Errorf("weight section is %d bytes, want %d (B*C)", got, want))
		log.WithError(err).WithField("path", path).Error("model: LoadFile failed")
		return nil, err
	}

	reader, err := mmap.Open(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Error("model: LoadFile failed")
		return nil, errs.IO("LoadFile", err)
	}
	store := &mmapStore{reader: reader, offset: weightOffset, numClasses: int32(h.NumClasses), count: want}
	m, err := newModel(int32(h.NumBuckets), int32(h.NumClasses), labels, scales, biases, store)
	if err != nil {
		reader.Close()
		log.WithError(err).WithField("path", path).Error("model: LoadFile failed")
		return nil, err
	}
	m = m.applyOptions(opts)
	log.WithFields(logrus.Fields{
		"path":        path,
		"num_buckets": m.NumBuckets(),
		"num_classes": m.NumClasses(),
	}).Debug("model: loaded mmap-backed file")
	return m, nil
}

// LoadSplit loads a model from a raw weight file (directly mappable,
// zero parsing) plus a metadata sidecar carrying the LDM1 header,
// labels, scales and biases. The weight file's size must equal B*C
// exactly; a mismatch releases the mapping before returning the error.
func LoadSplit(weightPath, metaPath string, opts LoadOptions) (*Model, error) {
	log := opts.logger()
	fields := logrus.Fields{"weight_path": weightPath, "meta_path": metaPath}

	metaFile, err := os.Open(metaPath)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("model: LoadSplit failed")
		return nil, errs.IO("LoadSplit", err)
	}
	defer metaFile.Close()

	h, err := readHeader(metaFile)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("model: LoadSplit failed")
		return nil, err
	}
	labels, scales, biases, err := readLabelsScalesBiases(metaFile, h.NumClasses)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("model: LoadSplit failed")
		return nil, err
	}

	want := int64(h.NumBuckets) * int64(h.NumClasses)
	info, err := os.Stat(weightPath)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("model: LoadSplit failed")
		return nil, errs.IO("LoadSplit", err)
	}
	if info.Size() != want {
		err := errs.Format("LoadSplit", fmt.Errorf("weight file is %d bytes, want %d (B*C)", info.Size(), want))
		log.WithError(err).WithFields(fields).Error("model: LoadSplit failed")
		return nil, err
	}

	reader, err := mmap.Open(weightPath)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("model: LoadSplit failed")
		return nil, errs.IO("LoadSplit", err)
	}
	if int64(reader.Len()) != want {
		reader.Close()
		err := errs.Format("LoadSplit", fmt.Errorf("mapped weight file is %d bytes, want %d (B*C)", reader.Len(), want))
		log.WithError(err).WithFields(fields).Error("model: LoadSplit failed")
		return nil, err
	}
	store := &mmapStore{reader: reader, offset: 0, numClasses: int32(h.NumClasses), count: want}
	m, err := newModel(int32(h.NumBuckets), int32(h.NumClasses), labels, scales, biases, store)
	if err != nil {
		reader.Close()
		log.WithError(err).WithFields(fields).Error("model: LoadSplit failed")
		return nil, err
	}
	m = m.applyOptions(opts)
	log.WithFields(logrus.Fields{
		"weight_path": weightPath,
		"meta_path":   metaPath,
		"num_buckets": m.NumBuckets(),
		"num_classes": m.NumClasses(),
	}).Debug("model: loaded split artifact")
	return m, nil
}

// Save writes m as a single-file LDM1 artifact. The inverse of Load and
// LoadFile: Load(bytes.NewReader(buf)) on Save's output reproduces an
// equal model, and Save of that model reproduces the same bytes.
func Save(w io.Writer, m *Model) error { return writeTo(w, m) }

// SaveFile writes m to path as a single-file LDM1 artifact.
func SaveFile(path string, m *Model) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.IO("SaveFile", err)
	}
	defer f.Close()
	if err := writeTo(f, m); err != nil {
		return err
	}
	return f.Sync()
}

// SaveSplit writes m as a raw weight file plus a metadata sidecar,
// the inverse of LoadSplit.
func SaveSplit(weightPath, metaPath string, m *Model) error {
	wf, err := os.Create(weightPath)
	if err != nil {
		return errs.IO("SaveSplit", err)
	}
	defer wf.Close()
	raw := m.store.readAll()
	if err := writeRawInt8(wf, raw); err != nil {
		return err
	}
	if err := wf.Sync(); err != nil {
		return errs.IO("SaveSplit", err)
	}

	mf, err := os.Create(metaPath)
	if err != nil {
		return errs.IO("SaveSplit", err)
	}
	defer mf.Close()
	if err := writeHeader(mf, m.numBuckets, m.numClasses); err != nil {
		return err
	}
	if err := writeLabelsScalesBiases(mf, m.labels, m.scales, m.biases); err != nil {
		return err
	}
	return mf.Sync()
}

func writeRawInt8(w io.Writer, data []int8) error {
	buf := make([]byte, len(data))
	for i, v := range data {
		buf[i] = byte(v)
	}
	_, err := w.Write(buf)
	return err
}
