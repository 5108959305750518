// Package detector implements buffered, chunked language detection:
// append text, then run chunked evaluation with entropy-driven early
// exit over a loaded model to produce a ranked, confidence-banded
// result list.
package detector

import (
	"math"
	"sort"

	"github.com/agentx/charsoup/internal/confusables"
	"github.com/agentx/charsoup/internal/errs"
	"github.com/agentx/charsoup/internal/inference"
	"github.com/agentx/charsoup/internal/model"
	"github.com/agentx/charsoup/internal/textproc"
	"github.com/sirupsen/logrus"
)

// scorer is the subset of *model.Model the Detector reads after
// construction.
type scorer interface {
	NumBuckets() int32
	NumClasses() int32
	ReadRow(bucket int32, dst []int8)
	Scales() []float32
	Biases() []float32
	Labels() []string
}

// Detector owns a single mutable codepoint buffer and the entropy of its
// most recent detection. It is not safe for concurrent use; callers
// wanting concurrent detection should construct one Detector per
// goroutine, all sharing the same *model.Model.
type Detector struct {
	model     scorer
	extractor *textproc.Extractor
	groups    *confusables.Table
	cfg       Config
	logger    *logrus.Logger

	buffer      []rune
	lastEntropy float64
}

// New constructs a Detector over m with cfg. A nil logger defaults to
// logrus.StandardLogger().
func New(m *model.Model, cfg Config, logger *logrus.Logger) (*Detector, error) {
	extractor, err := m.CreateExtractor()
	if err != nil {
		return nil, err
	}
	groups, err := confusables.Compile(m.Labels(), confusables.DefaultGroups)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Detector{
		model:       m,
		extractor:   extractor,
		groups:      groups,
		cfg:         cfg,
		logger:      logger,
		lastEntropy: math.NaN(),
	}, nil
}

// AddText appends text's codepoints to the buffer, silently dropping
// anything past cfg.MaxLength. Returns the number of codepoints
// actually appended.
func (d *Detector) AddText(text string) int {
	room := d.cfg.MaxLength - len(d.buffer)
	if room <= 0 {
		return 0
	}
	added := 0
	for _, cp := range text {
		if added >= room {
			break
		}
		d.buffer = append(d.buffer, cp)
		added++
	}
	return added
}

// HasEnoughText reports whether the buffer has reached
// cfg.EnoughTextLength codepoints.
func (d *Detector) HasEnoughText() bool {
	return len(d.buffer) >= d.cfg.EnoughTextLength
}

// Reset clears the buffer and the last observed entropy.
func (d *Detector) Reset() {
	d.buffer = d.buffer[:0]
	d.lastEntropy = math.NaN()
}

// DistributionEntropy returns the entropy (bits) of the most recent
// DetectAll's winning chunk, or NaN if DetectAll has not run (or the
// buffer was reset) since construction.
func (d *Detector) DistributionEntropy() float64 { return d.lastEntropy }

// SetPriors is not supported by the core classifier.
func (d *Detector) SetPriors(map[string]float64) error {
	return errs.Unsupported("SetPriors")
}

// LoadModels (subset loading) is not supported by the core classifier.
func (d *Detector) LoadModels(subset []string) error {
	return errs.Unsupported("LoadModels")
}

func nullResult() []Result {
	return []Result{{Label: "", Band: BandNone, RawProb: 0, ConfidenceScore: math.NaN()}}
}

// DetectAll runs chunked evaluation over the buffer and returns a
// ranked result list. See the package documentation and the
// specification's Detector component for the full algorithm.
func (d *Detector) DetectAll() []Result {
	if len(d.buffer) == 0 {
		d.lastEntropy = math.NaN()
		return nullResult()
	}

	numBuckets := d.model.NumBuckets()
	bestEntropy := math.Inf(1)
	var bestRaw, bestCollapsed []float32
	features := make([]int32, numBuckets)

	chunkSize := d.cfg.ChunkSize
	for start := 0; start < len(d.buffer); start += chunkSize {
		end := start + chunkSize
		if end > len(d.buffer) {
			end = len(d.buffer)
		}
		chunkText := string(d.buffer[start:end])

		d.extractor.ExtractInto(chunkText, features)
		raw := inference.Predict(d.model, features)
		collapsed := confusables.Collapse(raw, d.groups)
		entropy := inference.Entropy(collapsed)

		if entropy < bestEntropy {
			bestEntropy = entropy
			bestRaw = raw
			bestCollapsed = collapsed
		}
		if bestEntropy < d.cfg.EntropyThreshold {
			break
		}
	}

	// Recomputed on the winning chunk's collapsed distribution, per the
	// spec's detect_all algorithm, rather than reused from the loop.
	d.lastEntropy = inference.Entropy(bestCollapsed)

	clampedEntropy := bestEntropy
	if clampedEntropy > d.cfg.MaxEntropyForConfidence {
		clampedEntropy = d.cfg.MaxEntropyForConfidence
	}
	confidenceScore := 1.0 / (1.0 + clampedEntropy)

	labels := d.model.Labels()
	order := make([]int, len(bestRaw))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return bestRaw[order[i]] > bestRaw[order[j]] })

	results := make([]Result, len(order))
	for rank, idx := range order {
		results[rank] = Result{
			Label:           labels[idx],
			RawProb:         bestRaw[idx],
			Band:            bandFor(bestRaw[idx], bestEntropy),
			ConfidenceScore: confidenceScore,
		}
	}

	if len(results) == 0 || results[0].Band == BandNone {
		top := float32(0)
		if len(results) > 0 {
			top = results[0].RawProb
		}
		return []Result{{Label: "", Band: BandNone, RawProb: top, ConfidenceScore: confidenceScore}}
	}
	return results
}
