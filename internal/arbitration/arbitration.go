// Package arbitration picks among competing candidate character-set
// decodings of the same raw byte stream by reusing the core classifier:
// the candidate whose decoded text produces the strongest, least-junk
// language signal wins.
package arbitration

import (
	"math"
	"regexp"
	"sort"

	"github.com/agentx/charsoup/internal/inference"
	"github.com/agentx/charsoup/internal/textproc"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Outcome annotates how a comparison was decided.
type Outcome string

const (
	Unanimous    Outcome = "unanimous"
	NoStream     Outcome = "no-stream"
	EmptyStream  Outcome = "empty-stream"
	Scored       Outcome = "scored"
	JunkFallback Outcome = "junk-fallback"
	Inconclusive Outcome = "inconclusive"
)

// Config holds the arbitration thresholds from the specification.
type Config struct {
	MinConfidenceThreshold float64
	MaxJunkRatio           float64
}

// DefaultConfig returns the specification's documented defaults.
func DefaultConfig() Config {
	return Config{MinConfidenceThreshold: 0.88, MaxJunkRatio: 0.10}
}

// Result is the outcome of a single comparison. DecisionID identifies
// this comparison for audit logging; it carries no meaning beyond
// correlating a logged decision with the request that produced it.
type Result struct {
	WinnerKey  string
	Found      bool
	Outcome    Outcome
	Confidence float64
	DecisionID string
}

// scorer is the subset of *model.Model the inference kernel needs.
type scorer interface {
	NumBuckets() int32
	NumClasses() int32
	ReadRow(bucket int32, dst []int8)
	Scales() []float32
	Biases() []float32
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags removes `<...>` markup sequences so they cannot pollute the
// language signal. Candidate strings are expected to already have this
// applied by the upstream decoder chooser; it is exported here as a
// convenience for callers assembling candidates.
func StripTags(s string) string { return tagPattern.ReplaceAllString(s, "") }

// Compare picks the candidate (by key) whose decoded text produces the
// strongest language signal. defaultKey names the candidate to treat as
// the baseline when no candidate scores above threshold; it must be a
// key present in candidates when len(candidates) > 0, or Compare treats
// the comparison as having no usable default. A nil logger defaults to
// logrus.StandardLogger(); the chosen outcome is logged before Compare
// returns.
func Compare(m scorer, extractor *textproc.Extractor, cfg Config, candidates map[string]string, defaultKey string, logger *logrus.Logger) (result Result) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	id := uuid.NewString()
	defer func() {
		logger.WithFields(logrus.Fields{
			"decision_id": result.DecisionID,
			"outcome":     result.Outcome,
		}).Info("arbitration: comparison decided")
	}()

	if len(candidates) == 0 {
		return Result{Outcome: NoStream, DecisionID: id}
	}

	keys := sortedKeys(candidates)

	if allEqual(candidates, keys) {
		if len([]rune(candidates[keys[0]])) == 0 {
			return Result{Outcome: EmptyStream, DecisionID: id}
		}
		return Result{WinnerKey: defaultKey, Found: true, Outcome: Unanimous, Confidence: 1.0, DecisionID: id}
	}

	junk := make(map[string]float64, len(candidates))
	for _, k := range keys {
		junk[k] = junkRatio(candidates[k])
	}

	bestKey := ""
	bestConfidence := math.Inf(-1)
	for _, k := range keys {
		if junk[k] > cfg.MaxJunkRatio {
			continue
		}
		features := extractor.Extract(candidates[k])
		logits := inference.PredictLogits(m, features)
		confidence := sigmoid(maxOf(logits))
		if confidence > bestConfidence {
			bestConfidence = confidence
			bestKey = k
		}
	}

	if bestKey != "" && bestConfidence >= cfg.MinConfidenceThreshold {
		return Result{WinnerKey: bestKey, Found: true, Outcome: Scored, Confidence: bestConfidence, DecisionID: id}
	}

	lowestKey := keys[0]
	for _, k := range keys[1:] {
		if junk[k] < junk[lowestKey] {
			lowestKey = k
		}
	}
	if defaultRatio, ok := junk[defaultKey]; ok && junk[lowestKey] < defaultRatio {
		return Result{WinnerKey: lowestKey, Found: true, Outcome: JunkFallback, Confidence: 0, DecisionID: id}
	}

	return Result{WinnerKey: defaultKey, Found: false, Outcome: Inconclusive, Confidence: 0, DecisionID: id}
}

func sortedKeys(candidates map[string]string) []string {
	keys := make([]string, 0, len(candidates))
	for k := range candidates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func allEqual(candidates map[string]string, keys []string) bool {
	first := candidates[keys[0]]
	for _, k := range keys[1:] {
		if candidates[k] != first {
			return false
		}
	}
	return true
}

func maxOf(xs []float32) float32 {
	m := xs[0]
	for _, v := range xs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func sigmoid(x float32) float64 {
	return 1.0 / (1.0 + math.Exp(-float64(x)))
}

// junkRatio is the fraction of text's codepoints that are the Unicode
// replacement character, an ISO C0 control, or a C1 control.
func junkRatio(text string) float64 {
	total := 0
	junk := 0
	for _, cp := range text {
		total++
		if isJunkCodepoint(cp) {
			junk++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(junk) / float64(total)
}

func isJunkCodepoint(cp rune) bool {
	if cp == 0xFFFD {
		return true
	}
	if cp <= 0x1F || cp == 0x7F {
		return true
	}
	if cp >= 0x80 && cp <= 0x9F {
		return true
	}
	return false
}
