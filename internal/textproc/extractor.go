// Package textproc implements the deterministic text preprocessing and
// codepoint-level n-gram feature extraction described by the
// specification's Feature Extractor component. It must stay
// byte-identical between an offline training pipeline and online
// inference, so every rule here is intentionally explicit rather than
// delegated to locale-sensitive library behavior.
package textproc

import (
	"unicode"

	"github.com/agentx/charsoup/internal/errs"
	"github.com/agentx/charsoup/internal/ngram"
)

// sentinel is the word-boundary marker substituted for a missing
// neighbor at the start or end of a word.
const sentinel = '_'

// tatweel, zwnj (ZWNJ) and zwj (ZWJ) carry no linguistic signal and are
// skipped entirely during tokenization; they neither start nor end a
// word and do not separate the letters around them.
const (
	tatweel = 'ـ'
	zwnj    = '‌'
	zwj     = '‍'
)

// Extractor turns raw or already-preprocessed text into a dense bucket
// count vector. An Extractor is immutable after construction and safe
// for concurrent use by multiple callers.
type Extractor struct {
	numBuckets      int32
	includeTrigrams bool
	patterns        *compiledPatterns
}

// NewExtractor constructs an Extractor over numBuckets buckets.
// includeTrigrams must match the extractor a model was trained with;
// mismatches are a caller contract, not something this type can detect.
func NewExtractor(numBuckets int32, includeTrigrams bool) (*Extractor, error) {
	if numBuckets <= 0 {
		return nil, errs.BadArgument("NewExtractor", nil)
	}
	return &Extractor{
		numBuckets:      numBuckets,
		includeTrigrams: includeTrigrams,
		patterns:        newCompiledPatterns(),
	}, nil
}

// NumBuckets returns B, the length of every vector this extractor emits.
func (e *Extractor) NumBuckets() int32 { return e.numBuckets }

// Preprocess runs truncate -> URL/email strip -> NFC normalize over text.
func (e *Extractor) Preprocess(text string) string {
	return e.patterns.preprocess(text)
}

// Extract runs the full pipeline (preprocess + tokenize) and allocates a
// fresh count vector.
func (e *Extractor) Extract(text string) []int32 {
	buf := make([]int32, e.numBuckets)
	e.ExtractInto(text, buf)
	return buf
}

// ExtractInto zeroes buf, then fills it from the full pipeline over
// text. buf must have length NumBuckets(); this is a caller contract,
// not a checked precondition, to keep the hot path allocation-free.
func (e *Extractor) ExtractInto(text string, buf []int32) {
	clear(buf)
	e.tokenizeInto(e.Preprocess(text), buf)
}

// ExtractPreprocessed skips truncate/strip/normalize, for text that was
// already preprocessed offline, and allocates a fresh count vector.
func (e *Extractor) ExtractPreprocessed(text string) []int32 {
	buf := make([]int32, e.numBuckets)
	e.ExtractPreprocessedInto(text, buf, true)
	return buf
}

// ExtractPreprocessedInto tokenizes already-preprocessed text directly
// into buf. When clear is true the callee never reads buf before
// overwriting it; when clear is false, counts accumulate on top of
// whatever buf already holds, letting callers sum n-gram counts across
// multiple text sources into one vector.
func (e *Extractor) ExtractPreprocessedInto(text string, buf []int32, clear bool) {
	if clear {
		clearInt32(buf)
	}
	e.tokenizeInto(text, buf)
}

func clearInt32(buf []int32) {
	for i := range buf {
		buf[i] = 0
	}
}

// tokenizer state carried across the codepoint loop.
type tokenState struct {
	inWord       bool
	havePrev     bool
	havePrevPrev bool
	prev         rune
	prevPrev     rune
}

func (e *Extractor) tokenizeInto(text string, buf []int32) {
	var st tokenState
	for _, cp := range text {
		if isTransparent(cp) {
			continue
		}
		if unicode.IsLetter(cp) {
			lower := unicode.ToLower(cp)
			e.emitLetter(&st, lower, buf)
			continue
		}
		e.emitSeparatorIfInWord(&st, buf)
	}
	e.emitSeparatorIfInWord(&st, buf)
}

func isTransparent(cp rune) bool {
	if cp < 0x0300 {
		return false
	}
	if cp == tatweel || cp == zwnj || cp == zwj {
		return true
	}
	return unicode.Is(unicode.Mn, cp)
}

func (e *Extractor) emitLetter(st *tokenState, curr rune, buf []int32) {
	if st.inWord {
		e.count(buf, ngram.HashCodepoints(st.prev, curr))
		if e.includeTrigrams && st.havePrevPrev {
			e.count(buf, ngram.HashCodepoints(st.prevPrev, st.prev, curr))
		}
	} else {
		e.count(buf, ngram.HashCodepoints(sentinel, curr))
	}
	st.prevPrev, st.havePrevPrev = st.prev, st.havePrev
	st.prev, st.havePrev = curr, true
	st.inWord = true
}

func (e *Extractor) emitSeparatorIfInWord(st *tokenState, buf []int32) {
	if !st.inWord {
		return
	}
	e.count(buf, ngram.HashCodepoints(st.prev, sentinel))
	if e.includeTrigrams && st.havePrevPrev {
		e.count(buf, ngram.HashCodepoints(st.prevPrev, st.prev, sentinel))
	}
	*st = tokenState{}
}

func (e *Extractor) count(buf []int32, hash uint32) {
	buf[ngram.Bucket(hash, e.numBuckets)]++
}
