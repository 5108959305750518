package textproc

import (
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// MaxCodepoints is the hard cap on preprocessed text length, measured in
// Unicode codepoints (not UTF-16 code units), so behaviour does not
// depend on the platform's native string representation.
const MaxCodepoints = 100000

const (
	urlPattern   = `https?://[-_.?&~;+=/#0-9A-Za-z]{10,10000}`
	emailPattern = `[-_.0-9A-Za-z]{1,100}@[-_0-9A-Za-z]{1,100}[-_.0-9A-Za-z]{1,100}`
)

// compiledPatterns holds the two regexes the spec requires be compiled
// once and owned by the extractor rather than cached behind a package
// global. Both are immutable after construction.
type compiledPatterns struct {
	url   *regexp.Regexp
	email *regexp.Regexp
}

func newCompiledPatterns() *compiledPatterns {
	return &compiledPatterns{
		url:   regexp.MustCompile(urlPattern),
		email: regexp.MustCompile(emailPattern),
	}
}

// preprocess runs truncate -> URL/email strip -> NFC normalize, in that
// order. It is idempotent: preprocess(preprocess(t)) == preprocess(t) for
// every already-NFC t, because truncation of already-short text is a no-op, stripped
// text contains no further URL/email matches, and NFC-normalizing
// already-NFC text returns it unchanged.
func (p *compiledPatterns) preprocess(text string) string {
	text = truncateCodepoints(text, MaxCodepoints)
	text = p.url.ReplaceAllString(text, " ")
	text = p.email.ReplaceAllString(text, " ")
	if norm.NFC.IsNormalString(text) {
		return text
	}
	return norm.NFC.String(text)
}

// truncateCodepoints returns the prefix of text containing at most max
// Unicode codepoints, splitting on rune boundaries only.
func truncateCodepoints(text string, max int) string {
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}
