package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageIncludesKindOpAndWrapped(t *testing.T) {
	err := BadArgument("newModel", errors.New("num_buckets=0"))
	assert.Contains(t, err.Error(), "bad_argument")
	assert.Contains(t, err.Error(), "newModel")
	assert.Contains(t, err.Error(), "num_buckets=0")
}

func TestErrorMessageWithoutWrappedErr(t *testing.T) {
	err := &Error{Kind: KindUnsupported, Op: "SetPriors"}
	assert.Contains(t, err.Error(), "unsupported")
	assert.Contains(t, err.Error(), "SetPriors")
}

func TestUnwrapReturnsUnderlyingError(t *testing.T) {
	underlying := errors.New("truncated")
	err := Format("readHeader", underlying)
	assert.Equal(t, underlying, errors.Unwrap(err))
}

func TestIsMatchesOnKindNotMessage(t *testing.T) {
	a := Format("readHeader", errors.New("one"))
	b := Format("writeHeader", errors.New("two"))
	c := IO("LoadFile", errors.New("three"))

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "bad_argument", KindBadArgument.String())
	assert.Equal(t, "format", KindFormat.String())
	assert.Equal(t, "io", KindIO.String())
	assert.Equal(t, "unsupported", KindUnsupported.String())
}
