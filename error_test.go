package docdex_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/docdex"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := docdex.Errorf(docdex.ENOTFOUND, "document %q not found", "abc")

	assert.Equal(t, docdex.ENOTFOUND, docdex.ErrorCode(err))
	assert.Equal(t, "document \"abc\" not found", docdex.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, docdex.ErrorCode(nil))
}

func TestErrorCode_UnknownError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, docdex.EINTERNAL, docdex.ErrorCode(errors.New("boom")))
}

func TestErrorCode_FetchError(t *testing.T) {
	t.Parallel()

	err := &docdex.FetchError{URL: "https://example.com/a.pdf", Status: 503, Transient: true}
	assert.Equal(t, docdex.EFETCH, docdex.ErrorCode(err))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, docdex.ErrorMessage(nil))
}
