package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("remote timed out")
	err := Wrap(CodeDependency, cause, "giav call failed")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeDependency, err.Code())
	assert.Equal(t, "DEPENDENCY_ERROR: giav call failed", err.Error())
}

func TestWrapNilCauseBehavesLikeNew(t *testing.T) {
	err := Wrap(CodeValidation, nil, "missing supplier")
	assert.Equal(t, CodeValidation, err.Code())
	assert.Nil(t, err.Unwrap())
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeStateConflict, "proposal already accepted")
	wrapped := fmt.Errorf("handling accept: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeStateConflict, typed.Code())

	assert.Nil(t, As(errors.New("plain")))
	assert.Nil(t, As(nil))
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestMetadataGoneMapsToNotFoundStatus(t *testing.T) {
	meta := MetadataFor(CodeGone)
	assert.Equal(t, http.StatusNotFound, meta.HTTPStatus)
	assert.False(t, meta.Retryable)
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeInternal, errors.New("root"), "outer")
	d := Dump(err)

	assert.Equal(t, CodeInternal, d.Code)
	assert.Len(t, d.Chain, 2)
	assert.Contains(t, d.TopMessage, "outer")
}
