package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(fmt.Errorf("disk full"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneKeepsCodeAndMatchesSentinel(t *testing.T) {
	err := Clone(ErrRuleViolation, "Max 3 batches per day for a practical.")
	assert.Equal(t, "Max 3 batches per day for a practical.", err.Error())
	assert.True(t, stderrors.Is(err, ErrRuleViolation))
	assert.False(t, stderrors.Is(err, ErrConflict))

	wrapped := fmt.Errorf("create batch: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrRuleViolation))
	assert.Equal(t, ErrRuleViolation.Code, FromError(wrapped).Code)
}

func TestWithDetailsDoesNotMutateSentinel(t *testing.T) {
	err := WithDetails(ErrConflict, map[string]int{"S1": 1})
	assert.NotNil(t, err.Details)
	assert.Nil(t, ErrConflict.Details)
}
