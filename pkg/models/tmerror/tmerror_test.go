package tmerror_test

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/tidemark-db/tidemark/pkg/models/tmerror"
)

func TestErrorCode(t *testing.T) {
	assert := assert.New(t)

	err := tmerror.Newf(tmerror.TIDE_OVERFLOW, "int64 overflow: %d + %d", 1, 2)
	assert.Equal(tmerror.TIDE_OVERFLOW, tmerror.ErrorCode(err))
	assert.Contains(err.Error(), "TIDEO")

	wrapped := errors.Wrap(err, "sync failed")
	assert.Equal(tmerror.TIDE_OVERFLOW, tmerror.ErrorCode(wrapped))

	assert.Equal(tmerror.TIDE_UNEXPECTED, tmerror.ErrorCode(fmt.Errorf("plain")))
	assert.Equal("Unexpected error", tmerror.GetMessageByCode("NOPE"))
}

func TestIsConflict(t *testing.T) {
	assert := assert.New(t)

	assert.True(tmerror.IsConflict(tmerror.New(tmerror.TIDE_COMMIT_CONFLICT, "lost the race")))
	assert.False(tmerror.IsConflict(tmerror.New(tmerror.TIDE_OVERFLOW, "overflow")))
	assert.False(tmerror.IsConflict(fmt.Errorf("plain")))
}
