package idgen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsParseableDistinctUUIDs(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)
	_, err = uuid.Parse(b)
	require.NoError(t, err)
}
