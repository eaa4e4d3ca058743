package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/camertron/prismerge/internal/schema"
)

func TestExitCodeSuccess(t *testing.T) {
	require.Equal(t, 0, exitCode(nil))
}

func TestExitCodeSchemaViolation(t *testing.T) {
	err := errors.Join(errors.New("merge model Owner"), schema.ErrViolation)
	require.Equal(t, 2, exitCode(err))
}

func TestExitCodeOtherFatalError(t *testing.T) {
	require.Equal(t, 1, exitCode(errors.New("open source a.db: no such file")))
}

func TestParseLogLevel(t *testing.T) {
	_, err := parseLogLevel("debug")
	require.NoError(t, err)

	_, err = parseLogLevel("not-a-level")
	require.Error(t, err)
}

func TestOptionalHelpersDistinguishUnsetFromZeroValue(t *testing.T) {
	require.Nil(t, optionalInt(false, 0))
	require.NotNil(t, optionalInt(true, 0))
	require.Nil(t, optionalBool(false, false))
	require.NotNil(t, optionalBool(true, false))
	require.Nil(t, optionalString(false, ""))
	require.NotNil(t, optionalString(true, ""))
}
