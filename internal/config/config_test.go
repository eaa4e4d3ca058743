package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }
func strPtr(s string) *string {
	return &s
}

func TestResolveDefaults(t *testing.T) {
	c := Resolve(nil, nil, nil, nil)
	assert.Equal(t, DefaultMinInserts, c.MinInserts)
	assert.False(t, c.KeepIDMaps)
	assert.False(t, c.Remove)
	assert.Equal(t, DefaultOutputPath, c.OutputPath)
}

func TestResolveEnvOverridesDefault(t *testing.T) {
	t.Setenv("PRISMERGE_MIN_INSERTS", "42")
	t.Setenv("PRISMERGE_KEEP_ID_MAPS", "true")

	c := Resolve(nil, nil, nil, nil)
	assert.Equal(t, 42, c.MinInserts)
	assert.True(t, c.KeepIDMaps)
}

func TestResolveFlagOverridesEnv(t *testing.T) {
	t.Setenv("PRISMERGE_MIN_INSERTS", "42")

	c := Resolve(intPtr(7), nil, nil, nil)
	assert.Equal(t, 7, c.MinInserts)
}

func TestResolveAllExplicit(t *testing.T) {
	c := Resolve(intPtr(5), boolPtr(true), boolPtr(true), strPtr("/tmp/out.db"))
	assert.Equal(t, 5, c.MinInserts)
	assert.True(t, c.KeepIDMaps)
	assert.True(t, c.Remove)
	assert.Equal(t, "/tmp/out.db", c.OutputPath)
}
