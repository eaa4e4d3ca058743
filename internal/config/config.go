// Package config resolves merge tunables from CLI flags, PRISMERGE_*
// environment variables, and defaults, in that precedence order.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "PRISMERGE"

const (
	keyMinInserts = "min-inserts"
	keyKeepIDMaps = "keep-id-maps"
	keyRemove     = "remove"
	keyOutputPath = "output-path"
)

// Defaults mirror spec.md §6's CLI defaults.
const (
	DefaultMinInserts = 1000
	DefaultOutputPath = "./merged.db"
)

// Config holds the resolved merge tunables.
type Config struct {
	MinInserts int
	KeepIDMaps bool
	Remove     bool
	OutputPath string
}

// Resolve builds a Config from explicit flag values (as provided by cobra)
// layered over PRISMERGE_* environment variables and the package defaults.
// A nil argument means "flag not explicitly provided"; callers pass
// pointers so Resolve can distinguish "flag given as false" (or zero) from
// "flag omitted".
func Resolve(minInserts *int, keepIDMaps, remove *bool, outputPath *string) Config {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyMinInserts, DefaultMinInserts)
	v.SetDefault(keyKeepIDMaps, false)
	v.SetDefault(keyRemove, false)
	v.SetDefault(keyOutputPath, DefaultOutputPath)

	if minInserts != nil {
		v.Set(keyMinInserts, *minInserts)
	}
	if keepIDMaps != nil {
		v.Set(keyKeepIDMaps, *keepIDMaps)
	}
	if remove != nil {
		v.Set(keyRemove, *remove)
	}
	if outputPath != nil {
		v.Set(keyOutputPath, *outputPath)
	}

	return Config{
		MinInserts: v.GetInt(keyMinInserts),
		KeepIDMaps: v.GetBool(keyKeepIDMaps),
		Remove:     v.GetBool(keyRemove),
		OutputPath: v.GetString(keyOutputPath),
	}
}
