// Package cmd implements the splice subcommands.
//
// Both commands load their input files into one translation unit, running
// every constexpr block and injection as declarations are read. apply prints
// the resulting declarations as C++-like source and dump encodes them as
// YAML or JSON.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
