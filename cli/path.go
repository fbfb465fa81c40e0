package cli

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/splice/pkg"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config"

// DefaultDirMode is the default permission mode for created directories.
var defaultDirMode os.FileMode = 0o700 //nolint:gochecknoglobals

// configPath returns the absolute path to a file or directory formed by joining
// the global configuration directory path with the given path elements.
//
// If no elements are given, it is equivalent to calling [pkg.ConfigDir].
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// cachePath is [configPath] for the cache directory.
func cachePath(elem ...string) string {
	return filepath.Join(append([]string{pkg.CacheDir()}, elem...)...)
}

// mkdirAllRequired creates all required runtime directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}

// searchEnv returns the name of the environment variable holding the
// default include search path.
func searchEnv() string { return pkg.EnvPrefix() + "_PATH" }

// includePath returns the include search path: the directories in dirs
// followed by those listed in env, which uses the PATH list syntax of the
// host. Empty and repeated entries are dropped.
func includePath(env string, dirs ...string) []string {
	// Each prefix is prepended in turn, so the last one given leads.
	prefix := slices.Clone(dirs)
	slices.Reverse(prefix)

	list := mung.Make(
		mung.WithSubjectItems(env),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()

	var out []string

	seen := make(map[string]bool)

	for _, dir := range filepath.SplitList(list) {
		if strings.TrimSpace(dir) == "" {
			continue
		}

		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}

		seen[dir] = true
		out = append(out, dir)
	}

	return out
}
