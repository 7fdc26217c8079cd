package core

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"depbundle/internal/types"
)

// mergedKeyCap bounds the number of packages peeled from a single lock key,
// so malformed underscore chains fail instead of looping.
const mergedKeyCap = 32

// SplitNameVersion splits "name@version" into its parts. The version
// separator is the first "@" after any leading "@scope/" segment; an empty
// version after that point is a format error.
func SplitNameVersion(key string) (string, string, error) {
	at := versionSeparator(key)
	if at <= 0 {
		return "", "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("malformed name@version: %s", key))
	}
	name := key[:at]
	version := key[at+1:]
	if version == "" {
		return "", "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("empty version in lock key: %s", key))
	}
	return name, version, nil
}

// versionSeparator returns the index of the "@" separating name from version,
// or -1 when the string carries no version. Scoped names keep their leading
// "@scope/" intact.
func versionSeparator(key string) int {
	start := 0
	if strings.HasPrefix(key, "@") {
		// Scoped names separate scope and name with "/", or "+" in the
		// flattened store encoding.
		slash := strings.IndexAny(key, "/+")
		if slash < 0 {
			return -1
		}
		start = slash + 1
	}
	at := strings.Index(key[start:], "@")
	if at < 0 {
		return -1
	}
	return start + at
}

// ParseStrictLabel attempts strict parsing of a raw tree label: the name must
// be non-empty and the version part must be a pinned semantic version.
func ParseStrictLabel(label string) (string, string, bool) {
	at := versionSeparator(label)
	if at <= 0 || at+1 >= len(label) {
		return "", "", false
	}
	name := label[:at]
	version := label[at+1:]
	if _, err := semver.StrictNewVersion(version); err != nil {
		return "", "", false
	}
	return name, version, true
}

// CleanName strips everything from the version separator onward, leaving the
// bare package name. Labels without a version pass through unchanged.
func CleanName(label string) string {
	at := versionSeparator(label)
	if at <= 0 {
		return label
	}
	return label[:at]
}

// VersionSpecifier returns the specifier portion of a raw label, or "" when
// the label carries none.
func VersionSpecifier(label string) string {
	at := versionSeparator(label)
	if at <= 0 || at+1 >= len(label) {
		return ""
	}
	return label[at+1:]
}

// IsRangeSpecifier reports whether a specifier looks like a semantic-version
// range rather than a pinned version. Only the leading range operators are
// inspected; this mirrors how the listing tool annotates non-pinned entries.
func IsRangeSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, "^") || strings.HasPrefix(specifier, "~")
}

// SplitMergedKey expands a lock key that may jointly describe several
// packages joined by underscores in its version suffix, e.g.
// "fdir@6.4.6_picomatch@4.0.2" denotes two independent packages. Pairs are
// peeled from the front until the key is exhausted.
func SplitMergedKey(key string) ([]string, error) {
	var parts []string
	rest := key
	for i := 0; rest != ""; i++ {
		if i >= mergedKeyCap {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("lock key exceeds merge expansion limit: %s", key))
		}
		at := versionSeparator(rest)
		if at <= 0 || at+1 >= len(rest) {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("malformed merged lock key: %s", key))
		}
		name := rest[:at]
		tail := rest[at+1:]
		version := tail
		next := ""
		// The version runs until an embedded underscore introduces the
		// next package.
		if sep := strings.Index(tail, "_"); sep >= 0 {
			version = tail[:sep]
			next = tail[sep+1:]
		}
		if version == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("empty version in merged lock key: %s", key))
		}
		parts = append(parts, name+"@"+version)
		rest = next
	}
	if len(parts) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty lock key")
	}
	return parts, nil
}

// SplitDependencyRef normalizes one declared dependency string into its
// registry and "name[@version]" reference. Two notations are recognized on
// top of the plain form:
//
//   - "npm:lodash@4.17.21" — explicit registry prefix.
//   - "alias@npm:real@1.0.0" — rebind notation: an alias name followed by the
//     real target, recognizable because an "@" appears before the first ":".
//     The alias is discarded and only the real target is kept.
//
// References without an explicit registry prefix belong to the same registry
// as their parent entry.
func SplitDependencyRef(ref string, parent types.RegistryID) (types.RegistryID, string) {
	colon := strings.Index(ref, ":")
	if colon < 0 {
		return parent, ref
	}
	prefix := ref[:colon]
	if at := strings.LastIndex(prefix, "@"); at >= 0 {
		return types.RegistryID(prefix[at+1:]), ref[colon+1:]
	}
	return types.RegistryID(prefix), ref[colon+1:]
}
