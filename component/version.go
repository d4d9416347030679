package component

import (
	"strconv"
	"strings"
)

type (
	// version is a parsed PEP-440-like release version: a leading 'v' is
	// stripped, then the remainder is split on '.' into numeric segments.
	// When either side of a comparison doesn't parse this way, the two raw
	// strings are compared lexicographically instead, per spec §4.3.
	version struct {
		raw      string
		segments []int
		parsed   bool
	}

	// VersionSpecOp selects how VersionSpec.Version constrains a candidate.
	VersionSpecOp string

	// VersionSpec constrains which version of a named component a get_*
	// lookup accepts. An unversioned component matches any VersionSpec
	// (spec §4.3).
	VersionSpec struct {
		Op      VersionSpecOp
		Version string
		// Lt is the exclusive upper bound: the bound of VersionSpecLt, and
		// an optional bound for VersionSpecGte, which then accepts
		// [Version, Lt).
		Lt string
	}
)

const (
	// VersionSpecAny matches any version, including unversioned.
	VersionSpecAny VersionSpecOp = ""
	// VersionSpecEq matches exactly Version.
	VersionSpecEq VersionSpecOp = "eq"
	// VersionSpecGte matches any version >= Version (and < Lt if set).
	VersionSpecGte VersionSpecOp = "gte"
	// VersionSpecLt matches any version < Lt.
	VersionSpecLt VersionSpecOp = "lt"
)

func parseVersion(raw string) version {
	s := strings.TrimPrefix(raw, "v")
	parts := strings.Split(s, ".")
	segs := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return version{raw: raw, parsed: false}
		}
		segs = append(segs, n)
	}
	return version{raw: raw, segments: segs, parsed: true}
}

// CompareVersions orders two raw version strings per spec §4.3: PEP-440-like
// numeric comparison when both parse, lexicographic fallback otherwise, with
// an empty string (unversioned) sorting strictly below any concrete version.
// Returns -1, 0, or 1.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	va, vb := parseVersion(a), parseVersion(b)
	if va.parsed && vb.parsed {
		return compareSegments(va.segments, vb.segments)
	}
	return strings.Compare(a, b)
}

func compareSegments(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Matches reports whether candidate (a raw version string, possibly empty
// for "unversioned") satisfies the spec. An unversioned candidate matches
// any spec.
func (vs VersionSpec) Matches(candidate string) bool {
	if candidate == "" {
		return true
	}
	switch vs.Op {
	case VersionSpecAny:
		return true
	case VersionSpecEq:
		return CompareVersions(candidate, vs.Version) == 0
	case VersionSpecGte:
		if CompareVersions(candidate, vs.Version) < 0 {
			return false
		}
		if vs.Lt != "" && CompareVersions(candidate, vs.Lt) >= 0 {
			return false
		}
		return true
	case VersionSpecLt:
		return vs.Lt != "" && CompareVersions(candidate, vs.Lt) < 0
	default:
		return false
	}
}

// Highest returns the greatest of versions under CompareVersions, or "" if
// versions is empty. Used by a local provider's name-only (no VersionSpec)
// lookup to pick the default version.
func Highest(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if CompareVersions(v, best) > 0 {
			best = v
		}
	}
	return best
}
