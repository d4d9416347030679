package component

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestCompareVersionsUnversionedSortsBelowAny(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, CompareVersions("", "1.0.0"))
	assert.Equal(t, 1, CompareVersions("1.0.0", ""))
	assert.Equal(t, 0, CompareVersions("", ""))
}

func TestCompareVersionsNumericOrdering(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, CompareVersions("1.2.0", "1.10.0"))
	assert.Equal(t, 0, CompareVersions("v2.0", "2.0"))
	assert.Equal(t, 1, CompareVersions("2.0.1", "2.0"))
}

func TestCompareVersionsLexicographicFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, CompareVersions("alpha", "beta"))
	assert.Equal(t, -1, CompareVersions("1.2", "rc1"))
}

func TestVersionSpecMatchesUnversionedAlways(t *testing.T) {
	t.Parallel()

	spec := VersionSpec{Op: VersionSpecEq, Version: "3.0.0"}
	assert.True(t, spec.Matches(""))
}

func TestVersionSpecRange(t *testing.T) {
	t.Parallel()

	spec := VersionSpec{Op: VersionSpecGte, Version: "1.0.0", Lt: "2.0.0"}
	assert.True(t, spec.Matches("1.5.0"))
	assert.False(t, spec.Matches("2.0.0"))
	assert.False(t, spec.Matches("0.9.0"))
}

func TestHighestPicksGreatestUnderCompareVersions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.10.0", Highest([]string{"1.2.0", "1.10.0", "1.9.0"}))
	assert.Equal(t, "", Highest(nil))
}

// TestCompareVersionsIsAStrictWeakOrdering checks antisymmetry and
// transitivity hold over randomly generated numeric version triples, the
// property the local provider's "default = highest version" lookup depends
// on to be well-defined.
func TestCompareVersionsIsAStrictWeakOrdering(t *testing.T) {
	t.Parallel()

	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	segTriple := gen.SliceOfN(3, gen.IntRange(0, 9)).Map(func(s []int) string {
		out := ""
		for i, n := range s {
			if i > 0 {
				out += "."
			}
			out += string(rune('0' + n))
		}
		return out
	})

	properties.Property("antisymmetric", prop.ForAll(
		func(a, b string) bool {
			return CompareVersions(a, b) == -CompareVersions(b, a)
		},
		segTriple, segTriple,
	))

	properties.Property("transitive", prop.ForAll(
		func(a, b, c string) bool {
			if CompareVersions(a, b) <= 0 && CompareVersions(b, c) <= 0 {
				return CompareVersions(a, c) <= 0
			}
			return true
		},
		segTriple, segTriple, segTriple,
	))

	properties.TestingRun(t)
}
