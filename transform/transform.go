// Package transform implements the built-in component transforms of spec
// §4.6: tag-based filtering, enabled marking, and version-range filtering.
// A Transform rewrites or annotates a list of components in place; the
// provider chain and dispatcher apply transforms in a fixed order so that
// later marks (in particular, session-scoped rules) override earlier ones.
package transform

import "goa.design/mcpcore/component"

// Transform narrows or marks a slice of components. Implementations must
// not reorder or resize the slice — only mutate each element's Enabled
// field or otherwise tag it — so callers can apply several transforms in
// sequence without losing positional correspondence to the underlying
// provider result.
type Transform interface {
	Apply(items []Item)
}

// Item is the minimal surface a Transform needs: access to a component's
// Base fields without depending on the specific Tool/Resource/Prompt type.
// Callers adapt their concrete slices into []Item with ToItems below.
type Item interface {
	Name() string
	Tags() map[string]struct{}
	Version() string
	SetEnabled(bool)
	Enabled() bool
}

type (
	// TagFilter includes or excludes components by tag set. Exclude
	// dominates Include when both match a component (spec §4.6).
	TagFilter struct {
		Include map[string]struct{}
		Exclude map[string]struct{}
	}

	// EnabledMark unconditionally sets Enabled on every item it's applied
	// to. Used to implement session visibility rules (spec §4.6): later
	// marks in the pipeline override earlier ones since each Apply call
	// simply overwrites the field.
	EnabledMark struct {
		Enabled bool
		// Match optionally restricts which items the mark applies to, by
		// name. Nil means "all items in the slice passed to Apply" — the
		// caller is expected to have already filtered the slice to the
		// intended target (by key/tag/kind) before invoking EnabledMark.
		Match func(Item) bool
	}

	// VersionFilter hides components whose version falls outside
	// [Gte, Lt). An empty Gte/Lt leaves that bound open. Unversioned
	// components are exempt from the filter by policy (spec §4.6).
	VersionFilter struct {
		Gte string
		Lt  string
	}
)

// Apply implements Transform for TagFilter.
func (f TagFilter) Apply(items []Item) {
	for _, it := range items {
		tags := it.Tags()
		if matchesAny(tags, f.Exclude) {
			it.SetEnabled(false)
			continue
		}
		if len(f.Include) > 0 && !matchesAny(tags, f.Include) {
			it.SetEnabled(false)
		}
	}
}

func matchesAny(tags map[string]struct{}, set map[string]struct{}) bool {
	if len(set) == 0 {
		return false
	}
	for t := range tags {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// Apply implements Transform for EnabledMark.
func (m EnabledMark) Apply(items []Item) {
	for _, it := range items {
		if m.Match != nil && !m.Match(it) {
			continue
		}
		it.SetEnabled(m.Enabled)
	}
}

// Apply implements Transform for VersionFilter.
func (f VersionFilter) Apply(items []Item) {
	for _, it := range items {
		v := it.Version()
		if v == "" {
			continue // unversioned components are exempt
		}
		if f.Gte != "" && component.CompareVersions(v, f.Gte) < 0 {
			it.SetEnabled(false)
			continue
		}
		if f.Lt != "" && component.CompareVersions(v, f.Lt) >= 0 {
			it.SetEnabled(false)
		}
	}
}

// Chain runs transforms in order against items, each seeing the mutations
// of the ones before it — the mechanism session rules rely on to override
// global tag/version filters (spec §4.6).
func Chain(items []Item, transforms ...Transform) {
	for _, t := range transforms {
		t.Apply(items)
	}
}
