// Package component defines the base types shared by every registrable MCP
// component — Tool, Resource, ResourceTemplate, and Prompt — along with the
// Key derivation and version comparison rules a provider chain uses to
// dedupe, order, and filter them.
package component

import (
	"fmt"
	"strings"
)

// Kind identifies which of the four component shapes a Base describes.
type Kind string

const (
	KindTool             Kind = "tool"
	KindResource         Kind = "resource"
	KindResourceTemplate Kind = "resource_template"
	KindPrompt           Kind = "prompt"
)

type (
	// Base holds the attributes shared by Tool, Resource, ResourceTemplate,
	// and Prompt. Concrete component types embed Base rather than repeat
	// these fields.
	Base struct {
		// Name is non-empty and unique within its kind at a given provider.
		Name string
		// Title is an optional human label, distinct from Name.
		Title string
		// Description is optional free text shown to clients.
		Description string
		// Tags is a set of labels used by tag-filter transforms. Nil and
		// empty both mean "no tags".
		Tags map[string]struct{}
		// Enabled defaults to true. A disabled component is excluded from
		// listings and direct access behaves as if it were absent.
		Enabled bool
		// Version is optional and, when present, must not contain '@' (the
		// key sentinel).
		Version string
		// Meta is a free-form map attached to the component. See
		// MergeMeta for the synthesized-vs-user-supplied merge rule.
		Meta map[string]any
	}

	// Key is the canonical `<kind>:<name>@<version>` identity of a
	// component. The '@' separator is always present, even when Version is
	// empty, so parsing never needs to guess whether a version was
	// supplied.
	Key string
)

// NewKey derives the canonical key for a (kind, name, version) triple.
func NewKey(kind Kind, name, version string) Key {
	return Key(fmt.Sprintf("%s:%s@%s", kind, name, version))
}

// Parse splits a Key back into its kind, name, and version parts. It returns
// false if k is not well-formed.
func (k Key) Parse() (kind Kind, name, version string, ok bool) {
	s := string(k)
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return "", "", "", false
	}
	rest := s[colon+1:]
	at := strings.LastIndexByte(rest, '@')
	if at < 0 {
		return "", "", "", false
	}
	return Kind(s[:colon]), rest[:at], rest[at+1:], true
}

// String implements fmt.Stringer.
func (k Key) String() string { return string(k) }

// ValidateVersion rejects a version string containing the key-sentinel '@'.
func ValidateVersion(version string) error {
	if strings.Contains(version, "@") {
		return fmt.Errorf("version %q must not contain '@'", version)
	}
	return nil
}

// HasTag reports whether b carries the given tag.
func (b Base) HasTag(tag string) bool {
	_, ok := b.Tags[tag]
	return ok
}

// TagSet builds a Base.Tags set from a slice, the form callers typically
// have on hand (registration call arguments, transform configuration).
func TagSet(tags ...string) map[string]struct{} {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		out[t] = struct{}{}
	}
	return out
}

// Key derives the canonical key for b given its kind. Callers normally use
// the typed Key() method on Tool/Resource/ResourceTemplate/Prompt instead,
// which is grounded on this helper.
func (b Base) Key(kind Kind) Key {
	return NewKey(kind, b.Name, b.Version)
}

// TransformFields exposes the fields a transform.Transform inspects or
// mutates. It takes a pointer receiver so the returned Enabled pointer
// aliases the caller's own Base, letting a transform's mutation be visible
// without the caller copying fields back afterward.
func (b *Base) TransformFields() (name string, tags map[string]struct{}, version string, enabled *bool) {
	return b.Name, b.Tags, b.Version, &b.Enabled
}

// fastmcpMetaKey is the reserved meta key under which the dispatcher surfaces
// framework-synthesized metadata (tags, version) when a server is configured
// with include_fastmcp_meta=true.
const fastmcpMetaKey = "_fastmcp"

// MergeMeta combines a component's explicit, user-supplied meta with the
// framework-synthesized meta under the reserved "_fastmcp" key.
//
// When includeFastmcp is false, the synthesized key is omitted entirely and
// userMeta is returned verbatim (a shallow copy, so callers can't mutate the
// component's stored map through the returned value). When true, synthesized
// is attached under "_fastmcp", overwriting any user-supplied key of that
// name — the reserved key is always framework-owned when present.
func MergeMeta(userMeta map[string]any, includeFastmcp bool, synthesized map[string]any) map[string]any {
	if !includeFastmcp {
		if userMeta == nil {
			return nil
		}
		out := make(map[string]any, len(userMeta))
		for k, v := range userMeta {
			out[k] = v
		}
		return out
	}
	out := make(map[string]any, len(userMeta)+1)
	for k, v := range userMeta {
		out[k] = v
	}
	out[fastmcpMetaKey] = synthesized
	return out
}
