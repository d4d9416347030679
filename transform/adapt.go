package transform

// baseItem adapts a *component.Base pointer into the Item interface
// transforms operate on. Every concrete component type exposes its
// embedded Base by pointer (Tool.Base, Resource.Base, ...), so ToItems
// below works uniformly across kinds.
type baseItem struct {
	name    string
	tags    map[string]struct{}
	version string
	enabled *bool
}

func (b baseItem) Name() string              { return b.name }
func (b baseItem) Tags() map[string]struct{} { return b.tags }
func (b baseItem) Version() string           { return b.version }
func (b baseItem) Enabled() bool             { return *b.enabled }
func (b baseItem) SetEnabled(v bool)         { *b.enabled = v }

// BaseAccessor exposes the fields of a component.Base a Transform needs,
// without requiring callers to import a shared interface into every
// component type. Tool, Resource, ResourceTemplate, and Prompt each satisfy
// it via their embedded Base plus a small adapter method.
type BaseAccessor interface {
	TransformFields() (name string, tags map[string]struct{}, version string, enabled *bool)
}

// ToItems adapts a slice of BaseAccessor-satisfying components into the
// []Item a Transform pipeline consumes. The returned items alias the
// underlying components' Enabled fields, so Chain's mutations are visible
// on the original slice.
func ToItems[T BaseAccessor](components []T) []Item {
	out := make([]Item, len(components))
	for i, c := range components {
		name, tags, version, enabled := c.TransformFields()
		out[i] = baseItem{name: name, tags: tags, version: version, enabled: enabled}
	}
	return out
}
