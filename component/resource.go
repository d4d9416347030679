package component

import "context"

type (
	// ResourceCallable produces the content of a Resource on read. Exactly
	// one of Content (eager) or Fn (lazy) is set on a given Resource.
	ResourceCallable func(ctx context.Context) (any, error)

	// Resource is a component keyed by URI rather than by name within a
	// provider's URI index.
	Resource struct {
		Base
		// URI must be a valid URI with scheme and path.
		URI string
		// MimeType is advisory; exec.ReadResource infers one from the URI
		// path extension (exec.MimeFromExtension) when empty.
		MimeType string
		// Content is eager string|[]byte content. Mutually exclusive with Fn.
		Content any
		// Fn lazily produces content on each read. Mutually exclusive with
		// Content.
		Fn ResourceCallable
	}

	// TemplateCallable produces the content of a ResourceTemplate match,
	// receiving the parameters extracted from the concrete URI.
	TemplateCallable func(ctx context.Context, params map[string]string) (any, error)

	// ResourceTemplate is a parametric resource matched against incoming
	// URIs via an RFC-6570-subset pattern (see package uritemplate).
	ResourceTemplate struct {
		Base
		// URITemplate is the RFC-6570-subset pattern, e.g. "users://{id}/profile".
		URITemplate string
		// ParamNames are the variable names extracted from URITemplate, in
		// declaration order.
		ParamNames []string
		MimeType   string
		Fn         TemplateCallable
	}
)

// Key returns the resource's canonical registry key. Resources are also
// indexed by URI; Key is used for duplicate-policy and transform bookkeeping.
func (r *Resource) Key() Key { return r.Base.Key(KindResource) }

// Clone returns a shallow copy of r, decoupling its Base.Enabled field
// from the registered original so a caller can fold per-request
// transforms (session visibility) without mutating shared state.
func (r *Resource) Clone() *Resource {
	c := *r
	return &c
}

// Key returns the resource template's canonical registry key.
func (t *ResourceTemplate) Key() Key { return t.Base.Key(KindResourceTemplate) }

// Clone returns a shallow copy of t, decoupling its Base.Enabled field
// from the registered original so a caller can fold per-request
// transforms (session visibility) without mutating shared state.
func (t *ResourceTemplate) Clone() *ResourceTemplate {
	c := *t
	return &c
}
