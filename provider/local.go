package provider

import (
	"context"
	"fmt"
	"sync"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/errs"
	"goa.design/mcpcore/telemetry"
	"goa.design/mcpcore/uritemplate"
)

// DuplicatePolicy controls what happens when a registration collides with
// an existing component under the same key (spec §4.2).
type DuplicatePolicy string

const (
	PolicyWarn    DuplicatePolicy = "warn"
	PolicyError   DuplicatePolicy = "error"
	PolicyReplace DuplicatePolicy = "replace"
	PolicyIgnore  DuplicatePolicy = "ignore"
)

// LocalProvider holds directly-registered components. It is always present
// in a server's provider chain and always consulted first (spec §4.2).
type LocalProvider struct {
	mu     sync.RWMutex
	policy DuplicatePolicy
	log    telemetry.Logger

	tools     map[component.Key]*component.Tool
	resources map[string]*component.Resource // keyed by URI
	templates map[component.Key]*component.ResourceTemplate
	prompts   map[component.Key]*component.Prompt

	// templateOrder and templatePatterns preserve registration order and
	// the compiled matcher for each template, since concrete-before-
	// template and registration-order precedence both depend on order
	// that a plain map cannot provide (spec §4.5).
	templateOrder    []component.Key
	templatePatterns map[component.Key]*uritemplate.Template

	// toolVersions and promptVersions index the versions registered for a
	// bare name, per kind, so
	// a versionless lookup can find the highest version and so the
	// version-mixing invariant can be checked on registration.
	toolVersions   map[string][]string
	promptVersions map[string][]string
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider constructs an empty LocalProvider with the given
// duplicate policy. A nil logger is replaced with telemetry.NewNoopLogger().
func NewLocalProvider(policy DuplicatePolicy, log telemetry.Logger) *LocalProvider {
	if log == nil {
		log = telemetry.NewNoopLogger()
	}
	return &LocalProvider{
		policy:           policy,
		log:              log,
		tools:            map[component.Key]*component.Tool{},
		resources:        map[string]*component.Resource{},
		templates:        map[component.Key]*component.ResourceTemplate{},
		prompts:          map[component.Key]*component.Prompt{},
		toolVersions:     map[string][]string{},
		promptVersions:   map[string][]string{},
		templatePatterns: map[component.Key]*uritemplate.Template{},
	}
}

// AddTool registers a tool, applying the duplicate policy on key collision
// and rejecting a version/no-version mix for the same name (spec §4.2).
func (p *LocalProvider) AddTool(ctx context.Context, t *component.Tool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkVersionMix(p.toolVersions[t.Name], t.Version); err != nil {
		return errs.Wrap(errs.KindValidation, "", err)
	}
	key := t.Key()
	if _, exists := p.tools[key]; exists {
		proceed, err := p.resolveDuplicate(ctx, string(key))
		if err != nil || !proceed {
			return err
		}
	}
	p.tools[key] = t
	p.toolVersions[t.Name] = appendUnique(p.toolVersions[t.Name], t.Version)
	return nil
}

// AddResource registers a resource, keyed by URI.
func (p *LocalProvider) AddResource(ctx context.Context, r *component.Resource) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.resources[r.URI]; exists {
		proceed, err := p.resolveDuplicate(ctx, r.URI)
		if err != nil || !proceed {
			return err
		}
	}
	p.resources[r.URI] = r
	return nil
}

// AddResourceTemplate registers a resource template, compiling its URI
// pattern via package uritemplate so GetResourceTemplate can match
// incoming concrete URIs against it in registration order (spec §4.5).
func (p *LocalProvider) AddResourceTemplate(ctx context.Context, t *component.ResourceTemplate) error {
	pattern, err := uritemplate.Compile(t.URITemplate)
	if err != nil {
		return errs.Wrap(errs.KindValidation, "", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := t.Key()
	if _, exists := p.templates[key]; exists {
		proceed, err := p.resolveDuplicate(ctx, string(key))
		if err != nil || !proceed {
			return err
		}
	} else {
		p.templateOrder = append(p.templateOrder, key)
	}
	p.templates[key] = t
	p.templatePatterns[key] = pattern
	return nil
}

// AddPrompt registers a prompt, applying the same version-mix rule as tools.
func (p *LocalProvider) AddPrompt(ctx context.Context, pr *component.Prompt) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkVersionMix(p.promptVersions[pr.Name], pr.Version); err != nil {
		return errs.Wrap(errs.KindValidation, "", err)
	}
	key := pr.Key()
	if _, exists := p.prompts[key]; exists {
		proceed, err := p.resolveDuplicate(ctx, string(key))
		if err != nil || !proceed {
			return err
		}
	}
	p.prompts[key] = pr
	p.promptVersions[pr.Name] = appendUnique(p.promptVersions[pr.Name], pr.Version)
	return nil
}

// resolveDuplicate applies p.policy to a collision on identifier. It must
// be called with p.mu held. proceed reports whether the caller should still
// perform the write (true for replace, false for warn/ignore, so the first
// registration wins); err is non-nil only under PolicyError.
func (p *LocalProvider) resolveDuplicate(ctx context.Context, identifier string) (proceed bool, err error) {
	switch p.policy {
	case PolicyError:
		return false, errs.New(errs.KindValidation, fmt.Sprintf("duplicate component registration: %s", identifier))
	case PolicyWarn:
		p.log.Warn(ctx, "duplicate component registration", "key", identifier)
		return false, nil
	case PolicyIgnore:
		return false, nil
	case PolicyReplace:
		return true, nil
	default:
		return true, nil
	}
}

func checkVersionMix(existing []string, version string) error {
	if len(existing) == 0 {
		return nil
	}
	hasUnversioned := false
	hasVersioned := false
	for _, v := range existing {
		if v == "" {
			hasUnversioned = true
		} else {
			hasVersioned = true
		}
	}
	if version == "" && hasVersioned {
		return fmt.Errorf("cannot register an unversioned component alongside versioned ones of the same name")
	}
	if version != "" && hasUnversioned {
		return fmt.Errorf("cannot register a versioned component alongside an unversioned one of the same name")
	}
	return nil
}

func appendUnique(versions []string, v string) []string {
	for _, existing := range versions {
		if existing == v {
			return versions
		}
	}
	return append(versions, v)
}

// ListTools returns every registered tool, disabled ones included; the
// dispatcher drops disabled tools from listings.
func (p *LocalProvider) ListTools(ctx context.Context) ([]*component.Tool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*component.Tool, 0, len(p.tools))
	for _, t := range p.tools {
		out = append(out, t)
	}
	return out, nil
}

// GetTool resolves a tool by name. With vs nil, returns the highest
// registered version; an enabled=false match behaves as not-found at this
// layer (nil, nil, which the dispatcher reports as KindNotFound).
func (p *LocalProvider) GetTool(ctx context.Context, name string, vs *component.VersionSpec) (*component.Tool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	versions := p.toolVersions[name]
	version := pickVersion(versions, vs)
	if version == "" && len(versions) == 0 {
		return nil, nil
	}
	t, ok := p.tools[component.NewKey(component.KindTool, name, version)]
	if !ok || !t.Enabled {
		return nil, nil
	}
	return t, nil
}

// pickVersion resolves which concrete version to return for a name lookup:
// the highest version matching vs, or the sole unversioned registration.
func pickVersion(versions []string, vs *component.VersionSpec) string {
	if len(versions) == 0 {
		return ""
	}
	if len(versions) == 1 && versions[0] == "" {
		return ""
	}
	var candidates []string
	for _, v := range versions {
		if vs == nil || vs.Matches(v) {
			candidates = append(candidates, v)
		}
	}
	return component.Highest(candidates)
}

// GetResource resolves a resource by exact URI. Disabled resources are
// treated as absent.
func (p *LocalProvider) GetResource(ctx context.Context, uri string) (*component.Resource, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.resources[uri]
	if !ok || !r.Enabled {
		return nil, nil
	}
	return r, nil
}

// ListResources returns every registered resource.
func (p *LocalProvider) ListResources(ctx context.Context) ([]*component.Resource, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*component.Resource, 0, len(p.resources))
	for _, r := range p.resources {
		out = append(out, r)
	}
	return out, nil
}

// ListResourceTemplates returns every registered resource template.
func (p *LocalProvider) ListResourceTemplates(ctx context.Context) ([]*component.ResourceTemplate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*component.ResourceTemplate, 0, len(p.templates))
	for _, t := range p.templates {
		out = append(out, t)
	}
	return out, nil
}

// GetResourceTemplate matches uri against registered templates in
// registration order, returning the first enabled match (spec §4.5: "first
// match wins, so a broad wildcard template registered before a specific one
// shadows it"). Concrete-before-template precedence is the provider chain's
// responsibility: callers try GetResource before GetResourceTemplate.
func (p *LocalProvider) GetResourceTemplate(ctx context.Context, uri string) (*component.ResourceTemplate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, key := range p.templateOrder {
		t := p.templates[key]
		if !t.Enabled {
			continue
		}
		if _, ok := p.templatePatterns[key].Match(uri); ok {
			return t, nil
		}
	}
	return nil, nil
}

// GetPrompt resolves a prompt by name, same version semantics as GetTool.
func (p *LocalProvider) GetPrompt(ctx context.Context, name string, vs *component.VersionSpec) (*component.Prompt, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	versions := p.promptVersions[name]
	version := pickVersion(versions, vs)
	if version == "" && len(versions) == 0 {
		return nil, nil
	}
	pr, ok := p.prompts[component.NewKey(component.KindPrompt, name, version)]
	if !ok || !pr.Enabled {
		return nil, nil
	}
	return pr, nil
}

// ListPrompts returns every registered prompt.
func (p *LocalProvider) ListPrompts(ctx context.Context) ([]*component.Prompt, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*component.Prompt, 0, len(p.prompts))
	for _, pr := range p.prompts {
		out = append(out, pr)
	}
	return out, nil
}

// GetComponent resolves any kind of component by its canonical key.
func (p *LocalProvider) GetComponent(ctx context.Context, key component.Key) (any, error) {
	kind, _, _, ok := key.Parse()
	if !ok {
		return nil, nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch kind {
	case component.KindTool:
		if t, ok := p.tools[key]; ok {
			return t, nil
		}
	case component.KindResource:
		for _, r := range p.resources {
			if r.Key() == key {
				return r, nil
			}
		}
	case component.KindResourceTemplate:
		if t, ok := p.templates[key]; ok {
			return t, nil
		}
	case component.KindPrompt:
		if pr, ok := p.prompts[key]; ok {
			return pr, nil
		}
	}
	return nil, nil
}

// ListTasks returns nil: the local provider has no task awareness of its
// own (spec §4.4, "optional; empty by default").
func (p *LocalProvider) ListTasks(ctx context.Context) ([]any, error) { return nil, nil }

// Lifespan is a no-op for LocalProvider: it owns no external resources.
func (p *LocalProvider) Lifespan(ctx context.Context) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
