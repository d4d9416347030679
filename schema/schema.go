// Package schema implements the core's schema engine (spec §4.1): deriving
// an object-typed JSON Schema from a tool's declared parameters, compressing
// and rewriting $ref-bearing output schemas, wrapping non-object return
// types, and validating/coercing client-supplied arguments.
package schema

import (
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

type (
	// ParamKind is the JSON Schema primitive a Param maps to. Container
	// kinds (array/object) carry their element/property schema inline on
	// the Param via Items/Properties.
	ParamKind string

	// Param describes one parameter the schema engine turns into an
	// InputSchema property. A Go tool registration builds a []Param the
	// way the Python source inspects a function signature: this is the
	// translation of that introspection step into an explicit, static
	// description, since Go has no runtime parameter-name reflection.
	Param struct {
		Name        string
		Kind        ParamKind
		Description string
		// Required is false when the parameter has a default; the
		// argument may then be omitted by the caller.
		Required bool
		Default  any
		// IsContext marks a parameter satisfied by dependency injection
		// (the mcpcontext.Context, CurrentServer, CurrentQueue, and so on)
		// rather than client-supplied JSON. Context parameters are dropped
		// from the schema entirely, like ExcludeArgs.
		IsContext bool
		// Inject names which injected value this parameter resolves to when
		// IsContext is set (spec §4.9 step 2: Context/CurrentServer/
		// CurrentQueue/CurrentWorker). Empty when IsContext is false.
		Inject InjectKind
		// Items describes the element schema when Kind is ParamArray.
		Items *Param
		// Properties describes nested fields when Kind is ParamObject.
		Properties []Param
		// Extra carries additional JSON Schema keywords (format, enum,
		// minimum, pattern, ...) merged into the generated property schema
		// — the Go equivalent of constraints the Python source reads off
		// an annotated type.
		Extra map[string]any
	}
)

const (
	ParamString  ParamKind = "string"
	ParamInteger ParamKind = "integer"
	ParamNumber  ParamKind = "number"
	ParamBoolean ParamKind = "boolean"
	ParamArray   ParamKind = "array"
	ParamObject  ParamKind = "object"
)

// InjectKind names a dependency-injected parameter's source (spec §4.9
// step 2).
type InjectKind string

const (
	InjectContext InjectKind = "context"
	InjectServer  InjectKind = "server"
	InjectQueue   InjectKind = "queue"
	InjectWorker  InjectKind = "worker"
)

// DeriveInputSchema builds the object-typed input schema for a tool from its
// declared parameters, dropping context parameters and any name listed in
// excludeArgs (spec §4.1: "drops parameters listed in exclude_args").
func DeriveInputSchema(params []Param, excludeArgs []string) map[string]any {
	excluded := make(map[string]struct{}, len(excludeArgs))
	for _, n := range excludeArgs {
		excluded[n] = struct{}{}
	}

	properties := map[string]any{}
	var required []string
	for _, p := range params {
		if p.IsContext {
			continue
		}
		if _, skip := excluded[p.Name]; skip {
			continue
		}
		properties[p.Name] = paramSchema(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}
	sort.Strings(required)

	out := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func paramSchema(p Param) map[string]any {
	s := map[string]any{"type": string(p.Kind)}
	if p.Description != "" {
		s["description"] = p.Description
	}
	switch p.Kind {
	case ParamArray:
		if p.Items != nil {
			s["items"] = paramSchema(*p.Items)
		}
	case ParamObject:
		if len(p.Properties) > 0 {
			props := map[string]any{}
			var req []string
			for _, child := range p.Properties {
				props[child.Name] = paramSchema(child)
				if child.Required {
					req = append(req, child.Name)
				}
			}
			s["properties"] = props
			if len(req) > 0 {
				sort.Strings(req)
				s["required"] = req
			}
		}
	}
	for k, v := range p.Extra {
		s[k] = v
	}
	return s
}

// WrapResultKey is the marker key spec §3 requires on a wrapped output
// schema.
const WrapResultKey = "x-fastmcp-wrap-result"

// WrapResult wraps a non-object-typed schema into
// {type: object, properties: {result: schema}, required: [result],
// x-fastmcp-wrap-result: true}, per spec §3's invariant on primitive,
// sequence, and mapping return types. Object-typed schemas pass through
// unchanged.
func WrapResult(resultSchema map[string]any) map[string]any {
	if t, _ := resultSchema["type"].(string); t == "object" {
		return resultSchema
	}
	return map[string]any{
		"type":        "object",
		"properties":  map[string]any{"result": resultSchema},
		"required":    []string{"result"},
		WrapResultKey: true,
	}
}

// Compiled holds a compiled jsonschema validator alongside the raw document
// it was compiled from, since jsonschema.Schema itself does not expose the
// source map.
type Compiled struct {
	Schema *jsonschema.Schema
	raw    map[string]any
}

// Compile compiles a JSON Schema document for validation. Each call gets its
// own jsonschema.Compiler and resource URL so compiling the same logical
// schema twice never shares compiler-internal state between the two
// results — the same independent-trees guarantee spec §4.1.1 requires of
// schema *derivation* extends here to schema *compilation*.
func Compile(doc map[string]any, resourceURL string) (*Compiled, error) {
	if resourceURL == "" {
		resourceURL = "schema.json"
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Compiled{Schema: compiled, raw: doc}, nil
}

// Validate validates a decoded JSON value (map[string]any, []any, or a
// scalar) against the compiled schema.
func (c *Compiled) Validate(instance any) error {
	return c.Schema.Validate(instance)
}
