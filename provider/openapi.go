package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/spec"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/errs"
	"goa.design/mcpcore/schema"
)

// RouteKind decides whether an OpenAPI operation surfaces as a Tool, a
// Resource, or a ResourceTemplate (spec §4.4.1).
type RouteKind string

const (
	RouteTool             RouteKind = "tool"
	RouteResource         RouteKind = "resource"
	RouteResourceTemplate RouteKind = "resource_template"
)

// RouteRule maps an OpenAPI path+method pair to a RouteKind. OpenAPIProvider
// evaluates rules in order; the first matching rule wins. A nil Rules slice
// defaults every operation to RouteTool.
type RouteRule struct {
	MethodPattern string // exact HTTP method, or "" to match any
	PathPattern   string // exact path, or "" to match any
	Kind          RouteKind
}

func (r RouteRule) matches(method, path string) bool {
	if r.MethodPattern != "" && !strings.EqualFold(r.MethodPattern, method) {
		return false
	}
	if r.PathPattern != "" && r.PathPattern != path {
		return false
	}
	return true
}

// OpenAPIProvider derives tools from an OpenAPI document and an HTTP client
// (spec §4.4.1). Operations a RouteRule classifies as RouteResource or
// RouteResourceTemplate are skipped, so it serves no resources or resource
// templates. It
// is deliberately thin: full OpenAPI-to-MCP derivation (content negotiation
// nuance, discriminated unions, callback objects) is out of this spec's
// core scope, but document parsing and schema/operation extraction are
// real, using the same go-openapi toolchain the pack's API-gateway repo
// (rakunlabs-at) depends on.
type OpenAPIProvider struct {
	client  *http.Client
	baseURL string
	tools   map[component.Key]*component.Tool
	order   []component.Key
}

var _ Provider = (*OpenAPIProvider)(nil)

// NewOpenAPIProvider parses doc (raw OpenAPI 2/3 JSON or YAML bytes already
// normalized to JSON by the caller) and derives a tool for every operation
// that rules classify as RouteTool (the default when no rule matches).
// Operations classified as RouteResource or RouteResourceTemplate are
// skipped and not recorded.
func NewOpenAPIProvider(doc []byte, baseURL string, client *http.Client, rules []RouteRule) (*OpenAPIProvider, error) {
	document, err := loads.Analyzed(json.RawMessage(doc), "")
	if err != nil {
		return nil, errs.Wrap(errs.KindValidation, "parse OpenAPI document", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	p := &OpenAPIProvider{client: client, baseURL: strings.TrimRight(baseURL, "/"), tools: map[component.Key]*component.Tool{}}

	paths := document.Spec().Paths
	if paths == nil {
		return p, nil
	}
	for path, item := range paths.Paths {
		for method, op := range operations(item) {
			kind := classify(method, path, rules)
			if kind != RouteTool {
				continue
			}
			tool := p.deriveTool(method, path, op)
			key := tool.Key()
			p.tools[key] = tool
			p.order = append(p.order, key)
		}
	}
	return p, nil
}

func operations(item spec.PathItem) map[string]*spec.Operation {
	out := map[string]*spec.Operation{}
	if item.Get != nil {
		out[http.MethodGet] = item.Get
	}
	if item.Post != nil {
		out[http.MethodPost] = item.Post
	}
	if item.Put != nil {
		out[http.MethodPut] = item.Put
	}
	if item.Delete != nil {
		out[http.MethodDelete] = item.Delete
	}
	if item.Patch != nil {
		out[http.MethodPatch] = item.Patch
	}
	return out
}

func classify(method, path string, rules []RouteRule) RouteKind {
	for _, r := range rules {
		if r.matches(method, path) {
			return r.Kind
		}
	}
	return RouteTool
}

// deriveTool builds a Tool whose input schema merges path, query, and
// header parameters with the request body schema (spec §4.4.1), and whose
// callable issues the corresponding HTTP request.
func (p *OpenAPIProvider) deriveTool(method, path string, op *spec.Operation) *component.Tool {
	name := op.ID
	if name == "" {
		name = strings.ToLower(method) + strings.ReplaceAll(path, "/", "_")
	}

	properties := map[string]any{}
	var required []string
	paramLocations := map[string]string{} // name -> "path"|"query"|"header"|"body"

	for _, param := range op.Parameters {
		if param.In == "body" {
			if param.Schema != nil {
				properties["body"] = schemaToMap(param.Schema)
				paramLocations["body"] = "body"
				if param.Required {
					required = append(required, "body")
				}
			}
			continue
		}
		properties[param.Name] = paramToSchema(param)
		paramLocations[param.Name] = param.In
		if param.Required {
			required = append(required, param.Name)
		}
	}

	inputSchema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		inputSchema["required"] = required
	}

	outputSchema := extractOutputSchema(op)

	return &component.Tool{
		Base:         component.Base{Name: name, Description: op.Summary, Enabled: true},
		InputSchema:  inputSchema,
		OutputSchema: outputSchema,
		Fn:           p.invoker(method, path, paramLocations),
	}
}

func paramToSchema(param spec.Parameter) map[string]any {
	s := map[string]any{}
	if param.Type != "" {
		s["type"] = param.Type
	} else {
		s["type"] = "string"
	}
	if param.Description != "" {
		s["description"] = param.Description
	}
	return s
}

func schemaToMap(s *spec.Schema) map[string]any {
	b, err := json.Marshal(s)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}

// extractOutputSchema pulls the schema from the first (lowest-numbered)
// 2xx response that declares one (spec §4.4.1). Media types are not
// consulted: the response's single Schema is used whatever the operation
// produces.
func extractOutputSchema(op *spec.Operation) map[string]any {
	if op.Responses == nil {
		return nil
	}
	best := 0
	var bestSchema *spec.Schema
	for code, resp := range op.Responses.StatusCodeResponses {
		if code < 200 || code >= 300 || resp.Schema == nil {
			continue
		}
		if bestSchema == nil || code < best {
			best, bestSchema = code, resp.Schema
		}
	}
	if bestSchema == nil {
		return nil
	}
	return schema.WrapResult(schemaToMap(bestSchema))
}

// invoker builds the Callable that performs the HTTP round trip,
// substituting path parameters, attaching query/header parameters, and
// marshaling a body parameter when present.
func (p *OpenAPIProvider) invoker(method, path string, locations map[string]string) component.Callable {
	return func(ctx context.Context, args map[string]any) (any, error) {
		resolvedPath := path
		query := make([]string, 0, len(args))
		headers := http.Header{}
		var body io.Reader

		for name, loc := range locations {
			val, ok := args[name]
			if !ok {
				continue
			}
			switch loc {
			case "path":
				resolvedPath = strings.ReplaceAll(resolvedPath, "{"+name+"}", fmt.Sprintf("%v", val))
			case "query":
				query = append(query, fmt.Sprintf("%s=%v", name, val))
			case "header":
				headers.Set(name, fmt.Sprintf("%v", val))
			case "body":
				b, err := json.Marshal(val)
				if err != nil {
					return nil, errs.Wrap(errs.KindValidation, "encode request body", err)
				}
				body = bytes.NewReader(b)
			}
		}

		url := p.baseURL + resolvedPath
		if len(query) > 0 {
			url += "?" + strings.Join(query, "&")
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, errs.Wrap(errs.KindTool, "build request", err)
		}
		req.Header = headers
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, errs.Wrap(errs.KindTool, "request failed", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errs.Wrap(errs.KindTool, "read response", err)
		}
		if resp.StatusCode >= 400 {
			return nil, errs.New(errs.KindTool, fmt.Sprintf("upstream returned %d: %s", resp.StatusCode, string(data)))
		}
		var decoded any
		if len(data) > 0 {
			if err := json.Unmarshal(data, &decoded); err != nil {
				return string(data), nil
			}
		}
		return decoded, nil
	}
}

func (p *OpenAPIProvider) ListTools(ctx context.Context) ([]*component.Tool, error) {
	out := make([]*component.Tool, 0, len(p.order))
	for _, k := range p.order {
		out = append(out, p.tools[k])
	}
	return out, nil
}

func (p *OpenAPIProvider) GetTool(ctx context.Context, name string, vs *component.VersionSpec) (*component.Tool, error) {
	t, ok := p.tools[component.NewKey(component.KindTool, name, "")]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (p *OpenAPIProvider) ListResources(ctx context.Context) ([]*component.Resource, error) { return nil, nil }
func (p *OpenAPIProvider) GetResource(ctx context.Context, uri string) (*component.Resource, error) {
	return nil, nil
}
func (p *OpenAPIProvider) ListResourceTemplates(ctx context.Context) ([]*component.ResourceTemplate, error) {
	return nil, nil
}
func (p *OpenAPIProvider) GetResourceTemplate(ctx context.Context, uri string) (*component.ResourceTemplate, error) {
	return nil, nil
}
func (p *OpenAPIProvider) ListPrompts(ctx context.Context) ([]*component.Prompt, error) { return nil, nil }
func (p *OpenAPIProvider) GetPrompt(ctx context.Context, name string, vs *component.VersionSpec) (*component.Prompt, error) {
	return nil, nil
}

func (p *OpenAPIProvider) GetComponent(ctx context.Context, key component.Key) (any, error) {
	if t, ok := p.tools[key]; ok {
		return t, nil
	}
	return nil, nil
}

func (p *OpenAPIProvider) ListTasks(ctx context.Context) ([]any, error) { return nil, nil }

func (p *OpenAPIProvider) Lifespan(ctx context.Context) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
