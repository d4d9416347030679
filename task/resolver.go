package task

import (
	"context"

	"goa.design/mcpcore/component"
)

// ChainResolver adapts a provider chain's GetComponent into a
// ComponentResolver, the seam task queue workers use to resolve a task's
// target key back to a live *component.Tool (spec §4.11 "the worker
// resolves component_key back to a component in the current server").
type ChainResolver struct {
	GetComponent func(ctx context.Context, key component.Key) (any, error)
}

// ResolveTool resolves key via GetComponent and type-asserts the result to
// a *component.Tool. A non-tool key or an unknown key both resolve to a
// nil tool so callers can distinguish "not found" from a lookup error.
func (r ChainResolver) ResolveTool(ctx context.Context, key component.Key) (*component.Tool, error) {
	v, err := r.GetComponent(ctx, key)
	if err != nil {
		return nil, err
	}
	tool, _ := v.(*component.Tool)
	return tool, nil
}
