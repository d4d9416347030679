package exec

import (
	"context"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/errs"
)

// RenderPrompt invokes a Prompt's callable and normalizes its return
// value into a message sequence (spec §4.9 step 7): a bare string
// becomes a single user message, and a PromptMessage or []PromptMessage
// passes through unchanged.
func RenderPrompt(ctx context.Context, p *component.Prompt, args map[string]any) ([]component.PromptMessage, error) {
	raw, err := p.Fn(ctx, args)
	if err != nil {
		if ce, ok := err.(*errs.CoreError); ok && ce.UserRaised {
			return nil, ce
		}
		return nil, errs.Wrap(errs.KindPrompt, "", err)
	}

	switch v := raw.(type) {
	case string:
		return []component.PromptMessage{{Role: "user", Content: v}}, nil
	case component.PromptMessage:
		return []component.PromptMessage{v}, nil
	case []component.PromptMessage:
		return v, nil
	default:
		return nil, errs.New(errs.KindPrompt, "prompt produced an unrecognized message type")
	}
}
