package exec

import (
	"context"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/errs"
)

// ResourceContent is a single resource read's normalized outcome (spec
// §4.9 step 6).
type ResourceContent struct {
	URI      string
	MimeType string
	Text     string
	Data     []byte
}

// ReadResource invokes a Resource's callable (or returns its eager
// Content) and normalizes the result into a ResourceContent, attaching
// the resource's declared MimeType if the produced value didn't carry
// one (spec §4.9 step 6). An empty result is an invocation error, not an
// empty-but-valid read (Open Question 2).
func ReadResource(ctx context.Context, r *component.Resource) (*ResourceContent, error) {
	raw := r.Content
	if r.Fn != nil {
		v, err := r.Fn(ctx)
		if err != nil {
			return nil, wrapResourceError(err)
		}
		raw = v
	}
	return normalizeResourceValue(raw, r.URI, r.MimeType)
}

// ReadResourceTemplate resolves a ResourceTemplate match's parameters and
// reads it the same way as ReadResource (spec §4.9 step 6: "template
// first matches URI then proceeds as resource").
func ReadResourceTemplate(ctx context.Context, t *component.ResourceTemplate, uri string, params map[string]string) (*ResourceContent, error) {
	raw, err := t.Fn(ctx, params)
	if err != nil {
		return nil, wrapResourceError(err)
	}
	return normalizeResourceValue(raw, uri, t.MimeType)
}

func normalizeResourceValue(raw any, uri, declaredMime string) (*ResourceContent, error) {
	rc := &ResourceContent{URI: uri, MimeType: declaredMime}

	switch v := raw.(type) {
	case nil:
		return nil, errs.New(errs.KindResource, "resource produced no content")
	case string:
		if v == "" {
			return nil, errs.New(errs.KindResource, "resource produced no content")
		}
		rc.Text = v
	case []byte:
		if len(v) == 0 {
			return nil, errs.New(errs.KindResource, "resource produced no content")
		}
		rc.Data = v
	case *ResourceContent:
		if v.Text == "" && len(v.Data) == 0 {
			return nil, errs.New(errs.KindResource, "resource produced no content")
		}
		return v, nil
	default:
		text, err := serialize(v, nil)
		if err != nil {
			return nil, err
		}
		rc.Text = text
	}

	if rc.MimeType == "" {
		rc.MimeType = MimeFromExtension(uri)
	}
	if rc.MimeType == "" {
		rc.MimeType = "text/plain"
	}
	return rc, nil
}

func wrapResourceError(err error) error {
	if ce, ok := err.(*errs.CoreError); ok && ce.UserRaised {
		return ce
	}
	return errs.Wrap(errs.KindResource, "", err)
}
