package session

import (
	"context"
	"fmt"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/transform"
)

// visibilityStateKey is the reserved StateStore key under which a
// session's visibility rules are persisted, namespaced the same way
// user-placed state is (spec §4.10: "session visibility rules use the
// same store").
const visibilityStateKey = "_fastmcp_visibility_rules"

// Rule is one session-scoped visibility override (spec §4.6): mark every
// component matching Kind/Name/Tag/Version as enabled or disabled. An
// empty field means "any" for that dimension.
type Rule struct {
	Kind    component.Kind
	Name    string
	Tag     string
	Version string
	Enabled bool
}

func (r Rule) matches(kind component.Kind, name string, tags map[string]struct{}, version string) bool {
	if r.Kind != "" && r.Kind != kind {
		return false
	}
	if r.Name != "" && r.Name != name {
		return false
	}
	if r.Version != "" && r.Version != version {
		return false
	}
	if r.Tag != "" {
		if _, ok := tags[r.Tag]; !ok {
			return false
		}
	}
	return true
}

// VisibilityRules loads a session's visibility rules from store, applying
// DefaultTTL on the way in would be meaningless here (rules are explicit
// session configuration, not ephemeral state), so they're stored without
// expiry.
func VisibilityRules(ctx context.Context, store StateStore, sessionID string) ([]Rule, error) {
	v, err := store.Get(ctx, sessionID, visibilityStateKey)
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	rules, ok := v.([]Rule)
	if !ok {
		return nil, fmt.Errorf("session: stored visibility rules have unexpected type %T", v)
	}
	return rules, nil
}

// SetVisibilityRules replaces a session's visibility rules.
func SetVisibilityRules(ctx context.Context, store StateStore, sessionID string, rules []Rule) error {
	return store.Put(ctx, sessionID, visibilityStateKey, rules, 0)
}

// Transforms converts a session's stored rules into the []transform.
// Transform dispatch.SessionTransforms needs, one EnabledMark per rule,
// in stored order so later rules override earlier ones for components
// they both match (spec §4.6 "later marks override earlier ones"). kind
// scopes the rules to the component kind being listed, since dispatch
// calls this once per ListTools/ListResources/ListResourceTemplates/
// ListPrompts and a Rule's Kind field (when set) must match that call.
func Transforms(ctx context.Context, store StateStore, sessionID string, kind component.Kind) ([]transform.Transform, error) {
	rules, err := VisibilityRules(ctx, store, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]transform.Transform, 0, len(rules))
	for _, r := range rules {
		rule := r
		out = append(out, transform.EnabledMark{
			Enabled: rule.Enabled,
			Match: func(it transform.Item) bool {
				return rule.matches(kind, it.Name(), it.Tags(), it.Version())
			},
		})
	}
	return out, nil
}
