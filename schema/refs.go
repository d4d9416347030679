package schema

import "sort"

// Compress rewrites an output schema produced against a
// `#/components/schemas/...` definition pool into the compact
// `#/$defs/...` form spec §4.1.1 requires: references are retargeted,
// only definitions transitively reachable from root survive, titles are
// pruned, and the returned tree shares no mutable state with root or defs
// — two calls against the same inputs, or one call followed by a mutation
// of its result, never observably affect each other.
//
// defs is the full `#/components/schemas/X -> schema` pool root may
// reference, directly or transitively, including through anyOf/allOf/oneOf,
// array items, object properties, additionalProperties, and content maps.
// Circular references (self or mutual) are preserved as rewritten $refs
// rather than expanded, so the result is always a finite tree even when
// defs describes a cyclic graph.
func Compress(root map[string]any, defs map[string]map[string]any) map[string]any {
	reachable := map[string]struct{}{}
	collectReachable(root, defs, reachable)

	out := deepCopyRewrite(root)

	if len(reachable) > 0 {
		names := make([]string, 0, len(reachable))
		for n := range reachable {
			names = append(names, n)
		}
		sort.Strings(names)

		outDefs := make(map[string]any, len(names))
		for _, n := range names {
			outDefs[n] = deepCopyRewrite(defs[n])
		}
		out["$defs"] = outDefs
	}
	return out
}

const componentsPrefix = "#/components/schemas/"
const defsPrefix = "#/$defs/"

func refTarget(s map[string]any) (string, bool) {
	ref, ok := s["$ref"].(string)
	if !ok {
		return "", false
	}
	if len(ref) > len(componentsPrefix) && ref[:len(componentsPrefix)] == componentsPrefix {
		return ref[len(componentsPrefix):], true
	}
	return "", false
}

// collectReachable walks node (a schema fragment) and every schema
// transitively reachable from it through defs, recording definition names
// already visited in seen to terminate on cycles.
func collectReachable(node any, defs map[string]map[string]any, seen map[string]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		if name, ok := refTarget(v); ok {
			if _, visited := seen[name]; !visited {
				seen[name] = struct{}{}
				if def, found := defs[name]; found {
					collectReachable(map[string]any(def), defs, seen)
				}
			}
		}
		for _, key := range []string{"properties", "additionalProperties", "items", "content"} {
			if child, ok := v[key]; ok {
				collectReachable(child, defs, seen)
			}
		}
		for _, key := range []string{"anyOf", "allOf", "oneOf"} {
			if children, ok := v[key].([]any); ok {
				for _, c := range children {
					collectReachable(c, defs, seen)
				}
			}
		}
		for key, child := range v {
			switch key {
			case "properties", "additionalProperties", "items", "content", "anyOf", "allOf", "oneOf", "$ref", "title":
				continue
			default:
				if m, ok := child.(map[string]any); ok {
					collectReachable(m, defs, seen)
				}
			}
		}
	case []any:
		for _, c := range v {
			collectReachable(c, defs, seen)
		}
	}
}

// deepCopyRewrite produces an independent copy of node with every
// `#/components/schemas/X` ref rewritten to `#/$defs/X` and every `title`
// key pruned. Maps and slices are copied at every level so the result
// shares no backing array or map with node, satisfying the independent-
// trees contract even when node itself is reused across multiple Compress
// calls.
func deepCopyRewrite(node any) map[string]any {
	return deepCopyRewriteAny(node).(map[string]any)
}

func deepCopyRewriteAny(node any) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			if k == "title" {
				continue
			}
			out[k] = deepCopyRewriteAny(val)
		}
		if ref, ok := refTarget(v); ok {
			out["$ref"] = defsPrefix + ref
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = deepCopyRewriteAny(val)
		}
		return out
	default:
		return v
	}
}
