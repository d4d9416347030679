// Package uritemplate implements the RFC 6570 subset the core needs to
// match a ResourceTemplate against an incoming URI (spec §4.5): simple path
// variables `{x}`, a wildcard variable `{x*}` that consumes path segments
// containing '/', and the form-style query operator `{?a,b}`.
package uritemplate

import (
	"fmt"
	"regexp"
	"strings"
)

type (
	// varKind distinguishes a simple path variable from a wildcard one.
	varKind int

	token struct {
		kind    varKind
		literal string // set when this token is a literal path segment piece
		name    string // variable name, set for kind != tokenLiteral
	}

	// Template is a compiled URI template ready to match candidate URIs.
	// Compile it once at registration time and reuse it per incoming
	// request.
	Template struct {
		raw        string
		tokens     []token
		queryVars  []string
		re         *regexp.Regexp
		paramNames []string
	}
)

const (
	tokenLiteral varKind = iota
	tokenSimple
	tokenWildcard
)

var varPattern = regexp.MustCompile(`\{([^}]*)\}`)

// Compile parses a template string such as "users://{id}/profile" or
// "search://{query}{?limit,offset}" into a matchable Template.
func Compile(raw string) (*Template, error) {
	t := &Template{raw: raw}

	base := raw
	if idx := strings.Index(raw, "{?"); idx >= 0 {
		closing := strings.Index(raw[idx:], "}")
		if closing < 0 {
			return nil, fmt.Errorf("uritemplate: unterminated query operator in %q", raw)
		}
		queryExpr := raw[idx+2 : idx+closing]
		for _, name := range strings.Split(queryExpr, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				t.queryVars = append(t.queryVars, name)
			}
		}
		base = raw[:idx]
	}

	var patternBuilder strings.Builder
	patternBuilder.WriteByte('^')

	last := 0
	for _, loc := range varPattern.FindAllStringIndex(base, -1) {
		lit := regexp.QuoteMeta(base[last:loc[0]])
		patternBuilder.WriteString(lit)

		expr := base[loc[0]+1 : loc[1]-1]
		wildcard := strings.HasSuffix(expr, "*")
		name := strings.TrimSuffix(expr, "*")
		if name == "" {
			return nil, fmt.Errorf("uritemplate: empty variable name in %q", raw)
		}
		t.paramNames = append(t.paramNames, name)

		if wildcard {
			t.tokens = append(t.tokens, token{kind: tokenWildcard, name: name})
			patternBuilder.WriteString(fmt.Sprintf("(?P<%s>.+)", safeGroupName(name)))
		} else {
			t.tokens = append(t.tokens, token{kind: tokenSimple, name: name})
			patternBuilder.WriteString(fmt.Sprintf("(?P<%s>[^/]+)", safeGroupName(name)))
		}
		last = loc[1]
	}
	patternBuilder.WriteString(regexp.QuoteMeta(base[last:]))
	patternBuilder.WriteByte('$')

	re, err := regexp.Compile(patternBuilder.String())
	if err != nil {
		return nil, fmt.Errorf("uritemplate: compile %q: %w", raw, err)
	}
	t.re = re
	return t, nil
}

// groupSanitizer replaces the characters Go's regexp group names disallow
// but URI template variable names otherwise permit; Match maps a group
// back to its variable by re-sanitizing each name in paramNames.
var groupSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]`)

func safeGroupName(name string) string {
	return "v_" + groupSanitizer.ReplaceAllString(name, "_")
}

// ParamNames returns the path variable names in declaration order (the
// wildcard/query variables are not included separately; query variables
// never appear in ParamNames since they are optional and matched only from
// the incoming query string, not the path).
func (t *Template) ParamNames() []string {
	out := make([]string, len(t.paramNames))
	copy(out, t.paramNames)
	return out
}

// Match attempts to match uri against t, returning the extracted path
// variables plus any declared query variables present in uri's query
// string (Match splits off everything after the first '?' itself). ok is
// false when uri does not match the template's path shape at all.
func (t *Template) Match(uri string) (params map[string]string, ok bool) {
	path := uri
	var query string
	if idx := strings.IndexByte(uri, '?'); idx >= 0 {
		path, query = uri[:idx], uri[idx+1:]
	}

	m := t.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params = map[string]string{}
	for i, name := range t.re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		for _, pn := range t.paramNames {
			if safeGroupName(pn) == name {
				params[pn] = m[i]
			}
		}
	}
	if len(t.queryVars) > 0 && query != "" {
		for _, pair := range strings.Split(query, "&") {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) != 2 {
				continue
			}
			for _, qv := range t.queryVars {
				if kv[0] == qv {
					params[qv] = kv[1]
				}
			}
		}
	}
	return params, true
}

// String returns the raw template pattern.
func (t *Template) String() string { return t.raw }
