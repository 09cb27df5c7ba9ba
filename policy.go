package auth

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	goerrors "github.com/goliatone/go-errors"
)

// Requirement is the access requirement of a route
type Requirement int

const (
	// RequiresAuthentication routes need an AuthContext
	RequiresAuthentication Requirement = iota
	// Public routes are open to anonymous requests
	Public
)

func (r Requirement) String() string {
	if r == Public {
		return "public"
	}
	return "requires_authentication"
}

// Rule pairs a route pattern with its requirement. Patterns use "*" for a
// single path segment and "**" for any number of segments.
type Rule struct {
	Pattern     string
	Requirement Requirement
}

// PermitAll builds a public rule
func PermitAll(pattern string) Rule {
	return Rule{Pattern: pattern, Requirement: Public}
}

// Authenticated builds a rule requiring authentication
func Authenticated(pattern string) Rule {
	return Rule{Pattern: pattern, Requirement: RequiresAuthentication}
}

// DefaultRules leaves the auth endpoints, metrics and health checks open
func DefaultRules() []Rule {
	return []Rule{
		PermitAll("/auth/**"),
		PermitAll("/metrics"),
		PermitAll("/healthz"),
	}
}

type compiledRule struct {
	rule     Rule
	matchers []glob.Glob
}

// Policy is an immutable, ordered rule table. First match wins and
// unmatched routes require authentication.
type Policy struct {
	rules []compiledRule
}

// NewPolicy compiles the rules
func NewPolicy(rules ...Rule) (*Policy, error) {
	compiled := make([]compiledRule, 0, len(rules))

	for _, rule := range rules {
		pattern := strings.TrimSpace(rule.Pattern)
		if pattern == "" {
			return nil, goerrors.New("policy rule pattern must not be empty", goerrors.CategoryBadInput)
		}

		patterns := []string{pattern}
		// "/auth/**" also covers "/auth"
		if base, ok := strings.CutSuffix(pattern, "/**"); ok {
			if base == "" {
				base = "/"
			}
			patterns = append(patterns, base)
		}

		cr := compiledRule{rule: Rule{Pattern: pattern, Requirement: rule.Requirement}}
		for _, p := range patterns {
			g, err := glob.Compile(p, '/')
			if err != nil {
				return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, fmt.Sprintf("invalid policy pattern %q", pattern))
			}
			cr.matchers = append(cr.matchers, g)
		}

		compiled = append(compiled, cr)
	}

	return &Policy{rules: compiled}, nil
}

// MustPolicy is like NewPolicy but panics on invalid patterns
func MustPolicy(rules ...Rule) *Policy {
	p, err := NewPolicy(rules...)
	if err != nil {
		panic(err)
	}
	return p
}

// Requirement returns the requirement of the first rule matching path
func (p *Policy) Requirement(path string) Requirement {
	if p == nil {
		return RequiresAuthentication
	}

	for _, cr := range p.rules {
		for _, m := range cr.matchers {
			if m.Match(path) {
				return cr.rule.Requirement
			}
		}
	}

	return RequiresAuthentication
}

// Allows reports whether a request to path with the given context may proceed
func (p *Policy) Allows(path string, ac *AuthContext) bool {
	if p.Requirement(path) == Public {
		return true
	}
	return ac != nil
}

// Rules returns a copy of the rule table
func (p *Policy) Rules() []Rule {
	if p == nil {
		return nil
	}
	out := make([]Rule, len(p.rules))
	for i, cr := range p.rules {
		out[i] = cr.rule
	}
	return out
}
