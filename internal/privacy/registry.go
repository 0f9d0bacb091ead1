package privacy

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is an immutable set of pattern rules keyed by PII type name.
// It is safe for concurrent use.
type Registry struct {
	rules []PatternRule
	index map[string]int
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// NewRegistry builds a registry from the given rules. Rule names must be
// unique and non-empty and every rule needs a compiled pattern.
func NewRegistry(rules ...PatternRule) (*Registry, error) {
	r := &Registry{
		rules: make([]PatternRule, 0, len(rules)),
		index: make(map[string]int, len(rules)),
	}

	for _, rule := range rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("pattern rule has empty name")
		}
		if rule.Pattern == nil {
			return nil, fmt.Errorf("pattern rule %q has no pattern", rule.Name)
		}
		if _, exists := r.index[rule.Name]; exists {
			return nil, fmt.Errorf("duplicate pattern rule: %s", rule.Name)
		}
		r.index[rule.Name] = len(r.rules)
		r.rules = append(r.rules, rule)
	}

	sort.Slice(r.rules, func(i, j int) bool { return r.rules[i].Name < r.rules[j].Name })
	for i, rule := range r.rules {
		r.index[rule.Name] = i
	}

	return r, nil
}

// DefaultRegistry returns the process-wide registry of built-in rules
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		reg, err := NewRegistry(DefaultRules()...)
		if err != nil {
			panic(fmt.Sprintf("invalid built-in pattern rules: %v", err))
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// Lookup returns the active rules for a scan. An empty allow-list selects
// every rule; otherwise only rules named in allowed are returned and
// unknown names are ignored. The result is ordered by name.
func (r *Registry) Lookup(allowed []string) []PatternRule {
	if len(allowed) == 0 {
		out := make([]PatternRule, len(r.rules))
		copy(out, r.rules)
		return out
	}

	want := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		want[name] = true
	}

	out := make([]PatternRule, 0, len(want))
	for _, rule := range r.rules {
		if want[rule.Name] {
			out = append(out, rule)
		}
	}
	return out
}

// Get returns the rule registered under name
func (r *Registry) Get(name string) (PatternRule, bool) {
	i, ok := r.index[name]
	if !ok {
		return PatternRule{}, false
	}
	return r.rules[i], true
}

// Names returns the registered PII type names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// Len returns the number of registered rules
func (r *Registry) Len() int {
	return len(r.rules)
}

// Describe lists every registered type with its category
func (r *Registry) Describe() []TypeInfo {
	out := make([]TypeInfo, len(r.rules))
	for i, rule := range r.rules {
		out[i] = TypeInfo{
			Name:     rule.Name,
			Category: Classify(rule.Name),
			Pattern:  rule.Pattern.String(),
		}
	}
	return out
}
