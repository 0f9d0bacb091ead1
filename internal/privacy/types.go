package privacy

import (
	regexp "github.com/wasilibs/go-re2"
)

// PatternRule represents a single PII detection rule
type PatternRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Matches reports whether the pattern occurs anywhere in value
func (r PatternRule) Matches(value string) bool {
	if r.Pattern == nil || value == "" {
		return false
	}
	return r.Pattern.MatchString(value)
}

// Category is the coarse reporting bucket a PII type belongs to
type Category string

const (
	CategoryPII         Category = "pii"
	CategoryIdentifiers Category = "identifiers"
	CategoryBehavioral  Category = "behavioral"
)

// Categories returns every bucket in reporting order
func Categories() []Category {
	return []Category{CategoryPII, CategoryIdentifiers, CategoryBehavioral}
}

// TypeInfo describes a registered PII type for listings
type TypeInfo struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Pattern  string   `json:"pattern"`
}
