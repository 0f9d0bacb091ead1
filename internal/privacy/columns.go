package privacy

import (
	"strings"
	"unicode"

	"github.com/huandu/xstrings"
)

// MatchColumn returns the rule whose name best describes a column name.
// Both names are split into lowercase words on punctuation and camelCase
// boundaries. A rule matches when its words appear consecutively in the
// column name; the rule with the most words wins, then the longer name.
func MatchColumn(column string, rules []PatternRule) (PatternRule, bool) {
	words := columnWords(column)
	if len(words) == 0 {
		return PatternRule{}, false
	}

	var (
		best  PatternRule
		found bool
		size  int
	)
	for _, rule := range rules {
		key := strings.Split(rule.Name, "_")
		if !containsRun(words, key) {
			continue
		}
		if !found || len(key) > size || (len(key) == size && len(rule.Name) > len(best.Name)) {
			best, size, found = rule, len(key), true
		}
	}
	return best, found
}

func columnWords(name string) []string {
	return strings.FieldsFunc(xstrings.ToSnakeCase(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsRun reports whether run occurs as consecutive elements of words
func containsRun(words, run []string) bool {
	for i := 0; i+len(run) <= len(words); i++ {
		match := true
		for j := range run {
			if words[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
