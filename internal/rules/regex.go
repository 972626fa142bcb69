package rules

import (
	"regexp"
)

// RegexRule is a named compiled pattern matched against the combined payload.
type RegexRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// RegexSet evaluates an ordered list of regex rules. Unlike the signature
// set it reports every matching rule, because independent attack patterns
// may co-occur in one payload; the caller decides how to report them.
type RegexSet struct {
	rules []RegexRule
}

// NewRegexSet builds a set from an explicit ordered rule list.
func NewRegexSet(rules []RegexRule) *RegexSet {
	return &RegexSet{rules: rules}
}

// Names returns the rule names in evaluation order.
func (s *RegexSet) Names() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// Eval returns the names of all matching rules, in set order. No match
// yields an empty slice.
func (s *RegexSet) Eval(payload string) []string {
	var matched []string
	for _, rule := range s.rules {
		if rule.Pattern != nil && rule.Pattern.MatchString(payload) {
			matched = append(matched, rule.Name)
		}
	}
	return matched
}

// DefaultRegexSet returns the built-in regex rules. These complement the
// signature set with patterns that need more structure than a substring check.
func DefaultRegexSet() *RegexSet {
	return NewRegexSet([]RegexRule{
		{Name: "UnionSQLi", Pattern: regexp.MustCompile(`(?i)union[\s/*+]+select`)},
		{Name: "BooleanSQLi", Pattern: regexp.MustCompile(`(?i)['"%]\s*(or|and)\s+\d+\s*=\s*\d+`)},
		{Name: "ScriptTagXSS", Pattern: regexp.MustCompile(`(?i)<\s*script[\s>]`)},
		{Name: "EventHandlerXSS", Pattern: regexp.MustCompile(`(?i)\bon(error|load|click|mouseover|focus)\s*=`)},
		{Name: "DeepTraversal", Pattern: regexp.MustCompile(`(\.\./|\.\.\\){2,}`)},
		{Name: "ShellPipe", Pattern: regexp.MustCompile(`(?i)[;&|]\s*(cat|ls|rm|wget|curl|nc|bash|sh)\b`)},
	})
}
