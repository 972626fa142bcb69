package rules

import (
	"strings"

	"github.com/medsecurex/gateway/internal/logger"
)

// SignatureRule is a named boolean predicate over the combined payload text.
type SignatureRule struct {
	Name  string
	Check func(payload string) bool
}

// SignatureSet evaluates an ordered list of signature rules. The slice order
// is the attribution order: when several rules would match, the first one in
// the list is the rule reported for the incident. The set is immutable after
// construction and safe for concurrent use.
type SignatureSet struct {
	rules []SignatureRule
}

// NewSignatureSet builds a set from an explicit ordered rule list.
func NewSignatureSet(rules []SignatureRule) *SignatureSet {
	return &SignatureSet{rules: rules}
}

// Names returns the rule names in evaluation order.
func (s *SignatureSet) Names() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// Eval runs the rules in order and returns the name of the first match.
// A panicking predicate is logged and treated as non-matching; evaluation
// continues with the next rule.
func (s *SignatureSet) Eval(payload string) (name string, matched bool) {
	for _, rule := range s.rules {
		if safeCheck(rule, payload) {
			return rule.Name, true
		}
	}
	return "", false
}

func safeCheck(rule SignatureRule, payload string) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(map[string]interface{}{
				"rule":  rule.Name,
				"panic": r,
			}).Error("signature rule evaluation failed")
			matched = false
		}
	}()
	if rule.Check == nil {
		return false
	}
	return rule.Check(payload)
}

func containsAny(payload string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(payload, n) {
			return true
		}
	}
	return false
}

// DefaultSignatureSet returns the built-in attack signature rules, covering
// the common injection, scripting and traversal pattern families.
func DefaultSignatureSet() *SignatureSet {
	return NewSignatureSet([]SignatureRule{
		{
			Name: "SQLInjection",
			Check: func(p string) bool {
				lower := strings.ToLower(p)
				return containsAny(lower,
					"' or 1=1", "\" or 1=1", "or 1=1 --", "union select",
					"drop table", "insert into", "'; exec", "xp_cmdshell",
				)
			},
		},
		{
			Name: "XSS",
			Check: func(p string) bool {
				lower := strings.ToLower(p)
				return containsAny(lower,
					"<script", "javascript:", "onerror=", "onload=", "document.cookie",
				)
			},
		},
		{
			Name: "PathTraversal",
			Check: func(p string) bool {
				lower := strings.ToLower(p)
				return containsAny(lower, "../", "..\\", "%2e%2e%2f", "%2e%2e/")
			},
		},
		{
			Name: "CommandInjection",
			Check: func(p string) bool {
				lower := strings.ToLower(p)
				return containsAny(lower,
					"; rm -", "&& cat ", "| nc ", "$(", "`id`", "/etc/passwd",
				)
			},
		},
		{
			Name: "NoSQLInjection",
			Check: func(p string) bool {
				lower := strings.ToLower(p)
				return containsAny(lower, "$ne", "$gt", "$where", "$regex")
			},
		},
		{
			Name: "SSRF",
			Check: func(p string) bool {
				lower := strings.ToLower(p)
				return containsAny(lower,
					"169.254.169.254", "file://", "gopher://", "dict://",
				)
			},
		},
	})
}
