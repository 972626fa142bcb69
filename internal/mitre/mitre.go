// Package mitre holds the static MITRE ATT&CK mapping tables used to tag
// incidents with techniques. The tables are data, not code: extending the
// mapping never requires touching the inspection pipeline.
package mitre

import (
	"strings"
)

// Technique identifies a MITRE ATT&CK technique.
type Technique struct {
	ID          string
	Name        string
	Tactic      string
	Description string
}

// Sentinel values attached to rules with no dashboard mapping.
const (
	UnknownID      = "Unknown"
	UnmappedTactic = "Unmapped"
)

// keywordRule pairs a case-insensitive substring of a rule name with the
// technique it implies.
type keywordRule struct {
	Keyword   string
	Technique Technique
}

// keywordTable drives the automatic incident-to-technique derivation. Order
// matters: the first keyword found in the rule name wins.
var keywordTable = []keywordRule{
	{
		Keyword: "SQL",
		Technique: Technique{
			ID:          "T1190",
			Name:        "Exploit Public-Facing Application",
			Tactic:      "Initial Access",
			Description: "SQL Injection attempt detected.",
		},
	},
	{
		Keyword: "XSS",
		Technique: Technique{
			ID:          "T1059.007",
			Name:        "Cross-Site Scripting (XSS)",
			Tactic:      "Execution",
			Description: "Potential XSS attack detected.",
		},
	},
}

// MapRule derives a technique from a rule name by case-insensitive substring
// search. Returns false when no keyword matches.
func MapRule(rule string) (Technique, bool) {
	upper := strings.ToUpper(rule)
	for _, kr := range keywordTable {
		if strings.Contains(upper, kr.Keyword) {
			return kr.Technique, true
		}
	}
	return Technique{}, false
}

// dashboardTable maps exact rule names to the id/tactic pair shown in the
// TTP roll-up.
var dashboardTable = map[string]Technique{
	"SQL Injection":  {ID: "T1190", Tactic: "Execution"},
	"SQLInjection":   {ID: "T1190", Tactic: "Execution"},
	"XSS":            {ID: "T1059.007", Tactic: "Execution"},
	"Path Traversal": {ID: "T1083", Tactic: "Discovery"},
	"PathTraversal":  {ID: "T1083", Tactic: "Discovery"},
	"Brute Force":    {ID: "T1110", Tactic: "Credential Access"},
}

// DashboardLookup returns the id/tactic pair for a rule name, falling back to
// the Unknown/Unmapped sentinels.
func DashboardLookup(rule string) Technique {
	if t, ok := dashboardTable[rule]; ok {
		return t
	}
	return Technique{ID: UnknownID, Tactic: UnmappedTactic}
}
