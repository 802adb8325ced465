package query

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// maxQueryLen is the length above which a query draws an advisory warning.
const maxQueryLen = 10000

// Default keyword sets shared by the SQL dialects. Adapters extend these with
// dialect-specific keywords when building their rulesets.
var (
	// DefaultReadOperations are the statement keywords considered read-only.
	DefaultReadOperations = []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "DESCRIBE"}

	// DefaultWriteOperations are the statement keywords that mutate data or
	// schema and are always rejected.
	DefaultWriteOperations = []string{
		"INSERT", "UPDATE", "DELETE", "DROP", "TRUNCATE",
		"ALTER", "CREATE", "GRANT", "REVOKE", "MERGE",
		"REPLACE", "RENAME", "COMMENT", "VACUUM",
	}
)

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// ValidationResult is the safety verdict for one query. It is a pure function
// of the query text and never depends on connection state.
type ValidationResult struct {
	IsValid            bool
	IsReadOnly         bool
	Errors             []string
	Warnings           []string
	DetectedOperations []string
}

// ValidationSummary is a ValidationResult shaped for response envelopes.
type ValidationSummary struct {
	IsValid            bool     `json:"is_valid"`
	IsReadOnly         bool     `json:"is_read_only"`
	ErrorCount         int      `json:"error_count"`
	WarningCount       int      `json:"warning_count"`
	Errors             []string `json:"errors"`
	Warnings           []string `json:"warnings"`
	DetectedOperations []string `json:"detected_operations"`
}

// Summary returns the envelope form of the result.
func (v *ValidationResult) Summary() ValidationSummary {
	return ValidationSummary{
		IsValid:            v.IsValid,
		IsReadOnly:         v.IsReadOnly,
		ErrorCount:         len(v.Errors),
		WarningCount:       len(v.Warnings),
		Errors:             v.Errors,
		Warnings:           v.Warnings,
		DetectedOperations: v.DetectedOperations,
	}
}

// Ruleset is the keyword policy of one SQL dialect. The validation algorithm
// is shared; only the keyword sets differ between engines.
type Ruleset struct {
	readOps  map[string]bool
	writeOps map[string]bool
	tokenRe  *regexp.Regexp
}

// NewRuleset builds a Ruleset from read and write keyword lists.
func NewRuleset(readOps, writeOps []string) Ruleset {
	rs := Ruleset{
		readOps:  make(map[string]bool, len(readOps)),
		writeOps: make(map[string]bool, len(writeOps)),
	}

	all := make([]string, 0, len(readOps)+len(writeOps))
	for _, op := range readOps {
		rs.readOps[op] = true
		all = append(all, op)
	}
	for _, op := range writeOps {
		rs.writeOps[op] = true
		all = append(all, op)
	}

	rs.tokenRe = regexp.MustCompile(`\b(` + strings.Join(all, "|") + `)\b`)
	return rs
}

// DefaultRuleset returns the shared keyword policy.
func DefaultRuleset() Ruleset {
	return NewRuleset(DefaultReadOperations, DefaultWriteOperations)
}

// Validate applies the safety policy to a query. A query is valid when it
// contains no write keyword and no dangerous structural pattern; it is
// read-only when it is valid and contains at least one read keyword. A write
// keyword anywhere in the statement invalidates it, including inside a
// common table expression.
func (rs Ruleset) Validate(q string) *ValidationResult {
	res := &ValidationResult{}

	if strings.TrimSpace(q) == "" {
		res.Errors = append(res.Errors, "query cannot be empty")
		return res
	}

	normalized := normalizeQuery(q)
	res.DetectedOperations = rs.extractOperations(normalized)

	var writeOps []string
	for _, op := range res.DetectedOperations {
		if rs.writeOps[op] {
			writeOps = append(writeOps, op)
		}
	}
	if len(writeOps) > 0 {
		sort.Strings(writeOps)
		res.Errors = append(res.Errors,
			fmt.Sprintf("write operations not allowed: %s", strings.Join(writeOps, ", ")))
	}

	if dangerous := dangerousPatterns(normalized); len(dangerous) > 0 {
		res.Errors = append(res.Errors,
			fmt.Sprintf("dangerous patterns detected: %s", strings.Join(dangerous, ", ")))
	}

	readFound := false
	for _, op := range res.DetectedOperations {
		if rs.readOps[op] {
			readFound = true
			break
		}
	}

	if strings.Contains(normalized, ";") {
		res.Warnings = append(res.Warnings,
			"multiple statements detected; only the first statement will be executed")
	}
	if len(normalized) > maxQueryLen {
		res.Warnings = append(res.Warnings, "query is very long; consider simplifying")
	}

	res.IsValid = len(res.Errors) == 0
	res.IsReadOnly = res.IsValid && readFound
	return res
}

// normalizeQuery strips comments and uppercases the query for keyword
// matching.
func normalizeQuery(q string) string {
	q = lineCommentRe.ReplaceAllString(q, "")
	q = blockCommentRe.ReplaceAllString(q, "")
	return strings.ToUpper(strings.TrimSpace(q))
}

// extractOperations returns the recognized keywords in first-seen order,
// deduplicated.
func (rs Ruleset) extractOperations(normalized string) []string {
	var ops []string
	seen := make(map[string]bool)
	for _, m := range rs.tokenRe.FindAllString(normalized, -1) {
		if !seen[m] {
			seen[m] = true
			ops = append(ops, m)
		}
	}
	return ops
}

// dangerousPatterns scans for structures the keyword check cannot catch:
// statement chains, SELECT ... INTO, and inline procedure invocation.
func dangerousPatterns(normalized string) []string {
	var found []string

	if strings.Count(normalized, ";") > 1 {
		found = append(found, "multiple_statements")
	}
	if strings.Contains(normalized, " INTO ") && strings.Contains(normalized, "SELECT") {
		found = append(found, "select_into")
	}
	for _, kw := range []string{"EXEC ", "EXECUTE ", "CALL "} {
		if strings.Contains(normalized, kw) {
			found = append(found, "procedure_execution")
			break
		}
	}

	return found
}
