package verification

import (
	"slices"
	"strings"
)

// Status is the terminal classification of a row
type Status string

const (
	StatusVerified Status = "verified"
	StatusFlagged  Status = "flagged"
	StatusRejected Status = "rejected"
)

// Verdict is the per-row result of rule evaluation.
// Status is StatusRejected exactly when RejectionReasons is non-empty.
type Verdict struct {
	Row              RawRow            `json:"row"`
	Status           Status            `json:"status"`
	Tags             []string          `json:"tags"`
	RejectionReasons []string          `json:"rejection_reasons"`
	NormalizedFields map[string]string `json:"normalized_fields"`
	FiredRules       []string          `json:"fired_rules"`
}

// RowIndex returns the source row reference
func (v Verdict) RowIndex() int {
	return v.Row.Index()
}

// HasTag reports whether tag was applied
func (v Verdict) HasTag(tag string) bool {
	_, found := slices.BinarySearch(v.Tags, tag)
	return found
}

// IsRejected reports whether any reject rule fired
func (v Verdict) IsRejected() bool {
	return v.Status == StatusRejected
}

// Fields returns the raw values overlaid with normalized values. The malformed
// marker is bookkeeping, not product data, so it is left out.
func (v Verdict) Fields() map[string]string {
	fields := v.Row.Values()
	for k, val := range v.NormalizedFields {
		fields[k] = val
	}
	delete(fields, FieldMalformed)
	return fields
}

// Identifier returns the trimmed effective product identifier, "" when missing
func (v Verdict) Identifier() string {
	if id, ok := v.NormalizedFields[FieldID]; ok {
		return strings.TrimSpace(id)
	}
	return strings.TrimSpace(v.Row.Get(FieldID))
}

// Report is the result of evaluating a batch of rows
type Report struct {
	Verdicts []Verdict                  `json:"verdicts"`
	Warnings []RuleConfigurationWarning `json:"warnings"`
}

// CountByStatus tallies verdicts per status
func (r Report) CountByStatus() map[Status]int {
	counts := map[Status]int{StatusVerified: 0, StatusFlagged: 0, StatusRejected: 0}
	for _, v := range r.Verdicts {
		counts[v.Status]++
	}
	return counts
}
