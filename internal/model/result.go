package model

import (
	"bytes"
	"encoding/json"
)

// Increase is one percentage within a date group, with the category that
// drives the spreadsheet coloring.
type Increase struct {
	Percentage float64  `json:"percentage"`
	Category   Category `json:"categorie"`
}

// AggregatedGroup holds all wage-increase percentages sharing one effective
// date within one document, merged for display. Increases are sorted
// ascending by percentage; DisplayString is the contractual comma-decimal
// rendering, e.g. "2,00%/3,00%".
type AggregatedGroup struct {
	Date          string     `json:"datum"`
	Increases     []Increase `json:"-"`
	DisplayString string     `json:"percentage"`
}

// Percentages returns the sorted percentage values of the group.
func (g AggregatedGroup) Percentages() []float64 {
	out := make([]float64, len(g.Increases))
	for i, inc := range g.Increases {
		out[i] = inc.Percentage
	}
	return out
}

// FailureReason identifies why a document produced no analysis.
type FailureReason string

const (
	// FailureNone marks a successful document result.
	FailureNone FailureReason = ""
	// FailureExtraction: the text collaborator could not produce usable text.
	FailureExtraction FailureReason = "extraction_failed"
	// FailureNoCandidates: text extracted, but no sentence combined a wage
	// keyword with a percentage literal.
	FailureNoCandidates FailureReason = "no_candidate_sentences"
)

// Message returns the user-facing (Dutch) description of the failure.
func (r FailureReason) Message() string {
	switch r {
	case FailureExtraction:
		return "Tekstextractie mislukt"
	case FailureNoCandidates:
		return "Geen relevante zinnen gevonden"
	default:
		return ""
	}
}

// DocumentResult is the per-document outcome: either an ordered list of
// aggregated groups (possibly empty), or an explicit failure reason.
// An empty group list is a valid success, distinct from both failures.
type DocumentResult struct {
	Groups  []AggregatedGroup `json:"verhogingen"`
	Failure FailureReason     `json:"error,omitempty"`
}

// Failed reports whether the document short-circuited before aggregation.
func (r DocumentResult) Failed() bool {
	return r.Failure != FailureNone
}

// HasIncreases reports whether the document contributed at least one group.
func (r DocumentResult) HasIncreases() bool {
	return !r.Failed() && len(r.Groups) > 0
}

// AnalysisRun maps document identifiers to their results, preserving the
// order in which documents were submitted.
type AnalysisRun struct {
	order   []string
	results map[string]DocumentResult
}

// NewAnalysisRun creates an empty run.
func NewAnalysisRun() *AnalysisRun {
	return &AnalysisRun{results: make(map[string]DocumentResult)}
}

// Add records the result for a document. Identifiers are unique within a
// run; re-adding an identifier overwrites its result but keeps its position.
func (a *AnalysisRun) Add(id string, result DocumentResult) {
	if _, seen := a.results[id]; !seen {
		a.order = append(a.order, id)
	}
	a.results[id] = result
}

// IDs returns document identifiers in submission order.
func (a *AnalysisRun) IDs() []string {
	ids := make([]string, len(a.order))
	copy(ids, a.order)
	return ids
}

// Get returns the result recorded for id.
func (a *AnalysisRun) Get(id string) (DocumentResult, bool) {
	r, ok := a.results[id]
	return r, ok
}

// Len returns the number of documents in the run.
func (a *AnalysisRun) Len() int {
	return len(a.order)
}

// HasIncreases reports whether any document in the run produced at least
// one aggregated group. Boundary layers surface the all-empty case as a
// single aggregate error.
func (a *AnalysisRun) HasIncreases() bool {
	for _, r := range a.results {
		if r.HasIncreases() {
			return true
		}
	}
	return false
}

// MarshalJSON renders the run as a JSON object keyed by document
// identifier, in submission order.
func (a *AnalysisRun) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range a.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(a.results[id])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
