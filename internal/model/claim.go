package model

// RawClaim is a single wage-increase assertion as returned by the
// classification endpoint. It is untrusted: fields may be missing, null,
// or carry the wrong type (percentages arrive as numbers or strings).
type RawClaim struct {
	Datum      *string `json:"datum"`                // effective date, expected DD/MM/YYYY
	Percentage any     `json:"percentage"`           // number, string ("3,5%"), or null
	Categorie  string  `json:"categorie,omitempty"`  // increase category label
	Uitleg     string  `json:"uitleg,omitempty"`     // classifier's explanation
}

// Category classifies the kind of wage increase
type Category string

const (
	CategoryStandaard   Category = "standaard"           // plain collective increase
	CategoryVerlofdagen Category = "verlofdag_omzetting" // leave days converted to salary
	CategoryDienstjaren Category = "dienstjaren_toeslag" // seniority-based supplement
	CategoryWML         Category = "WML_koppeling"       // tied to the statutory minimum wage
	CategoryAnders      Category = "anders"              // anything else
)

// ParseCategory maps a classifier label to a known Category.
// Unrecognized or empty labels fall back to CategoryStandaard.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryStandaard, CategoryVerlofdagen, CategoryDienstjaren, CategoryWML, CategoryAnders:
		return Category(s), true
	default:
		return CategoryStandaard, false
	}
}

// NormalizedClaim is a RawClaim that survived validation: both fields
// parsed, percentage coerced to a non-negative float, category resolved.
type NormalizedClaim struct {
	Date       string   `json:"datum"`      // kept verbatim; grouping tolerates odd formats
	Percentage float64  `json:"percentage"`
	Category   Category `json:"categorie"`
}
