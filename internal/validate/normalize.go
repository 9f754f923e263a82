package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/team-sakkal/caoscan/internal/model"
)

// notApplicable is the oracle's idiom for "no value": treated as absence.
const notApplicable = "n.v.t."

// Normalizer validates raw classifier claims and coerces them into typed
// NormalizedClaims. It is purely functional apart from diagnostic logging
// and never touches the network.
type Normalizer struct {
	logger zerolog.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger zerolog.Logger) *Normalizer {
	return &Normalizer{logger: logger.With().Str("component", "normalizer").Logger()}
}

// Normalize validates one raw claim. The second return value is false for
// rejected claims; rejection is never an error for the caller.
func (n *Normalizer) Normalize(raw model.RawClaim) (model.NormalizedClaim, bool) {
	if raw.Datum == nil || raw.Percentage == nil {
		n.logger.Debug().Msg("claim rejected: missing date or percentage")
		return model.NormalizedClaim{}, false
	}

	date := strings.TrimSpace(*raw.Datum)
	if date == "" || strings.EqualFold(date, notApplicable) {
		n.logger.Debug().Str("datum", date).Msg("claim rejected: not-applicable date")
		return model.NormalizedClaim{}, false
	}
	if s, ok := raw.Percentage.(string); ok && strings.EqualFold(strings.TrimSpace(s), notApplicable) {
		n.logger.Debug().Msg("claim rejected: not-applicable percentage")
		return model.NormalizedClaim{}, false
	}

	percentage, ok := coercePercentage(raw.Percentage)
	if !ok {
		n.logger.Warn().
			Str("percentage", fmt.Sprintf("%v", raw.Percentage)).
			Msg("claim rejected: unparseable percentage")
		return model.NormalizedClaim{}, false
	}
	if percentage < 0 {
		n.logger.Warn().Float64("percentage", percentage).Msg("claim rejected: negative percentage")
		return model.NormalizedClaim{}, false
	}

	category, recognized := model.ParseCategory(raw.Categorie)
	if !recognized && raw.Categorie != "" {
		n.logger.Debug().Str("categorie", raw.Categorie).Msg("unrecognized category, defaulting to standaard")
	}

	return model.NormalizedClaim{
		Date:       date,
		Percentage: percentage,
		Category:   category,
	}, true
}

// NormalizeAll filters a batch of raw claims, keeping input order.
func (n *Normalizer) NormalizeAll(raws []model.RawClaim) []model.NormalizedClaim {
	var out []model.NormalizedClaim
	for _, raw := range raws {
		if claim, ok := n.Normalize(raw); ok {
			out = append(out, claim)
		}
	}
	return out
}

// coercePercentage accepts the numeric JSON forms directly and repairs
// string forms like "3,5%" or " 3.5 % ".
func coercePercentage(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		s = strings.ReplaceAll(s, "%", "")
		s = strings.ReplaceAll(s, ",", ".")
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
