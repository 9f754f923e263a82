package aggregate

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/team-sakkal/caoscan/internal/model"
)

// DateLayout is the expected effective-date format (day/month/year).
const DateLayout = "02/01/2006"

// Aggregator merges normalized claims into per-date groups for display.
//
// Grouping is by the literal date string, not the parsed calendar value:
// the oracle is told to emit DD/MM/YYYY but does not always comply, and a
// literal key tolerates stray formats without losing claims.
type Aggregator struct{}

// New creates an aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Aggregate groups claims by date, sorts percentages ascending within
// each group, and orders groups chronologically. Groups whose date string
// does not parse as DD/MM/YYYY sort after all parsable dates, keeping
// their encounter order among themselves.
func (a *Aggregator) Aggregate(claims []model.NormalizedClaim) []model.AggregatedGroup {
	if len(claims) == 0 {
		return nil
	}

	var order []string
	byDate := make(map[string][]model.Increase)
	for _, c := range claims {
		if _, seen := byDate[c.Date]; !seen {
			order = append(order, c.Date)
		}
		byDate[c.Date] = append(byDate[c.Date], model.Increase{
			Percentage: c.Percentage,
			Category:   c.Category,
		})
	}

	groups := make([]model.AggregatedGroup, 0, len(order))
	for _, date := range order {
		increases := byDate[date]
		sort.SliceStable(increases, func(i, j int) bool {
			return increases[i].Percentage < increases[j].Percentage
		})
		groups = append(groups, model.AggregatedGroup{
			Date:          date,
			Increases:     increases,
			DisplayString: displayString(increases),
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		ti, okI := parseDate(groups[i].Date)
		tj, okJ := parseDate(groups[j].Date)
		switch {
		case okI && okJ:
			return ti.Before(tj)
		case okI:
			return true
		default:
			// Unparsable dates sort last; two unparsable dates keep
			// their encounter order through the stable sort.
			return false
		}
	})

	return groups
}

// FormatPercentage renders one percentage in the contractual form: two
// decimals, comma as decimal separator, percent suffix.
func FormatPercentage(p float64) string {
	return strings.Replace(strconv.FormatFloat(p, 'f', 2, 64), ".", ",", 1) + "%"
}

func displayString(increases []model.Increase) string {
	parts := make([]string, len(increases))
	for i, inc := range increases {
		parts[i] = FormatPercentage(inc.Percentage)
	}
	return strings.Join(parts, "/")
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
