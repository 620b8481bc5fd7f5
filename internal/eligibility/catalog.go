package eligibility

import "strings"

// Rule carries the promotion thresholds for one position.
type Rule struct {
	CurrentPosition      string
	Promotion            string
	MinTenureMonths      int
	MinExamGrade         float64
	MinCourseCoverage    float64
	MinPerformanceRating float64
}

// NormalizePosition folds a position name to its canonical lookup key:
// surrounding whitespace trimmed, uppercased, exact match only.
func NormalizePosition(position string) string {
	return strings.ToUpper(strings.TrimSpace(position))
}

// Catalog is an immutable O(1) lookup of promotion rules keyed by normalized
// current-position name. A later duplicate replaces an earlier one, keeping
// the at-most-one-rule-per-position invariant.
type Catalog struct {
	rules map[string]Rule
}

// NewCatalog builds the lookup once from the full rule list.
func NewCatalog(rules []Rule) *Catalog {
	indexed := make(map[string]Rule, len(rules))
	for _, rule := range rules {
		indexed[NormalizePosition(rule.CurrentPosition)] = rule
	}
	return &Catalog{rules: indexed}
}

// Lookup returns the rule for a position. Absence is not an error: it means
// the employee has no applicable promotion path.
func (c *Catalog) Lookup(position string) (*Rule, bool) {
	if c == nil {
		return nil, false
	}
	rule, ok := c.rules[NormalizePosition(position)]
	if !ok {
		return nil, false
	}
	return &rule, true
}

// Len reports the number of indexed rules.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rules)
}
