// Package matcher scores producer fields against consumer fields of other
// operations using an ordered table of naming and typing rules.
package matcher

import (
	"strings"

	"github.com/prasenjit/go-depgraph/internal/models"
)

// Rule scores one producer/consumer pair. It returns false when the rule does
// not apply.
type Rule func(p, c models.FieldRef) (models.Match, bool)

// Scores of the default rules
const (
	ScoreExactNameExactType      = 1.0
	ScoreExactNameCompatibleType = 0.8
	ScoreFuzzyNameExactType      = 0.6
	ScoreIDSuffixHeuristic       = 0.4
)

// DefaultRules returns the built-in rules, strongest first
func DefaultRules() []Rule {
	return []Rule{
		ExactNameExactType,
		ExactNameCompatibleType,
		FuzzyNameExactType,
		IDSuffixHeuristic,
	}
}

// Matcher applies rules in order; the first rule that applies wins
type Matcher struct {
	rules []Rule
}

// New creates a matcher. Without rules the default table is used.
func New(rules ...Rule) *Matcher {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Matcher{rules: rules}
}

// Match scores a single pair. Pairs from the same operation, or pairs with
// their directions swapped, never match.
func (m *Matcher) Match(p, c models.FieldRef) (models.Match, bool) {
	if p.OperationID == c.OperationID || !p.IsProducer() || c.IsProducer() {
		return models.Match{}, false
	}
	for _, rule := range m.rules {
		if match, ok := rule(p, c); ok {
			return match, true
		}
	}
	return models.Match{}, false
}

// MatchFields evaluates every producer against every consumer. Results are
// ordered by producer, then consumer, following the input order.
func (m *Matcher) MatchFields(producers, consumers []models.FieldRef) []models.Match {
	var matches []models.Match
	for _, p := range producers {
		for _, c := range consumers {
			if p.OperationID == c.OperationID {
				continue
			}
			if match, ok := m.Match(p, c); ok {
				matches = append(matches, match)
			}
		}
	}
	return matches
}

func newMatch(p, c models.FieldRef, score float64, reason models.Reason) models.Match {
	return models.Match{Producer: p, Consumer: c, Score: score, Reason: reason}
}

// ExactNameExactType matches equal names with identical types
func ExactNameExactType(p, c models.FieldRef) (models.Match, bool) {
	if p.Type != c.Type || normalizeName(p.Name) != normalizeName(c.Name) {
		return models.Match{}, false
	}
	return newMatch(p, c, ScoreExactNameExactType, models.ReasonExactNameExactType), true
}

// ExactNameCompatibleType matches equal names whose types convert into each
// other
func ExactNameCompatibleType(p, c models.FieldRef) (models.Match, bool) {
	consumer := normalizeName(c.Name)
	if normalizeName(p.Name) != consumer || !compatibleTypes(p.Type, c.Type, consumer) {
		return models.Match{}, false
	}
	return newMatch(p, c, ScoreExactNameCompatibleType, models.ReasonExactNameCompatibleType), true
}

// FuzzyNameExactType matches names that agree once identifier suffixes and
// the producer's resource prefix are removed, with identical types
func FuzzyNameExactType(p, c models.FieldRef) (models.Match, bool) {
	if p.Type != c.Type {
		return models.Match{}, false
	}
	ps := stem(p.Name, p.Resource, p.Resource)
	if ps == "" || ps != stem(c.Name, c.Resource, p.Resource) {
		return models.Match{}, false
	}
	return newMatch(p, c, ScoreFuzzyNameExactType, models.ReasonFuzzyNameExactType), true
}

// IDSuffixHeuristic matches an identifier-like path parameter against a
// producer field named id or <resource>Id
func IDSuffixHeuristic(p, c models.FieldRef) (models.Match, bool) {
	if c.Location != models.LocationPath || !strings.HasSuffix(normalizeName(c.Name), "id") {
		return models.Match{}, false
	}

	producer := normalizeName(p.Name)
	resource := normalizeName(p.Resource)
	switch producer {
	case "id", singular(resource) + "id", resource + "id":
	default:
		return models.Match{}, false
	}
	return newMatch(p, c, ScoreIDSuffixHeuristic, models.ReasonIDSuffixHeuristic), true
}

// compatibleTypes reports whether differing types can carry the same value
func compatibleTypes(producer, consumer, consumerName string) bool {
	if producer == consumer {
		return false
	}
	numeric := func(t string) bool {
		return t == models.TypeInteger || t == models.TypeNumber
	}
	if numeric(producer) && numeric(consumer) {
		return true
	}
	stringy := producer == models.TypeString || consumer == models.TypeString
	return stringy && (numeric(producer) || numeric(consumer)) && hasIDSuffix(consumerName)
}
