package usecase

import "strings"

// DefaultGuardrailTerms mark hedging or overly generic sentences.
var DefaultGuardrailTerms = []string{"usually", "between", "include", "some", "variations"}

// Guardrail rejects sentences containing any denylisted term. Matching is
// case-insensitive substring containment, so "some" also rejects "awesome".
type Guardrail struct {
	terms []string
}

func NewGuardrail(terms []string) Guardrail {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		out = append(out, term)
	}
	return Guardrail{terms: out}
}

func (g Guardrail) Allows(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, term := range g.terms {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

func (g Guardrail) Terms() []string {
	out := make([]string, len(g.terms))
	copy(out, g.terms)
	return out
}
