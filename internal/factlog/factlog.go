// Package factlog maintains the deduplicated list of tacit-knowledge
// statements extracted during the interview.
package factlog

import (
	"strings"
	"unicode"
)

// jaccardThreshold is the token-set similarity above which two facts are
// treated as duplicates.
const jaccardThreshold = 0.55

// stopwords are excluded from token-set comparison so similarity is
// driven by content words.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"of": true, "to": true, "in": true, "on": true, "at": true,
	"for": true, "by": true, "with": true, "from": true, "as": true,
	"and": true, "or": true, "but": true, "not": true, "no": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"those": true, "there": true, "their": true, "they": true,
	"he": true, "she": true, "we": true, "you": true, "i": true,
	"do": true, "does": true, "did": true, "has": true, "have": true,
	"had": true, "will": true, "would": true, "can": true, "could": true,
	"should": true, "which": true, "what": true, "when": true,
	"who": true, "how": true, "if": true, "then": true, "so": true,
	"because": true, "about": true, "into": true, "also": true,
}

// Log is the fact log for one session. Comparison is O(n^2) per batch,
// which is fine at interview scale (tens to low hundreds of facts).
type Log struct {
	facts []string
}

// New builds a log around existing facts, preserving insertion order.
func New(facts []string) *Log {
	return &Log{facts: facts}
}

// Facts returns the current entries in insertion order.
func (l *Log) Facts() []string {
	return l.facts
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.facts)
}

// AddCandidate runs a candidate statement through dedup and reports
// whether it entered the log as a genuinely new fact.
//
// Against each existing entry, in insertion order:
//  1. case-insensitive exact match rejects the candidate;
//  2. substring containment either direction keeps the longer statement,
//     replacing the existing entry in place when the candidate subsumes it;
//  3. token-set Jaccard similarity over content words at or above the
//     threshold keeps the longer statement, ties keeping the earlier one.
//
// A candidate that only replaces an existing entry is not counted as new.
func (l *Log) AddCandidate(text string) bool {
	cand := strings.TrimSpace(text)
	if cand == "" {
		return false
	}
	candFold := strings.ToLower(cand)
	candTokens := contentTokens(cand)

	for i, existing := range l.facts {
		exFold := strings.ToLower(strings.TrimSpace(existing))

		if candFold == exFold {
			return false
		}

		if strings.Contains(exFold, candFold) {
			// Existing statement already covers the candidate.
			return false
		}
		if strings.Contains(candFold, exFold) {
			// Candidate is the more detailed statement; keep it in place.
			l.facts[i] = cand
			return false
		}

		if jaccard(candTokens, contentTokens(existing)) >= jaccardThreshold {
			if len(cand) > len(existing) {
				l.facts[i] = cand
			}
			return false
		}
	}

	l.facts = append(l.facts, cand)
	return true
}

// contentTokens lowercases, strips punctuation, and drops stopwords.
func contentTokens(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !stopwords[f] {
			tokens[f] = true
		}
	}
	return tokens
}

// jaccard computes intersection-over-union for two token sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
