// Package query turns loosely structured search input into a predicate that
// evaluates the same way in memory and in PostgreSQL.
package query

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"fraudintel/internal/search/models"
)

const (
	MaxFuzziness = 100
	minGap       = 3
	maxGap       = 50

	// phraseSeparator is spelled out so RE2 and PostgreSQL agree on it; their
	// \s classes differ on \v and on Unicode spaces.
	phraseSeparator = `[ \t\n\v\f\r]+`
)

// compile is swapped in tests to exercise the literal fallback.
var compile = regexp.Compile

// Predicate is the single definition of "record matches criteria". Matches
// evaluates it in memory; SQL renders the same clause set for PostgreSQL.
type Predicate struct {
	recordType string
	severity   models.Severity
	email      string
	phone      string
	minAmount  *float64
	maxAmount  *float64
	keyword    *keywordClause
}

type keywordClause struct {
	// raw is the trimmed keyword, used by the literal fallback.
	raw string
	// pattern is the tokenized expression without flags. It is valid in both
	// RE2 and PostgreSQL ARE syntax.
	pattern string
	// re is nil when pattern failed to compile; matching is then a
	// case-insensitive substring test over raw.
	re *regexp.Regexp
}

// Build never fails. Absent fields contribute no clause and invalid keyword
// patterns degrade to a literal substring match.
func Build(c models.Criteria) *Predicate {
	p := &Predicate{
		recordType: strings.TrimSpace(c.Type),
		severity:   c.Severity,
		email:      strings.ToLower(strings.TrimSpace(c.Email)),
		phone:      strings.ToLower(strings.TrimSpace(c.Phone)),
		minAmount:  c.MinAmount,
		maxAmount:  c.MaxAmount,
	}
	if kw := strings.TrimSpace(c.Keyword); kw != "" {
		p.keyword = buildKeyword(kw, c.Fuzziness)
	}
	return p
}

// Gap returns the maximum number of characters allowed between keyword
// tokens for a fuzziness level, or 0 for phrase matching.
func Gap(fuzziness float64) int {
	f := ClampFuzziness(fuzziness)
	if f == 0 {
		return 0
	}
	gap := int(math.Round(f / 2))
	return min(max(gap, minGap), maxGap)
}

// ClampFuzziness bounds fuzziness to [0, MaxFuzziness]. NaN becomes 0.
func ClampFuzziness(fuzziness float64) float64 {
	if math.IsNaN(fuzziness) {
		return 0
	}
	return min(max(fuzziness, 0), MaxFuzziness)
}

func buildKeyword(raw string, fuzziness float64) *keywordClause {
	fields := strings.FieldsFunc(raw, isPhraseSpace)
	tokens := make([]string, len(fields))
	for i, f := range fields {
		tokens[i] = regexp.QuoteMeta(f)
	}

	sep := phraseSeparator
	if gap := Gap(fuzziness); gap > 0 {
		sep = `.{0,` + strconv.Itoa(gap) + `}?`
	}
	pattern := strings.Join(tokens, sep)

	kc := &keywordClause{raw: raw, pattern: pattern}
	if re, err := compile(`(?is)` + pattern); err == nil {
		kc.re = re
	}
	return kc
}

// isPhraseSpace reports the characters matched by phraseSeparator.
func isPhraseSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func (k *keywordClause) match(s string) bool {
	if k.re != nil {
		return k.re.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(k.raw))
}

func (k *keywordClause) matchRecord(r models.Record) bool {
	if k.match(r.Title) || k.match(r.Description) {
		return true
	}
	for _, tag := range r.Tags {
		if k.match(tag) {
			return true
		}
	}
	return false
}

// Matches reports whether r satisfies every clause.
func (p *Predicate) Matches(r models.Record) bool {
	if p.recordType != "" && !strings.EqualFold(r.Type, p.recordType) {
		return false
	}
	if p.severity != "" && r.Severity != p.severity {
		return false
	}
	if p.minAmount != nil && r.Amount < *p.minAmount {
		return false
	}
	if p.maxAmount != nil && r.Amount > *p.maxAmount {
		return false
	}
	if p.email != "" && !strings.Contains(strings.ToLower(r.Email), p.email) {
		return false
	}
	if p.phone != "" && !strings.Contains(strings.ToLower(r.Phone), p.phone) {
		return false
	}
	if p.keyword != nil && !p.keyword.matchRecord(r) {
		return false
	}
	return true
}

// HasKeyword reports whether a keyword clause is present.
func (p *Predicate) HasKeyword() bool {
	return p.keyword != nil
}

// Literal reports whether the keyword clause fell back to substring matching.
func (p *Predicate) Literal() bool {
	return p.keyword != nil && p.keyword.re == nil
}
