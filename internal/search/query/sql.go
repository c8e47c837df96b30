package query

import (
	"strconv"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SQL renders the predicate as a PostgreSQL WHERE fragment over the records
// table. Placeholders start at $startArg; args are returned in order.
// An empty predicate renders as TRUE.
func (p *Predicate) SQL(startArg int) (string, []any) {
	w := &whereBuilder{next: startArg}

	if p.recordType != "" {
		w.add("lower(record_type) = lower(" + w.arg(p.recordType) + ")")
	}
	if p.severity != "" {
		w.add("severity = " + w.arg(string(p.severity)))
	}
	if p.minAmount != nil {
		w.add("amount >= " + w.arg(*p.minAmount))
	}
	if p.maxAmount != nil {
		w.add("amount <= " + w.arg(*p.maxAmount))
	}
	if p.email != "" {
		w.add("email ILIKE " + w.arg(containsPattern(p.email)))
	}
	if p.phone != "" {
		w.add("phone ILIKE " + w.arg(containsPattern(p.phone)))
	}
	if p.keyword != nil {
		op, value := "~*", p.keyword.pattern
		if p.keyword.re == nil {
			op, value = "ILIKE", containsPattern(p.keyword.raw)
		}
		ph := w.arg(value)
		w.add("(title " + op + " " + ph +
			" OR description " + op + " " + ph +
			" OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag " + op + " " + ph + "))")
	}

	if len(w.clauses) == 0 {
		return "TRUE", nil
	}
	return strings.Join(w.clauses, " AND "), w.args
}

type whereBuilder struct {
	clauses []string
	args    []any
	next    int
}

func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	ph := "$" + strconv.Itoa(w.next)
	w.next++
	return ph
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
