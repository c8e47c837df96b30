// Package models holds the fraud-intelligence record schema shared by the
// authoritative store and the decoy dataset.
package models

import (
	"bytes"
	"slices"
	"time"

	id "fraudintel/pkg/domain"
)

// Severity ranks a fraud record.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid reports whether the severity is one of the known levels.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Source identifies which dataset produced a result page.
type Source string

const (
	SourceAuthoritative Source = "authoritative"
	SourceDecoy         Source = "decoy"
)

// Record is one fraud report. Authoritative and decoy data share this schema.
type Record struct {
	ID          id.RecordID `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Tags        []string    `json:"tags" yaml:"tags"`
	Type        string      `json:"type" yaml:"type"`
	Severity    Severity    `json:"severity" yaml:"severity"`
	Amount      float64     `json:"amount" yaml:"amount"`
	Currency    string      `json:"currency" yaml:"currency"`
	Email       string      `json:"email,omitempty" yaml:"email"`
	Phone       string      `json:"phone,omitempty" yaml:"phone"`
	CreatedAt   time.Time   `json:"createdAt" yaml:"created_at"`
}

// Criteria is a request-scoped search request. It is never persisted.
// Zero values mean "no clause" except Fuzziness, where 0 means phrase match.
type Criteria struct {
	Keyword   string
	Type      string
	Severity  Severity
	Email     string
	Phone     string
	MinAmount *float64
	MaxAmount *float64
	Fuzziness float64
	Page      int
	PageSize  int
}

// Page is one slice of matching records plus the total match count.
type Page struct {
	Items []Record
	Total int
}

// Pagination echoes the applied paging to clients.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Response is the result of a granted search.
type Response struct {
	Source       Source     `json:"source"`
	Items        []Record   `json:"items"`
	SearchesUsed int        `json:"searchesUsed"`
	SearchLimit  int        `json:"searchLimit"`
	Pagination   Pagination `json:"pagination"`
}

// SortNewestFirst orders records by CreatedAt descending with ID descending
// as the tiebreaker, matching the authoritative store's ORDER BY.
func SortNewestFirst(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})
}
