// Package audit records one append-only entry per granted search. Emission
// never blocks or fails the request; entries are buffered and persisted by a
// background worker.
package audit

import (
	"context"
	"time"

	id "fraudintel/pkg/domain"
)

// SearchEntry is the audit record of a granted search.
type SearchEntry struct {
	ID          id.AuditEntryID
	AccountID   id.AccountID
	OwnerID     id.AccountID
	Criteria    CriteriaSnapshot
	Source      string
	ResultCount int
	RequestID   string
	ClientIP    string
	Device      string
	Timestamp   time.Time
}

// CriteriaSnapshot is the search input as audited. Email and phone are
// stored only as keyed hashes.
type CriteriaSnapshot struct {
	Keyword   string   `json:"keyword,omitempty"`
	Type      string   `json:"type,omitempty"`
	Severity  string   `json:"severity,omitempty"`
	EmailHash string   `json:"emailHash,omitempty"`
	PhoneHash string   `json:"phoneHash,omitempty"`
	MinAmount *float64 `json:"minAmount,omitempty"`
	MaxAmount *float64 `json:"maxAmount,omitempty"`
	Fuzziness float64  `json:"fuzziness"`
	Page      int      `json:"page"`
	PageSize  int      `json:"pageSize"`
}

// Store persists audit entries in batches.
type Store interface {
	AppendBatch(ctx context.Context, entries []SearchEntry) error
}
