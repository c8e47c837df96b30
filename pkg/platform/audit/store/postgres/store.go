package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	id "fraudintel/pkg/domain"
	audit "fraudintel/pkg/platform/audit"
)

// Store writes search audit entries to search_audit_entries. Entries are
// append-only and idempotent on id, so a retried batch does not duplicate.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const entryColumns = `id, account_id, owner_id, source, criteria, result_count, request_id, client_ip, device, created_at`

const columnsPerEntry = 10

// AppendBatch inserts all entries in one statement.
func (s *Store) AppendBatch(ctx context.Context, entries []audit.SearchEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(entries)*columnsPerEntry)
	)
	sb.WriteString(`INSERT INTO search_audit_entries (` + entryColumns + `) VALUES `)
	for i, e := range entries {
		criteria, err := json.Marshal(e.Criteria)
		if err != nil {
			return fmt.Errorf("marshal audit criteria: %w", err)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := range columnsPerEntry {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$" + strconv.Itoa(i*columnsPerEntry+c+1))
		}
		sb.WriteString(")")
		args = append(args,
			uuid.UUID(e.ID),
			uuid.UUID(e.AccountID),
			uuid.UUID(e.OwnerID),
			e.Source,
			criteria,
			e.ResultCount,
			e.RequestID,
			e.ClientIP,
			e.Device,
			e.Timestamp,
		)
	}
	sb.WriteString(" ON CONFLICT (id) DO NOTHING")

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert audit entries: %w", err)
	}
	return nil
}

// ListByAccount returns an account's entries, newest first.
func (s *Store) ListByAccount(ctx context.Context, accountID id.AccountID) ([]audit.SearchEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM search_audit_entries WHERE account_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(accountID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.SearchEntry
	for rows.Next() {
		var (
			e                         audit.SearchEntry
			entryID, account, ownerID uuid.UUID
			criteria                  []byte
		)
		if err := rows.Scan(&entryID, &account, &ownerID, &e.Source, &criteria,
			&e.ResultCount, &e.RequestID, &e.ClientIP, &e.Device, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if err := json.Unmarshal(criteria, &e.Criteria); err != nil {
			return nil, fmt.Errorf("decode audit criteria: %w", err)
		}
		e.ID = id.AuditEntryID(entryID)
		e.AccountID = id.AccountID(account)
		e.OwnerID = id.AccountID(ownerID)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
