package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"fraudintel/internal/search/models"
	"fraudintel/internal/search/query"
	id "fraudintel/pkg/domain"
	txcontext "fraudintel/pkg/platform/tx"
)

// PostgresStore reads fraud records from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, title, description, tags, record_type, severity, amount, currency, email, phone, created_at`

// Find runs the count and the page query concurrently. Both use the same
// WHERE fragment so the total always describes the paged set.
func (s *PostgresStore) Find(ctx context.Context, p *query.Predicate, page query.Pagination) (models.Page, error) {
	where, args := p.SQL(1)

	var (
		total int
		items []models.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := `SELECT COUNT(*) FROM records WHERE ` + where
		if err := s.db.QueryRowContext(gctx, q, args...).Scan(&total); err != nil {
			return fmt.Errorf("count records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		n := len(args)
		q := `SELECT ` + recordColumns + ` FROM records WHERE ` + where +
			` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
		pageArgs := append(append([]any{}, args...), page.Size, page.Offset())

		rows, err := s.db.QueryContext(gctx, q, pageArgs...)
		if err != nil {
			return fmt.Errorf("query records: %w", err)
		}
		defer rows.Close()

		items = make([]models.Record, 0, page.Size)
		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				return fmt.Errorf("scan record: %w", err)
			}
			items = append(items, *r)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate records: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Page{}, err
	}
	return models.Page{Items: items, Total: total}, nil
}

// Insert adds records, replacing rows with the same id.
func (s *PostgresStore) Insert(ctx context.Context, records ...models.Record) error {
	q := `
		INSERT INTO records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			record_type = EXCLUDED.record_type,
			severity = EXCLUDED.severity,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			created_at = EXCLUDED.created_at
	`
	exec := txcontext.Exec(ctx, s.db)
	for _, r := range records {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		_, err := exec.ExecContext(ctx, q,
			uuid.UUID(r.ID), r.Title, r.Description, pq.Array(tags), r.Type, string(r.Severity),
			r.Amount, r.Currency, r.Email, r.Phone, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.Record, error) {
	var (
		r        models.Record
		recordID uuid.UUID
		tags     []string
		severity string
	)
	if err := row.Scan(
		&recordID, &r.Title, &r.Description, pq.Array(&tags), &r.Type, &severity,
		&r.Amount, &r.Currency, &r.Email, &r.Phone, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.ID = id.RecordID(recordID)
	r.Tags = tags
	r.Severity = models.Severity(severity)
	return &r, nil
}
