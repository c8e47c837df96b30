package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fraudintel/internal/account/models"
	"fraudintel/internal/account/ports"
	id "fraudintel/pkg/domain"
	"fraudintel/pkg/platform/sentinel"
	txcontext "fraudintel/pkg/platform/tx"
)

// PostgresStore persists accounts in PostgreSQL. Every write is a single
// statement so the counter and the notice flag stay consistent under
// concurrent requests without application-level locking.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `
	id, email, name, role, parent_account_id,
	entitlement_kind, entitlement_status, searches_used, search_limit,
	trial_ends_at, package_ends_at, can_access_authoritative, low_quota_notified,
	created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	account, err := scanAccount(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(accountID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

// Save upserts an account. Used by provisioning tooling and tests.
func (s *PostgresStore) Save(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			parent_account_id = EXCLUDED.parent_account_id,
			entitlement_kind = EXCLUDED.entitlement_kind,
			entitlement_status = EXCLUDED.entitlement_status,
			searches_used = EXCLUDED.searches_used,
			search_limit = EXCLUDED.search_limit,
			trial_ends_at = EXCLUDED.trial_ends_at,
			package_ends_at = EXCLUDED.package_ends_at,
			can_access_authoritative = EXCLUDED.can_access_authoritative,
			low_quota_notified = EXCLUDED.low_quota_notified,
			updated_at = NOW()
	`
	var parent *uuid.UUID
	if account.ParentAccountID != nil {
		p := uuid.UUID(*account.ParentAccountID)
		parent = &p
	}
	ent := account.Entitlement
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(account.ID),
		account.Email,
		account.Name,
		string(account.Role),
		parent,
		string(ent.Kind),
		string(ent.Status),
		ent.Used,
		ent.Limit,
		ent.TrialEndsAt,
		ent.PackageEndsAt,
		ent.CanAccessAuthoritativeData,
		ent.LowQuotaNotified,
	)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkExpired(ctx context.Context, accountID id.AccountID) error {
	query := `
		UPDATE accounts
		SET entitlement_status = 'expired', updated_at = NOW()
		WHERE id = $1 AND entitlement_status <> 'expired'
	`
	if _, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, uuid.UUID(accountID)); err != nil {
		return fmt.Errorf("mark entitlement expired: %w", err)
	}
	return nil
}

// IncrementUsage adds one search with the limit guard in the WHERE clause, so
// concurrent requests can neither lose updates nor push used past limit.
func (s *PostgresStore) IncrementUsage(ctx context.Context, accountID id.AccountID) (models.Usage, error) {
	query := `
		UPDATE accounts
		SET searches_used = searches_used + 1, updated_at = NOW()
		WHERE id = $1
		  AND (search_limit = -1 OR searches_used < search_limit)
		RETURNING searches_used, search_limit, low_quota_notified
	`
	var usage models.Usage
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(accountID)).
		Scan(&usage.Used, &usage.Limit, &usage.LowQuotaNotified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the account vanished or the guard rejected the increment.
			return models.Usage{}, sentinel.ErrConflict
		}
		return models.Usage{}, fmt.Errorf("increment usage: %w", err)
	}
	return usage, nil
}

func (s *PostgresStore) IncrementMemberUsage(ctx context.Context, accountID id.AccountID) error {
	query := `
		UPDATE accounts
		SET searches_used = searches_used + 1, updated_at = NOW()
		WHERE id = $1
	`
	result, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, uuid.UUID(accountID))
	if err != nil {
		return fmt.Errorf("increment member usage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment member usage rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ClaimLowQuotaNotice uses a conditional UPDATE so only the first writer
// flips the flag; every later caller affects zero rows.
func (s *PostgresStore) ClaimLowQuotaNotice(ctx context.Context, accountID id.AccountID) (bool, error) {
	query := `
		UPDATE accounts
		SET low_quota_notified = TRUE, updated_at = NOW()
		WHERE id = $1
		  AND low_quota_notified = FALSE
	`
	result, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, uuid.UUID(accountID))
	if err != nil {
		return false, fmt.Errorf("claim low quota notice: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim low quota notice rows affected: %w", err)
	}
	return rows > 0, nil
}

type accountRow interface {
	Scan(dest ...any) error
}

func scanAccount(row accountRow) (*models.Account, error) {
	var (
		accountID uuid.UUID
		parentID  uuid.NullUUID
		role      string
		kind      string
		status    string
		trialEnd  sql.NullTime
		pkgEnd    sql.NullTime
		account   models.Account
	)
	err := row.Scan(
		&accountID,
		&account.Email,
		&account.Name,
		&role,
		&parentID,
		&kind,
		&status,
		&account.Entitlement.Used,
		&account.Entitlement.Limit,
		&trialEnd,
		&pkgEnd,
		&account.Entitlement.CanAccessAuthoritativeData,
		&account.Entitlement.LowQuotaNotified,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.ID = id.AccountID(accountID)
	account.Role = models.Role(role)
	account.Entitlement.Kind = models.Kind(kind)
	account.Entitlement.Status = models.Status(status)
	if parentID.Valid {
		parent := id.AccountID(parentID.UUID)
		account.ParentAccountID = &parent
	}
	if trialEnd.Valid {
		t := trialEnd.Time
		account.Entitlement.TrialEndsAt = &t
	}
	if pkgEnd.Valid {
		t := pkgEnd.Time
		account.Entitlement.PackageEndsAt = &t
	}
	return &account, nil
}

var _ ports.AccountStore = (*PostgresStore)(nil)
