// Package ports defines the account store contract shared by the entitlement
// resolver and the usage engine.
package ports

import (
	"context"

	"fraudintel/internal/account/models"
	id "fraudintel/pkg/domain"
)

// AccountStore reads accounts and applies the few atomic writes the search
// core is allowed to make. Implementations return sentinel.ErrNotFound for
// unknown accounts.
type AccountStore interface {
	// FindByID loads an account with its embedded entitlement.
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)

	// MarkExpired sets the entitlement status to expired if it is not already.
	MarkExpired(ctx context.Context, accountID id.AccountID) error

	// IncrementUsage adds one search to the account's counter in a single
	// guarded operation. It returns sentinel.ErrConflict when the limit guard
	// rejects the increment.
	IncrementUsage(ctx context.Context, accountID id.AccountID) (models.Usage, error)

	// IncrementMemberUsage adds one search to an enterprise member's
	// informational counter. No limit guard applies.
	IncrementMemberUsage(ctx context.Context, accountID id.AccountID) error

	// ClaimLowQuotaNotice flips lowQuotaNotified from false to true.
	// Exactly one concurrent caller observes claimed=true.
	ClaimLowQuotaNotice(ctx context.Context, accountID id.AccountID) (claimed bool, err error)
}
