// Package entitlement decides whether a principal may search and whose quota
// pays for it.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fraudintel/internal/account/models"
	id "fraudintel/pkg/domain"
	dErrors "fraudintel/pkg/domain-errors"
	"fraudintel/pkg/platform/sentinel"
	"fraudintel/pkg/requestcontext"
)

// Store is the subset of the account store the resolver needs.
type Store interface {
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	MarkExpired(ctx context.Context, accountID id.AccountID) error
}

// Resolution is the outcome of an admitted request.
type Resolution struct {
	// Account is the caller.
	Account *models.Account
	// Owner is the effective entitlement owner: the caller or its parent pool.
	Owner *models.Account
	// Pooled is true when Owner is a parent account distinct from the caller.
	Pooled              bool
	IsUnlimited         bool
	CanUseAuthoritative bool
}

type Resolver struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func New(store Store, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("account store is required")
	}
	r := &Resolver{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve loads the caller, applies lazy expiry, picks the effective owner
// and either admits the request or returns a 403 rejection. It never touches
// usage counters, so a rejected request is never charged.
func (r *Resolver) Resolve(ctx context.Context, principal id.AccountID) (*Resolution, error) {
	account, err := r.load(ctx, principal)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	ent := account.Entitlement
	isTrialExpired := ent.TrialExpired(now)
	isPackageExpired := ent.PackageExpired(now)

	if isTrialExpired && ent.Status != models.StatusExpired {
		r.markExpired(ctx, account)
	}
	if isPackageExpired {
		if ent.Status != models.StatusExpired {
			r.markExpired(ctx, account)
		}
		return nil, packageExpired(ent.Kind)
	}

	owner, pooled, err := r.effectiveOwner(ctx, account)
	if err != nil {
		return nil, err
	}
	if pooled && owner.Entitlement.PackageExpired(now) {
		if owner.Entitlement.Status != models.StatusExpired {
			r.markExpired(ctx, owner)
		}
		return nil, packageExpired(owner.Entitlement.Kind)
	}

	if isTrialExpired {
		return nil, trialExpired()
	}
	if owner.Entitlement.Exhausted() {
		return nil, quotaExhausted(owner, pooled)
	}

	return &Resolution{
		Account:             account,
		Owner:               owner,
		Pooled:              pooled,
		IsUnlimited:         owner.Entitlement.IsUnlimited(),
		CanUseAuthoritative: ent.CanAccessAuthoritativeData && !isTrialExpired,
	}, nil
}

func (r *Resolver) load(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	account, err := r.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

// effectiveOwner returns the parent pool for enterprise members whose parent
// resolves, otherwise the caller. A dangling parent link falls back to the
// caller's own entitlement.
func (r *Resolver) effectiveOwner(ctx context.Context, account *models.Account) (*models.Account, bool, error) {
	if !account.IsEnterpriseMember() {
		return account, false, nil
	}
	parent, err := r.store.FindByID(ctx, *account.ParentAccountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			r.logger.WarnContext(ctx, "enterprise parent not found, using member entitlement",
				"account_id", account.ID,
				"parent_account_id", *account.ParentAccountID,
				"request_id", requestcontext.RequestID(ctx),
			)
			return account, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load parent account")
	}
	return parent, true, nil
}

// markExpired persists the lazy status transition. Failure only delays the
// transition to a later request, so it is logged and ignored.
func (r *Resolver) markExpired(ctx context.Context, account *models.Account) {
	if err := r.store.MarkExpired(ctx, account.ID); err != nil {
		r.logger.WarnContext(ctx, "failed to persist entitlement expiry",
			"account_id", account.ID,
			"kind", account.Entitlement.Kind,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return
	}
	r.logger.InfoContext(ctx, "entitlement expired",
		"account_id", account.ID,
		"kind", account.Entitlement.Kind,
		"request_id", requestcontext.RequestID(ctx),
	)
}
