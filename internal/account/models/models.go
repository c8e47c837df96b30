package models

import (
	"time"

	id "fraudintel/pkg/domain"
)

// Role determines whose entitlement governs a request.
type Role string

const (
	RoleIndividual       Role = "individual"
	RoleEnterpriseAdmin  Role = "enterprise_admin"
	RoleEnterpriseMember Role = "enterprise_member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleIndividual, RoleEnterpriseAdmin, RoleEnterpriseMember:
		return true
	}
	return false
}

// Kind is the commercial shape of an entitlement.
type Kind string

const (
	KindTrial          Kind = "trial"
	KindPaid           Kind = "paid"
	KindEnterprisePool Kind = "enterprise_pool"
	KindPayPerUse      Kind = "pay_per_use"
)

func (k Kind) Valid() bool {
	switch k {
	case KindTrial, KindPaid, KindEnterprisePool, KindPayPerUse:
		return true
	}
	return false
}

// Status is the lifecycle state of an entitlement.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// UnlimitedSearches marks an entitlement without a usage cap.
const UnlimitedSearches = -1

// Entitlement is embedded in every account. Payment and provisioning
// workflows write it; the search core only reads it, increments Used, marks
// it expired and claims the low-quota notice.
type Entitlement struct {
	Kind                       Kind       `json:"kind" yaml:"kind"`
	Status                     Status     `json:"status" yaml:"status"`
	Used                       int        `json:"used" yaml:"used"`
	Limit                      int        `json:"limit" yaml:"limit"`
	TrialEndsAt                *time.Time `json:"trialEndsAt,omitempty" yaml:"trial_ends_at"`
	PackageEndsAt              *time.Time `json:"packageEndsAt,omitempty" yaml:"package_ends_at"`
	CanAccessAuthoritativeData bool       `json:"canAccessAuthoritativeData" yaml:"can_access_authoritative_data"`
	LowQuotaNotified           bool       `json:"lowQuotaNotified" yaml:"low_quota_notified"`
}

// IsUnlimited reports whether the entitlement has no usage cap.
func (e Entitlement) IsUnlimited() bool {
	return e.Limit == UnlimitedSearches
}

// TrialExpired is true for trial entitlements whose trial window has passed.
func (e Entitlement) TrialExpired(now time.Time) bool {
	return e.Kind == KindTrial && e.TrialEndsAt != nil && now.After(*e.TrialEndsAt)
}

// PackageExpired is true for non-trial entitlements past their package end.
func (e Entitlement) PackageExpired(now time.Time) bool {
	return e.Kind != KindTrial && e.PackageEndsAt != nil && now.After(*e.PackageEndsAt)
}

// Exhausted reports whether a capped entitlement has no searches left.
func (e Entitlement) Exhausted() bool {
	return !e.IsUnlimited() && e.Used >= e.Limit
}

// Account is a principal together with its entitlement.
type Account struct {
	ID              id.AccountID  `json:"id" yaml:"id"`
	Email           string        `json:"email" yaml:"email"`
	Name            string        `json:"name" yaml:"name"`
	Role            Role          `json:"role" yaml:"role"`
	ParentAccountID *id.AccountID `json:"parentAccountId,omitempty" yaml:"parent_account_id"`
	Entitlement     Entitlement   `json:"entitlement" yaml:"entitlement"`
	CreatedAt       time.Time     `json:"createdAt" yaml:"created_at"`
	UpdatedAt       time.Time     `json:"updatedAt" yaml:"updated_at"`
}

// IsEnterpriseMember reports whether the account may draw from a parent pool.
func (a *Account) IsEnterpriseMember() bool {
	return a.Role == RoleEnterpriseMember && a.ParentAccountID != nil && !a.ParentAccountID.IsNil()
}

// IsEnterprisePool reports whether the account's entitlement is a shared
// enterprise pool rather than an individual plan.
func (a *Account) IsEnterprisePool() bool {
	return a.Entitlement.Kind == KindEnterprisePool || a.Role == RoleEnterpriseAdmin
}

// Clone returns a deep copy so callers cannot mutate store-owned state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	if a.ParentAccountID != nil {
		parent := *a.ParentAccountID
		cp.ParentAccountID = &parent
	}
	if a.Entitlement.TrialEndsAt != nil {
		t := *a.Entitlement.TrialEndsAt
		cp.Entitlement.TrialEndsAt = &t
	}
	if a.Entitlement.PackageEndsAt != nil {
		t := *a.Entitlement.PackageEndsAt
		cp.Entitlement.PackageEndsAt = &t
	}
	return &cp
}

// Usage is the post-increment view of an owner's counter.
type Usage struct {
	Used             int
	Limit            int
	LowQuotaNotified bool
}

// Ratio returns Used/Limit, or 0 for unlimited or zero-limit entitlements.
func (u Usage) Ratio() float64 {
	if u.Limit <= 0 {
		return 0
	}
	return float64(u.Used) / float64(u.Limit)
}
