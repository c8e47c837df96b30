package entitlement

import (
	"fraudintel/internal/account/models"
	dErrors "fraudintel/pkg/domain-errors"
)

// Reason distinguishes the 403 outcomes for clients.
type Reason string

const (
	ReasonPackageExpired Reason = "package_expired"
	ReasonTrialExpired   Reason = "trial_expired"
	ReasonLimitReached   Reason = "limit_reached"
	ReasonNoCredits      Reason = "no_credits"
)

func reject(reason Reason, msg string) error {
	return dErrors.New(dErrors.CodeForbidden, msg).WithReason(string(reason))
}

func packageExpired(kind models.Kind) error {
	if kind == models.KindPayPerUse {
		return reject(ReasonPackageExpired, "your search credits have expired")
	}
	return reject(ReasonPackageExpired, "your plan has expired")
}

func trialExpired() error {
	return reject(ReasonTrialExpired, "your free trial has ended")
}

func quotaExhausted(owner *models.Account, pooled bool) error {
	switch {
	case owner.Entitlement.Kind == models.KindPayPerUse:
		return reject(ReasonNoCredits, "no search credits remaining; purchase more credits to continue")
	case pooled:
		return reject(ReasonLimitReached, "your organization has used all searches in its plan")
	default:
		return reject(ReasonLimitReached, "search limit reached for your plan")
	}
}

// ReasonOf extracts the rejection reason from an error returned by Resolve.
func ReasonOf(err error) (Reason, bool) {
	de, ok := dErrors.As(err)
	if !ok || de.Code != dErrors.CodeForbidden || de.Reason == "" {
		return "", false
	}
	return Reason(de.Reason), true
}
