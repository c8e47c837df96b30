// Package notification requests and delivers account notifications. The
// usage engine requests them through a Sender; delivery happens out of band.
package notification

import (
	"context"
	"time"

	id "fraudintel/pkg/domain"
)

// Template names a notification layout.
type Template string

const (
	TemplateLowQuotaIndividual Template = "low_quota_individual"
	TemplateLowQuotaEnterprise Template = "low_quota_enterprise"
)

// EventRequested is the outbox event type for a requested notification.
const EventRequested = "notification.requested"

// Notification is a request to tell an account holder something.
type Notification struct {
	Template    Template          `json:"template"`
	AccountID   id.AccountID      `json:"accountId"`
	To          string            `json:"to"`
	Params      map[string]string `json:"params"`
	RequestedAt time.Time         `json:"requestedAt"`
}

// Sender hands a notification to the delivery pipeline.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}
