// Package usage charges granted searches to the effective entitlement owner
// and sends the one-time low-quota notice.
package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"fraudintel/internal/account/models"
	"fraudintel/internal/entitlement"
	"fraudintel/internal/notification"
	"fraudintel/internal/search/metrics"
	id "fraudintel/pkg/domain"
	"fraudintel/pkg/email"
	"fraudintel/pkg/platform/sentinel"
	"fraudintel/pkg/requestcontext"
)

// DefaultLowQuotaRatio is the used/limit ratio that triggers the notice.
const DefaultLowQuotaRatio = 0.9

// Store is the subset of the account store that accounting writes through.
type Store interface {
	IncrementUsage(ctx context.Context, accountID id.AccountID) (models.Usage, error)
	IncrementMemberUsage(ctx context.Context, accountID id.AccountID) error
	ClaimLowQuotaNotice(ctx context.Context, accountID id.AccountID) (bool, error)
}

// TxRunner scopes the notice claim and the notification request so a failed
// request releases the claim.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Outcome is the owner's counter after accounting.
type Outcome struct {
	Used  int
	Limit int
}

type Service struct {
	store         Store
	sender        notification.Sender
	tx            TxRunner
	lowQuotaRatio float64
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLowQuotaRatio overrides the notice threshold. Values outside (0, 1]
// are ignored.
func WithLowQuotaRatio(ratio float64) Option {
	return func(s *Service) {
		if ratio > 0 && ratio <= 1 {
			s.lowQuotaRatio = ratio
		}
	}
}

func New(store Store, sender notification.Sender, tx TxRunner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("notification sender is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	s := &Service{
		store:         store,
		sender:        sender,
		tx:            tx,
		lowQuotaRatio: DefaultLowQuotaRatio,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record charges one search to the resolution's effective owner. Call it only
// after a result was produced. It never fails the request: every error is
// logged and counted, and the returned Outcome falls back to the counter the
// resolver observed. Writes run on a context detached from the request.
func (s *Service) Record(ctx context.Context, res *entitlement.Resolution) Outcome {
	ctx = context.WithoutCancel(ctx)
	owner := res.Owner
	observed := Outcome{Used: owner.Entitlement.Used, Limit: owner.Entitlement.Limit}

	if res.IsUnlimited {
		return Outcome{Used: owner.Entitlement.Used, Limit: models.UnlimitedSearches}
	}

	usage, err := s.store.IncrementUsage(ctx, owner.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.logger.WarnContext(ctx, "usage increment refused at limit",
				"event", "usage_guard_rejected",
				"account_id", res.Account.ID,
				"owner_id", owner.ID,
				"request_id", requestcontext.RequestID(ctx),
			)
			s.guardRejected()
		} else {
			s.logger.ErrorContext(ctx, "failed to record usage",
				"account_id", res.Account.ID,
				"owner_id", owner.ID,
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			s.usageFailure("increment")
		}
		return observed
	}

	if res.Pooled {
		if err := s.store.IncrementMemberUsage(ctx, res.Account.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to record member usage",
				"account_id", res.Account.ID,
				"owner_id", owner.ID,
				"error", err,
			)
			s.usageFailure("member_increment")
		}
	}

	if !usage.LowQuotaNotified && usage.Ratio() >= s.lowQuotaRatio {
		s.notifyLowQuota(ctx, owner, usage)
	}

	return Outcome{Used: usage.Used, Limit: usage.Limit}
}

// notifyLowQuota claims the owner's notice and requests the notification in
// one transaction. Losing the claim is the normal outcome for every request
// but the first to cross the threshold.
func (s *Service) notifyLowQuota(ctx context.Context, owner *models.Account, usage models.Usage) {
	n := lowQuotaNotification(owner, usage, requestcontext.Now(ctx))

	var claimed bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		claimed, err = s.store.ClaimLowQuotaNotice(ctx, owner.ID)
		if err != nil || !claimed {
			return err
		}
		return s.sender.Send(ctx, n)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to send low quota notification",
			"owner_id", owner.ID,
			"template", n.Template,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.IncrementNotificationFailure()
		}
		return
	}
	if !claimed {
		return
	}
	s.logger.InfoContext(ctx, "low quota notification requested",
		"event", "low_quota_notified",
		"owner_id", owner.ID,
		"template", n.Template,
		"used", usage.Used,
		"limit", usage.Limit,
	)
	if s.metrics != nil {
		s.metrics.IncrementNotification(string(n.Template))
	}
}

func lowQuotaNotification(owner *models.Account, usage models.Usage, now time.Time) notification.Notification {
	template := notification.TemplateLowQuotaIndividual
	if owner.IsEnterprisePool() {
		template = notification.TemplateLowQuotaEnterprise
	}
	remaining := max(usage.Limit-usage.Used, 0)
	return notification.Notification{
		Template:  template,
		AccountID: owner.ID,
		To:        owner.Email,
		Params: map[string]string{
			"name":      email.DisplayName(owner.Name, owner.Email),
			"email":     owner.Email,
			"used":      strconv.Itoa(usage.Used),
			"limit":     strconv.Itoa(usage.Limit),
			"remaining": strconv.Itoa(remaining),
			"percent":   strconv.Itoa(int(usage.Ratio() * 100)),
		},
		RequestedAt: now,
	}
}

func (s *Service) guardRejected() {
	if s.metrics != nil {
		s.metrics.IncrementGuardRejection()
	}
}

func (s *Service) usageFailure(step string) {
	if s.metrics != nil {
		s.metrics.IncrementUsageFailure(step)
	}
}
