// Package service orchestrates a single search: entitlement first, then the
// query, the source, usage accounting and the audit entry, in that order.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fraudintel/internal/entitlement"
	"fraudintel/internal/search/metrics"
	"fraudintel/internal/search/models"
	"fraudintel/internal/search/query"
	"fraudintel/internal/usage"
	id "fraudintel/pkg/domain"
	dErrors "fraudintel/pkg/domain-errors"
	"fraudintel/pkg/platform/audit"
	"fraudintel/pkg/requestcontext"
)

var tracer = otel.Tracer("fraudintel/search")

// Resolver admits or rejects a principal.
type Resolver interface {
	Resolve(ctx context.Context, principal id.AccountID) (*entitlement.Resolution, error)
}

// Selector produces a page from the source the caller is entitled to.
type Selector interface {
	Select(ctx context.Context, canUseAuthoritative bool, p *query.Predicate, page query.Pagination) (models.Page, models.Source, error)
}

// UsageRecorder charges a granted search.
type UsageRecorder interface {
	Record(ctx context.Context, res *entitlement.Resolution) usage.Outcome
}

// AuditPublisher accepts audit entries without blocking.
type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.SearchEntry)
}

type Service struct {
	resolver Resolver
	selector Selector
	usage    UsageRecorder
	auditor  AuditPublisher
	hasher   *audit.Hasher
	metrics  *metrics.Metrics
	logger   *slog.Logger
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

// WithHasher sets the key used to hash email and phone in audit entries.
func WithHasher(h *audit.Hasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

func New(resolver Resolver, selector Selector, usage UsageRecorder, auditor AuditPublisher, opts ...Option) (*Service, error) {
	if resolver == nil {
		return nil, fmt.Errorf("entitlement resolver is required")
	}
	if selector == nil {
		return nil, fmt.Errorf("source selector is required")
	}
	if usage == nil {
		return nil, fmt.Errorf("usage recorder is required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit publisher is required")
	}
	s := &Service{
		resolver: resolver,
		selector: selector,
		usage:    usage,
		auditor:  auditor,
		hasher:   audit.NewHasher(""),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search runs one search for principal. Rejections happen before any record
// is read, so a rejected request is never charged. Usage and audit failures
// are logged and never reach the caller.
func (s *Service) Search(ctx context.Context, principal id.AccountID, criteria models.Criteria) (*models.Response, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "search.Search")
	defer span.End()
	defer s.observe(start)

	if principal.IsNil() {
		err := dErrors.New(dErrors.CodeUnauthorized, "authentication required")
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("account_id", principal.String()))

	res, err := s.resolve(ctx, principal)
	if err != nil {
		fail(span, err)
		return nil, err
	}

	predicate := query.Build(criteria)
	page := query.NewPagination(criteria.Page, criteria.PageSize)

	result, source, err := s.selectPage(ctx, res, predicate, page)
	if err != nil {
		s.logger.ErrorContext(ctx, "search failed",
			"account_id", principal,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("source", string(source)),
		attribute.Int("total", result.Total),
	)

	outcome := s.recordUsage(ctx, res)
	s.emitAudit(ctx, res, criteria, page, source, result.Total)

	if s.metrics != nil {
		s.metrics.IncrementSearch(string(source))
	}

	items := result.Items
	if items == nil {
		items = []models.Record{}
	}
	return &models.Response{
		Source:       source,
		Items:        items,
		SearchesUsed: outcome.Used,
		SearchLimit:  outcome.Limit,
		Pagination:   page.Describe(result.Total),
	}, nil
}

func (s *Service) resolve(ctx context.Context, principal id.AccountID) (*entitlement.Resolution, error) {
	ctx, span := tracer.Start(ctx, "search.resolve")
	defer span.End()

	res, err := s.resolver.Resolve(ctx, principal)
	if err != nil {
		if reason, ok := entitlement.ReasonOf(err); ok {
			span.SetAttributes(attribute.String("rejection_reason", string(reason)))
			s.logger.InfoContext(ctx, "search rejected",
				"event", "search_rejected",
				"log_type", "audit",
				"account_id", principal,
				"reason", reason,
				"request_id", requestcontext.RequestID(ctx),
			)
			if s.metrics != nil {
				s.metrics.IncrementRejection(string(reason))
			}
		}
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("owner_id", res.Owner.ID.String()),
		attribute.Bool("pooled", res.Pooled),
		attribute.Bool("unlimited", res.IsUnlimited),
		attribute.Bool("authoritative", res.CanUseAuthoritative),
	)
	return res, nil
}

func (s *Service) selectPage(ctx context.Context, res *entitlement.Resolution, p *query.Predicate, page query.Pagination) (models.Page, models.Source, error) {
	ctx, span := tracer.Start(ctx, "search.select", trace.WithAttributes(
		attribute.Bool("keyword", p.HasKeyword()),
		attribute.Int("page", page.Page),
		attribute.Int("page_size", page.Size),
	))
	defer span.End()

	result, source, err := s.selector.Select(ctx, res.CanUseAuthoritative, p, page)
	if err != nil {
		fail(span, err)
		return models.Page{}, "", err
	}
	return result, source, nil
}

func (s *Service) recordUsage(ctx context.Context, res *entitlement.Resolution) usage.Outcome {
	ctx, span := tracer.Start(ctx, "search.record_usage")
	defer span.End()

	outcome := s.usage.Record(ctx, res)
	span.SetAttributes(
		attribute.Int("used", outcome.Used),
		attribute.Int("limit", outcome.Limit),
	)
	return outcome
}

func (s *Service) emitAudit(ctx context.Context, res *entitlement.Resolution, c models.Criteria, page query.Pagination, source models.Source, total int) {
	s.auditor.Emit(ctx, audit.SearchEntry{
		AccountID: res.Account.ID,
		OwnerID:   res.Owner.ID,
		Criteria: audit.CriteriaSnapshot{
			Keyword:   c.Keyword,
			Type:      c.Type,
			Severity:  string(c.Severity),
			EmailHash: s.hasher.Hash(c.Email),
			PhoneHash: s.hasher.Hash(c.Phone),
			MinAmount: c.MinAmount,
			MaxAmount: c.MaxAmount,
			Fuzziness: query.ClampFuzziness(c.Fuzziness),
			Page:      page.Page,
			PageSize:  page.Size,
		},
		Source:      string(source),
		ResultCount: total,
		RequestID:   requestcontext.RequestID(ctx),
		ClientIP:    requestcontext.ClientIP(ctx),
		Device:      audit.DeviceSummary(requestcontext.UserAgent(ctx)),
	})
}

func (s *Service) observe(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveSearch(start)
	}
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
}
