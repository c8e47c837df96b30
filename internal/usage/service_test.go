package usage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fraudintel/internal/account/models"
	accountstore "fraudintel/internal/account/store"
	"fraudintel/internal/entitlement"
	"fraudintel/internal/notification"
	"fraudintel/internal/notification/mocks"
	"fraudintel/internal/search/metrics"
	id "fraudintel/pkg/domain"
	txcontext "fraudintel/pkg/platform/tx"
)

// =============================================================================
// Usage Accounting Test Suite
// =============================================================================
// Justification for unit tests: usage counters and the low-quota claim are
// shared mutable state. These tests pin exact counting under concurrency,
// the at-most-once notice, and that no accounting failure escapes Record.

type UsageSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *accountstore.InMemoryAccountStore
	sender  *mocks.MockSender
	metrics *metrics.Metrics
	service *Service
}

func TestUsageSuite(t *testing.T) {
	suite.Run(t, new(UsageSuite))
}

func (s *UsageSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = accountstore.NewInMemoryAccountStore()
	s.sender = mocks.NewMockSender(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())

	var err error
	s.service, err = New(s.store, s.sender, txcontext.NoopRunner{}, WithMetrics(s.metrics))
	s.Require().NoError(err)
}

func (s *UsageSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *UsageSuite) save(a *models.Account) *models.Account {
	a.ID = id.NewAccountID()
	a.Entitlement.Status = models.StatusActive
	s.Require().NoError(s.store.Save(context.Background(), a))
	return a
}

func (s *UsageSuite) reload(accountID id.AccountID) *models.Account {
	a, err := s.store.FindByID(context.Background(), accountID)
	s.Require().NoError(err)
	return a
}

func individual(a *models.Account) *entitlement.Resolution {
	return &entitlement.Resolution{
		Account:     a,
		Owner:       a,
		IsUnlimited: a.Entitlement.IsUnlimited(),
	}
}

func pooled(member, parent *models.Account) *entitlement.Resolution {
	return &entitlement.Resolution{
		Account:     member,
		Owner:       parent,
		Pooled:      true,
		IsUnlimited: parent.Entitlement.IsUnlimited(),
	}
}

// =============================================================================
// Constructor Tests (Invariant Enforcement)
// =============================================================================

func (s *UsageSuite) TestNew() {
	_, err := New(nil, s.sender, txcontext.NoopRunner{})
	s.Error(err)
	_, err = New(s.store, nil, txcontext.NoopRunner{})
	s.Error(err)
	_, err = New(s.store, s.sender, nil)
	s.Error(err)
}

// =============================================================================
// Counting Tests
// =============================================================================

func (s *UsageSuite) TestRecord_Unlimited() {
	a := s.save(&models.Account{Role: models.RoleIndividual, Entitlement: models.Entitlement{
		Kind: models.KindPaid, Used: 42, Limit: models.UnlimitedSearches,
	}})

	out := s.service.Record(context.Background(), individual(a))

	s.Equal(Outcome{Used: 42, Limit: models.UnlimitedSearches}, out)
	s.Equal(42, s.reload(a.ID).Entitlement.Used, "unlimited accounts are not charged")
}

func (s *UsageSuite) TestRecord_Individual() {
	a := s.save(&models.Account{Role: models.RoleIndividual, Entitlement: models.Entitlement{
		Kind: models.KindPaid, Used: 3, Limit: 100,
	}})

	out := s.service.Record(context.Background(), individual(a))

	s.Equal(Outcome{Used: 4, Limit: 100}, out)
	s.Equal(4, s.reload(a.ID).Entitlement.Used)
}

func (s *UsageSuite) TestRecord_PooledChargesParentAndMember() {
	parent := s.save(&models.Account{Role: models.RoleEnterpriseAdmin, Entitlement: models.Entitlement{
		Kind: models.KindEnterprisePool, Used: 10, Limit: 1000,
	}})
	member := s.save(&models.Account{Role: models.RoleEnterpriseMember, ParentAccountID: &parent.ID, Entitlement: models.Entitlement{
		Kind: models.KindEnterprisePool, Used: 2,
	}})

	out := s.service.Record(context.Background(), pooled(member, parent))

	s.Equal(Outcome{Used: 11, Limit: 1000}, out)
	s.Equal(11, s.reload(parent.ID).Entitlement.Used)
	s.Equal(3, s.reload(member.ID).Entitlement.Used)
}

func (s *UsageSuite) TestRecord_GuardRejection() {
	a := s.save(&models.Account{Role: models.RoleIndividual, Entitlement: models.Entitlement{
		Kind: models.KindPaid, Used: 10, Limit: 10,
	}})
	stale := a.Clone()
	stale.Entitlement.Used = 9

	out := s.service.Record(context.Background(), individual(stale))

	s.Equal(Outcome{Used: 9, Limit: 10}, out, "served result stands with the observed counter")
	s.Equal(10, s.reload(a.ID).Entitlement.Used)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.UsageGuardRejections))
}

func (s *UsageSuite) TestRecord_ConcurrentMembersCountExactly() {
	const members = 50
	parent := s.save(&models.Account{Role: models.RoleEnterpriseAdmin, Email: "admin@corp.example", Entitlement: models.Entitlement{
		Kind: models.KindEnterprisePool, Used: 0, Limit: 40,
	}})
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	var wg sync.WaitGroup
	for range members {
		member := s.save(&models.Account{Role: models.RoleEnterpriseMember, ParentAccountID: &parent.ID, Entitlement: models.Entitlement{
			Kind: models.KindEnterprisePool,
		}})
		wg.Go(func() {
			s.service.Record(context.Background(), pooled(member, parent))
		})
	}
	wg.Wait()

	s.Equal(40, s.reload(parent.ID).Entitlement.Used, "counter never passes the limit")
	s.Equal(10.0, testutil.ToFloat64(s.metrics.UsageGuardRejections))
}

// =============================================================================
// Low-Quota Notice Tests
// =============================================================================

func (s *UsageSuite) TestLowQuota_BelowThreshold() {
	a := s.save(&models.Account{Role: models.RoleIndividual, Entitlement: models.Entitlement{
		Kind: models.KindPaid, Used: 7, Limit: 10,
	}})

	s.service.Record(context.Background(), individual(a))

	s.False(s.reload(a.ID).Entitlement.LowQuotaNotified)
}

func (s *UsageSuite) TestLowQuota_IndividualOnce() {
	a := s.save(&models.Account{Role: models.RoleIndividual, Email: "jane.doe@example.com", Entitlement: models.Entitlement{
		Kind: models.KindPaid, Used: 8, Limit: 10,
	}})

	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n notification.Notification) error {
			s.Equal(notification.TemplateLowQuotaIndividual, n.Template)
			s.Equal(a.ID, n.AccountID)
			s.Equal("jane.doe@example.com", n.To)
			s.Equal("Jane", n.Params["name"])
			s.Equal("9", n.Params["used"])
			s.Equal("10", n.Params["limit"])
			s.Equal("1", n.Params["remaining"])
			s.Equal("90", n.Params["percent"])
			return nil
		}).Times(1)

	s.service.Record(context.Background(), individual(a))
	s.service.Record(context.Background(), individual(s.reload(a.ID)))

	stored := s.reload(a.ID)
	s.Equal(10, stored.Entitlement.Used)
	s.True(stored.Entitlement.LowQuotaNotified)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.NotificationsSent.WithLabelValues(string(notification.TemplateLowQuotaIndividual))))
}

func (s *UsageSuite) TestLowQuota_EnterpriseTemplate() {
	parent := s.save(&models.Account{Role: models.RoleEnterpriseAdmin, Name: "Acme Admin", Email: "ops@acme.example", Entitlement: models.Entitlement{
		Kind: models.KindEnterprisePool, Used: 89, Limit: 100,
	}})
	member := s.save(&models.Account{Role: models.RoleEnterpriseMember, ParentAccountID: &parent.ID, Email: "member@acme.example"})

	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n notification.Notification) error {
			s.Equal(notification.TemplateLowQuotaEnterprise, n.Template)
			s.Equal(parent.ID, n.AccountID, "the pool owner is notified")
			s.Equal("Acme Admin", n.Params["name"])
			return nil
		}).Times(1)

	s.service.Record(context.Background(), pooled(member, parent))
}

func (s *UsageSuite) TestLowQuota_AlreadyNotified() {
	a := s.save(&models.Account{Role: models.RoleIndividual, Entitlement: models.Entitlement{
		Kind: models.KindPaid, Used: 95, Limit: 100, LowQuotaNotified: true,
	}})

	s.service.Record(context.Background(), individual(a))

	s.Equal(96, s.reload(a.ID).Entitlement.Used)
}

func (s *UsageSuite) TestLowQuota_SenderFailureIsSwallowed() {
	a := s.save(&models.Account{Role: models.RoleIndividual, Entitlement: models.Entitlement{
		Kind: models.KindPaid, Used: 9, Limit: 10,
	}})
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("outbox unavailable"))

	out := s.service.Record(context.Background(), individual(a))

	s.Equal(Outcome{Used: 10, Limit: 10}, out)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.NotificationFailures))
}

func (s *UsageSuite) TestLowQuota_CustomRatio() {
	svc, err := New(s.store, s.sender, txcontext.NoopRunner{}, WithLowQuotaRatio(0.5))
	s.Require().NoError(err)
	a := s.save(&models.Account{Role: models.RoleIndividual, Entitlement: models.Entitlement{
		Kind: models.KindPaid, Used: 4, Limit: 10,
	}})
	s.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	svc.Record(context.Background(), individual(a))
}

func (s *UsageSuite) TestRecord_DetachedFromCancellation() {
	a := s.save(&models.Account{Role: models.RoleIndividual, Entitlement: models.Entitlement{
		Kind: models.KindPaid, Used: 0, Limit: 10,
	}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := s.service.Record(ctx, individual(a))

	s.Equal(1, out.Used)
}
