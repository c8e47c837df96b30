package decoy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fraudintel/internal/search/models"
	id "fraudintel/pkg/domain"
	"fraudintel/pkg/platform/sentinel"
)

// =============================================================================
// Decoy Cache Test Suite
// =============================================================================
// Justification for unit tests: the decoy dataset is loaded once per process
// and shared without locks. These tests pin the load-once, retry-on-failure
// and fallback behavior.

type CacheSuite struct {
	suite.Suite
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

type countingSource struct {
	calls   atomic.Int32
	delay   time.Duration
	records []models.Record
	err     error
}

func (s *countingSource) Load(_ context.Context) ([]models.Record, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.Record(nil), s.records...), nil
}

func sampleRecords() []models.Record {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return []models.Record{
		{ID: id.NewRecordID(), Title: "older", CreatedAt: base},
		{ID: id.NewRecordID(), Title: "newer", CreatedAt: base.Add(time.Hour)},
	}
}

func (s *CacheSuite) TestNewCache_RequiresSource() {
	_, err := NewCache(nil)
	s.Error(err)
}

func (s *CacheSuite) TestLoad_Once() {
	src := &countingSource{records: sampleRecords(), delay: 20 * time.Millisecond}
	cache, err := NewCache(src)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			recs, err := cache.Load(context.Background())
			s.NoError(err)
			s.Len(recs, 2)
		})
	}
	wg.Wait()

	recs, err := cache.Load(context.Background())
	s.Require().NoError(err)
	s.Equal("newer", recs[0].Title, "cached dataset is ordered newest first")
	s.Equal(int32(1), src.calls.Load())
}

func (s *CacheSuite) TestLoad_FailureIsRetried() {
	src := &countingSource{err: errors.New("redis down")}
	cache, err := NewCache(src)
	s.Require().NoError(err)

	_, err = cache.Load(context.Background())
	s.Require().Error(err)

	src.err = nil
	src.records = sampleRecords()
	recs, err := cache.Load(context.Background())
	s.Require().NoError(err)
	s.Len(recs, 2)
	s.Equal(int32(2), src.calls.Load())
}

func (s *CacheSuite) TestInvalidate_Reloads() {
	src := &countingSource{records: sampleRecords()}
	cache, err := NewCache(src)
	s.Require().NoError(err)

	_, err = cache.Load(context.Background())
	s.Require().NoError(err)
	cache.Invalidate()
	src.records = src.records[:1]

	recs, err := cache.Load(context.Background())
	s.Require().NoError(err)
	s.Len(recs, 1)
	s.Equal(int32(2), src.calls.Load())
}

func (s *CacheSuite) TestLoad_Fallback() {
	s.Run("unseeded primary uses fallback", func() {
		primary := &countingSource{err: sentinel.ErrNotFound}
		fallback := &countingSource{records: sampleRecords()}
		cache, err := NewCache(primary, WithFallback(fallback))
		s.Require().NoError(err)

		recs, err := cache.Load(context.Background())
		s.Require().NoError(err)
		s.Len(recs, 2)
		s.Equal(int32(1), fallback.calls.Load())
	})

	s.Run("both failing returns error", func() {
		cache, err := NewCache(
			&countingSource{err: errors.New("timeout")},
			WithFallback(&countingSource{err: errors.New("corrupt")}),
		)
		s.Require().NoError(err)

		_, err = cache.Load(context.Background())
		s.Error(err)
	})
}

// =============================================================================
// Embedded Dataset Tests
// =============================================================================

func (s *CacheSuite) TestEmbeddedDataset() {
	recs, err := EmbeddedSource{}.Load(context.Background())
	s.Require().NoError(err)
	s.Require().NotEmpty(recs)

	seen := make(map[id.RecordID]bool)
	for _, r := range recs {
		s.False(r.ID.IsNil(), "record %q has no id", r.Title)
		s.False(seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
		s.NotEmpty(r.Title)
		s.True(r.Severity.IsValid(), "record %q severity %q", r.Title, r.Severity)
		s.False(r.CreatedAt.IsZero(), "record %q has no timestamp", r.Title)
	}
}

func (s *CacheSuite) TestParseYAML_Invalid() {
	_, err := ParseYAML([]byte("records: [unterminated"))
	s.Error(err)
}
