//go:build integration

package decoy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"fraudintel/internal/search/decoy"
	"fraudintel/pkg/platform/sentinel"
	"fraudintel/pkg/testutil/containers"
)

// =============================================================================
// Redis Decoy Source Integration Suite
// =============================================================================
// Justification: seeding and loading go through real Redis serialization;
// the cache must fall back to the embedded copy when the key is absent.

type RedisSourceSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisSourceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSourceSuite))
}

func (s *RedisSourceSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisSourceSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisSourceSuite) TestLoad_Unseeded() {
	src := decoy.NewRedisSource(s.redis.Client, "test:decoy")

	_, err := src.Load(context.Background())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSourceSuite) TestSeedAndLoad() {
	ctx := context.Background()
	embedded, err := decoy.EmbeddedSource{}.Load(ctx)
	s.Require().NoError(err)

	src := decoy.NewRedisSource(s.redis.Client, "test:decoy")
	s.Require().NoError(src.Seed(ctx, embedded))

	loaded, err := src.Load(ctx)
	s.Require().NoError(err)
	s.Require().Len(loaded, len(embedded))
	for i := range embedded {
		s.Equal(embedded[i].ID, loaded[i].ID)
		s.Equal(embedded[i].Tags, loaded[i].Tags)
		s.True(embedded[i].CreatedAt.Equal(loaded[i].CreatedAt))
	}
}

func (s *RedisSourceSuite) TestCache_FallsBackToEmbedded() {
	cache, err := decoy.NewCache(
		decoy.NewRedisSource(s.redis.Client, "test:missing"),
		decoy.WithFallback(decoy.EmbeddedSource{}),
	)
	s.Require().NoError(err)

	recs, err := cache.Load(context.Background())
	s.Require().NoError(err)
	s.NotEmpty(recs)
}
