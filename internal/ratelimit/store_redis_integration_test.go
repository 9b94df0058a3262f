//go:build integration

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"declara/internal/ratelimit"
	"declara/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *ratelimit.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = ratelimit.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestAllowsUpToLimit() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := s.store.Allow(ctx, "actor-1", 3, time.Minute)
		s.Require().NoError(err)
		s.True(res.Allowed)
	}

	res, err := s.store.Allow(ctx, "actor-1", 3, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
}

func (s *RedisStoreSuite) TestKeysAreIndependent() {
	ctx := context.Background()

	res, err := s.store.Allow(ctx, "actor-1", 1, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)

	res, err = s.store.Allow(ctx, "actor-2", 1, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *RedisStoreSuite) TestWindowSlides() {
	ctx := context.Background()

	res, err := s.store.Allow(ctx, "actor-1", 1, 100*time.Millisecond)
	s.Require().NoError(err)
	s.Require().True(res.Allowed)

	res, err = s.store.Allow(ctx, "actor-1", 1, 100*time.Millisecond)
	s.Require().NoError(err)
	s.Require().False(res.Allowed)

	time.Sleep(150 * time.Millisecond)

	res, err = s.store.Allow(ctx, "actor-1", 1, 100*time.Millisecond)
	s.Require().NoError(err)
	s.True(res.Allowed)
}
