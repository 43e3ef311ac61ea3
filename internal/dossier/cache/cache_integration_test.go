//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dossier/internal/dossier/models"
	"dossier/pkg/domain"
	"dossier/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = NewRedisCache(s.redis.Client, time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.Flush(context.Background()))
}

func (s *RedisCacheSuite) TestMissThenHit() {
	ctx := context.Background()
	cpf := domain.CPF("11144477735")

	_, ok, err := s.cache.Get(ctx, cpf)
	s.Require().NoError(err)
	s.False(ok)

	rec := &models.CompositeRecord{
		Basic:    models.Basic{Name: "MARIA SILVA", CPF: string(cpf)},
		Contacts: models.Contacts{Emails: []string{"maria@x.com"}, Phones: []string{"11999990000"}},
	}
	s.Require().NoError(s.cache.Set(ctx, cpf, rec))

	got, ok, err := s.cache.Get(ctx, cpf)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(rec.Basic.Name, got.Basic.Name)
	s.Equal(rec.Contacts, got.Contacts)

	ttl, err := s.redis.Client.TTL(ctx, Key(cpf)).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisCacheSuite) TestUndecodableEntryIsDropped() {
	ctx := context.Background()
	cpf := domain.CPF("52998224725")
	s.Require().NoError(s.redis.Client.Set(ctx, Key(cpf), "{not json", time.Minute).Err())

	_, ok, err := s.cache.Get(ctx, cpf)
	s.Require().Error(err)
	s.False(ok)

	n, err := s.redis.Client.Exists(ctx, Key(cpf)).Result()
	s.Require().NoError(err)
	s.Zero(n)

	_, ok, err = s.cache.Get(ctx, cpf)
	s.Require().NoError(err)
	s.False(ok)
}
