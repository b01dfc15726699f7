//go:build integration

package cache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vetcore/internal/catalog"
	"vetcore/internal/catalog/cache"
	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/sentinel"
	"vetcore/pkg/testutil/containers"
)

// countingCatalog counts upstream reads so tests can tell hits from misses.
type countingCatalog struct {
	inner catalog.Catalog
	reads atomic.Int64
}

func (c *countingCatalog) GetProtocol(ctx context.Context, orgID id.OrgID, protocolID id.ProtocolID) (*catalog.Protocol, error) {
	c.reads.Add(1)
	return c.inner.GetProtocol(ctx, orgID, protocolID)
}

func (c *countingCatalog) GetEntry(ctx context.Context, orgID id.OrgID, entryID id.EntryID) (*catalog.ProtocolEntry, error) {
	c.reads.Add(1)
	return c.inner.GetEntry(ctx, orgID, entryID)
}

type CacheSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	upstream *countingCatalog
	cache    *cache.Cache

	orgID      id.OrgID
	protocolID id.ProtocolID
	entryID    id.EntryID
}

func TestCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *CacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))

	s.orgID = id.OrgID(uuid.New())
	s.protocolID = id.ProtocolID(uuid.New())
	s.entryID = id.EntryID(uuid.New())

	mem := catalog.NewInMemory()
	mem.Seed(catalog.Protocol{
		ID:        s.protocolID,
		OrgID:     s.orgID,
		SpeciesID: id.SpeciesID(uuid.New()),
		Name:      "Canine Core",
		Entries: []catalog.ProtocolEntry{{
			ID:             s.entryID,
			ProtocolID:     s.protocolID,
			Name:           "Rabies",
			ApplicationAge: 3,
			ValidityMonths: 12,
			Mandatory:      true,
		}},
	})

	s.upstream = &countingCatalog{inner: mem}
	s.cache = cache.New(s.upstream, s.redis.Client)
}

func (s *CacheSuite) TestGetProtocol() {
	ctx := context.Background()

	s.Run("serves repeat reads from the cache", func() {
		first, err := s.cache.GetProtocol(ctx, s.orgID, s.protocolID)
		s.Require().NoError(err)
		s.Equal("Canine Core", first.Name)
		s.EqualValues(1, s.upstream.reads.Load())

		second, err := s.cache.GetProtocol(ctx, s.orgID, s.protocolID)
		s.Require().NoError(err)
		s.Equal(first, second)
		s.EqualValues(1, s.upstream.reads.Load())
	})

	s.Run("does not cache misses", func() {
		missing := id.ProtocolID(uuid.New())
		before := s.upstream.reads.Load()

		_, err := s.cache.GetProtocol(ctx, s.orgID, missing)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.cache.GetProtocol(ctx, s.orgID, missing)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		s.EqualValues(before+2, s.upstream.reads.Load())
	})

	s.Run("expires entries after the TTL", func() {
		s.Require().NoError(s.redis.FlushAll(ctx))
		short := cache.New(s.upstream, s.redis.Client, cache.WithTTL(time.Second))

		_, err := short.GetProtocol(ctx, s.orgID, s.protocolID)
		s.Require().NoError(err)
		before := s.upstream.reads.Load()

		time.Sleep(1500 * time.Millisecond)

		_, err = short.GetProtocol(ctx, s.orgID, s.protocolID)
		s.Require().NoError(err)
		s.EqualValues(before+1, s.upstream.reads.Load())
	})
}

func (s *CacheSuite) TestGetEntry() {
	ctx := context.Background()

	s.Run("serves repeat reads from the cache", func() {
		entry, err := s.cache.GetEntry(ctx, s.orgID, s.entryID)
		s.Require().NoError(err)
		s.Equal("Rabies", entry.Name)
		s.EqualValues(1, s.upstream.reads.Load())

		_, err = s.cache.GetEntry(ctx, s.orgID, s.entryID)
		s.Require().NoError(err)
		s.EqualValues(1, s.upstream.reads.Load())
	})
}
