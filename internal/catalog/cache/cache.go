// Package cache decorates a catalog.Catalog with a redis read-through
// cache. Protocols change rarely but are read on every assignment, so a
// short TTL takes the catalog tables off the hot path. Concurrent misses
// for the same key collapse into one upstream read via singleflight.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"vetcore/internal/catalog"
	id "vetcore/pkg/domain"
)

const defaultTTL = 5 * time.Minute

const (
	protocolKeyPrefix = "catalog:protocol:"
	entryKeyPrefix    = "catalog:entry:"
)

type Cache struct {
	inner  catalog.Catalog
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

type Option func(*Cache)

// WithTTL overrides the default cache TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// New wraps inner with a redis cache. A nil client disables caching and
// every call passes straight through, so wiring stays unconditional.
func New(inner catalog.Catalog, client *redis.Client, opts ...Option) *Cache {
	c := &Cache{inner: inner, client: client, ttl: defaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) GetProtocol(ctx context.Context, orgID id.OrgID, protocolID id.ProtocolID) (*catalog.Protocol, error) {
	if c.client == nil {
		return c.inner.GetProtocol(ctx, orgID, protocolID)
	}

	key := protocolKeyPrefix + orgID.String() + ":" + protocolID.String()
	if p, ok := getCached[catalog.Protocol](ctx, c.client, key); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		p, err := c.inner.GetProtocol(ctx, orgID, protocolID)
		if err != nil {
			return nil, err
		}
		c.setCached(ctx, key, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Protocol), nil
}

func (c *Cache) GetEntry(ctx context.Context, orgID id.OrgID, entryID id.EntryID) (*catalog.ProtocolEntry, error) {
	if c.client == nil {
		return c.inner.GetEntry(ctx, orgID, entryID)
	}

	key := entryKeyPrefix + orgID.String() + ":" + entryID.String()
	if e, ok := getCached[catalog.ProtocolEntry](ctx, c.client, key); ok {
		return e, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		e, err := c.inner.GetEntry(ctx, orgID, entryID)
		if err != nil {
			return nil, err
		}
		c.setCached(ctx, key, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.ProtocolEntry), nil
}

// getCached returns (value, true) only on a clean hit. Redis failures and
// decode failures degrade to a miss; the upstream catalog is authoritative.
func getCached[T any](ctx context.Context, client *redis.Client, key string) (*T, bool) {
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return &v, true
}

func (c *Cache) setCached(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	// Best effort: a failed SET only costs the next caller a miss.
	_ = c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate drops cached copies for a protocol and its entries. The
// catalog service calls this (out of band) after editing a protocol.
func (c *Cache) Invalidate(ctx context.Context, orgID id.OrgID, protocolID id.ProtocolID, entryIDs []id.EntryID) error {
	if c.client == nil {
		return nil
	}
	keys := []string{protocolKeyPrefix + orgID.String() + ":" + protocolID.String()}
	for _, entryID := range entryIDs {
		keys = append(keys, entryKeyPrefix+orgID.String()+":"+entryID.String())
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}
