package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"certprep-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CertInfoLoader fetches certification info from a backing store (e.g., Postgres).
type CertInfoLoader interface {
	GetCertInfo(ctx context.Context, certificationName string) (domain.CertInfo, error)
}

// CertInfoCache caches certification records in Redis (JSON string per cert)
// and falls back to a loader on cache miss.
type CertInfoCache struct {
	client *redis.Client
	loader CertInfoLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCertInfoCache(client *redis.Client, loader CertInfoLoader, ttl time.Duration) *CertInfoCache {
	return &CertInfoCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CertInfoCache) GetCertInfo(ctx context.Context, certificationName string) (domain.CertInfo, error) {
	key := c.key(certificationName)

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var info domain.CertInfo
		if err := json.Unmarshal([]byte(raw), &info); err == nil {
			return info, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return domain.CertInfo{}, fmt.Errorf("cert cache get: %w", err)
	}

	result, err, _ := c.sf.Do(certificationName, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Result(); err == nil {
			var info domain.CertInfo
			if err := json.Unmarshal([]byte(raw), &info); err == nil {
				return info, nil
			}
		}

		info, err := c.loader.GetCertInfo(ctx, certificationName)
		if err != nil {
			return domain.CertInfo{}, err
		}

		if raw, err := json.Marshal(info); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return info, nil
	})
	if err != nil {
		return domain.CertInfo{}, err
	}
	return result.(domain.CertInfo), nil
}

func (c *CertInfoCache) key(certificationName string) string {
	return "cert:" + certificationName
}

func (c *CertInfoCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
