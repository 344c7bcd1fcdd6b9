package weathercache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/krishi-vaani/internal/domain/environment"
)

// ValkeyCache stores weather samples in a Valkey compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "weather"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

func (c *ValkeyCache) Get(ctx context.Context, key string) (environment.Sample, bool, error) {
	payload, err := c.client.Do(ctx, c.client.B().Get().Key(c.key(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return environment.Sample{}, false, nil
		}
		return environment.Sample{}, false, err
	}
	var sample environment.Sample
	if err := json.Unmarshal([]byte(payload), &sample); err != nil {
		return environment.Sample{}, false, err
	}
	return sample, true, nil
}

func (c *ValkeyCache) Set(ctx context.Context, key string, sample environment.Sample, ttl time.Duration) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.key(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) key(key string) string {
	return c.prefix + ":" + key
}

var _ environment.Cache = (*ValkeyCache)(nil)
