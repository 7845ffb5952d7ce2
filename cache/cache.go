package cache

import (
	"github.com/everFinance/ledgersync/schema"
	"time"
)

type ICache interface {
	Set(key string, entry []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	Close() error
}

// FeeCache keeps remote fee quotes for a short ttl so repeated spends and
// fee lookups do not hit the chain every time.
type FeeCache struct {
	Cache ICache
}

func NewFeeCache(ttl time.Duration) (*FeeCache, error) {
	if ttl <= 0 {
		ttl = schema.DefaultFeeCacheTTL
	}
	cache, err := NewBigCache(ttl)
	if err != nil {
		return nil, err
	}
	return &FeeCache{Cache: cache}, nil
}

// GetFee returns the cached fee in native units.
func (c *FeeCache) GetFee(feeEndpoint, address string) (string, bool) {
	data, err := c.Cache.Get(schema.FeeKey(feeEndpoint, address))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (c *FeeCache) SetFee(feeEndpoint, address, fee string) error {
	return c.Cache.Set(schema.FeeKey(feeEndpoint, address), []byte(fee))
}

func (c *FeeCache) Invalidate(feeEndpoint, address string) {
	_ = c.Cache.Delete(schema.FeeKey(feeEndpoint, address))
}

func (c *FeeCache) Close() error {
	return c.Cache.Close()
}
