package cache

import (
	"context"
	"github.com/allegro/bigcache/v3"
	"time"
)

type BigCache struct {
	Cache *bigcache.BigCache
}

func NewBigCache(ttl time.Duration) (*BigCache, error) {
	conf := bigcache.DefaultConfig(ttl)
	conf.CleanWindow = ttl / 2
	if conf.CleanWindow < time.Second {
		conf.CleanWindow = time.Second
	}
	conf.HardMaxCacheSize = 64 // MB
	conf.Verbose = false

	cache, err := bigcache.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &BigCache{Cache: cache}, nil
}

func (s *BigCache) Set(key string, entry []byte) (err error) {
	return s.Cache.Set(key, entry)
}

func (s *BigCache) Get(key string) ([]byte, error) {
	return s.Cache.Get(key)
}

func (s *BigCache) Delete(key string) error {
	return s.Cache.Delete(key)
}

func (s *BigCache) Close() error {
	return s.Cache.Close()
}
