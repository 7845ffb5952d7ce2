package ledgersync

import (
	"context"
	"errors"
	"github.com/everFinance/ledgersync/schema"
)

// MetaSync merges the account's registered addresses and domains into the
// cache by name. Remote removals never delete local records.
type MetaSync struct {
	cache     *Cache
	transport Transport
	invoker   *Invoker
	keys      Keyring
}

func NewMetaSync(cache *Cache, transport Transport, invoker *Invoker, keys Keyring) *MetaSync {
	return &MetaSync{cache: cache, transport: transport, invoker: invoker, keys: keys}
}

func (m *MetaSync) Sync(run *Run) error {
	names, err := Invoke(run.Context(), m.invoker, func(ctx context.Context, endpoint string) (schema.RespNames, error) {
		return m.transport.GetNames(ctx, endpoint, m.keys.PublicKey())
	})
	if err != nil {
		// the chain answers 404 for keys without any registration
		appErr := &schema.ApplicationError{}
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return nil
		}
		return err
	}

	run.Commit(func() {
		changed := 0
		for _, a := range names.Addresses {
			if m.cache.UpsertAddress(schema.Address{Name: a.Address, Expiration: a.Expiration}) {
				changed++
			}
		}
		for _, d := range names.Domains {
			if m.cache.UpsertDomain(schema.Domain{Name: d.Domain, Expiration: d.Expiration, IsPublic: d.IsPublic == 1}) {
				changed++
			}
		}
		if changed > 0 {
			log.Debug("account names changed", "account", m.keys.Actor(), "changed", changed)
		}
	})
	return nil
}
