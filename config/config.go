package config

import (
	"errors"
	"fmt"
	"github.com/everFinance/ledgersync/schema"
	"gopkg.in/yaml.v3"
	"os"
	"strings"
	"time"
)

var (
	ErrNullEndpoints = errors.New("endpoint_list_can_not_null")
	ErrNullAccount   = errors.New("public_key_and_actor_can_not_null")
)

func Default() schema.Config {
	return schema.Config{
		CurrencyCode:     "FIO",
		Denomination:     9,
		HistoryChunkSize: schema.DefaultHistoryChunkSize,
		Timeout:          10 * time.Second,
		FeeCacheTTL:      schema.DefaultFeeCacheTTL,
		Intervals: schema.Intervals{
			BlockHeight: schema.DefaultBlockHeightInterval,
			Balance:     schema.DefaultBalanceInterval,
			AccountMeta: schema.DefaultAccountMetaInterval,
			TxHistory:   schema.DefaultTxHistoryInterval,
			Persist:     schema.DefaultPersistInterval,
		},
		BoltDir: "./data/bolt",
		Sqlite:  "./data/sqlite",
		Port:    ":8080",
	}
}

// Load reads a yaml config file on top of Default. An empty path returns the defaults.
func Load(path string) (schema.Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	by, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err = yaml.Unmarshal(by, &cfg); err != nil {
		return cfg, fmt.Errorf("yaml.Unmarshal config failed; path: %s, err: %v", path, err)
	}
	return cfg, nil
}

func Validate(cfg *schema.Config) error {
	cfg.ApiEndpoints = trimEndpoints(cfg.ApiEndpoints)
	cfg.HistoryEndpoints = trimEndpoints(cfg.HistoryEndpoints)
	if len(cfg.ApiEndpoints) == 0 || len(cfg.HistoryEndpoints) == 0 {
		return ErrNullEndpoints
	}
	if cfg.PublicKey == "" || cfg.Actor == "" {
		return ErrNullAccount
	}
	if cfg.CurrencyCode == "" {
		return schema.ErrUnknownCurrency
	}
	if cfg.HistoryChunkSize < 1 {
		return fmt.Errorf("historyChunkSize must be positive; got %d", cfg.HistoryChunkSize)
	}
	iv := cfg.Intervals
	if iv.BlockHeight <= 0 || iv.Balance <= 0 || iv.AccountMeta <= 0 || iv.TxHistory <= 0 || iv.Persist <= 0 {
		return errors.New("task intervals must be positive")
	}
	return nil
}

func trimEndpoints(endpoints []string) []string {
	res := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		e = strings.TrimRight(strings.TrimSpace(e), "/")
		if e != "" {
			res = append(res, e)
		}
	}
	return res
}
