package ledgersync

import (
	"context"
	"errors"
	"github.com/everFinance/ledgersync/schema"
	"github.com/shopspring/decimal"
)

// named remote procedures the wallet core reaches through the engine

func (s *Spender) IsAvailable(ctx context.Context, name string) (bool, error) {
	resp, err := Invoke(ctx, s.invoker, func(ctx context.Context, endpoint string) (schema.RespAvail, error) {
		return s.transport.AvailCheck(ctx, endpoint, name)
	})
	if err != nil {
		return false, err
	}
	return resp.IsRegistered == 0, nil
}

func (s *Spender) RegisterAddress(ctx context.Context, address string) (schema.RespPushTx, error) {
	return s.pushWithFee(ctx, schema.FeeRegAddress, "", schema.ActionRegAddress, func(maxFee string) interface{} {
		return map[string]interface{}{
			"fio_address":          address,
			"owner_fio_public_key": s.keys.PublicKey(),
			"max_fee":              maxFee,
			"tpid":                 s.tpid,
			"actor":                s.keys.Actor(),
		}
	})
}

func (s *Spender) RenewAddress(ctx context.Context, address string) (schema.RespPushTx, error) {
	return s.pushWithFee(ctx, schema.FeeRenewAddress, address, schema.ActionRenewAddress, func(maxFee string) interface{} {
		return map[string]interface{}{
			"fio_address": address,
			"max_fee":     maxFee,
			"tpid":        s.tpid,
			"actor":       s.keys.Actor(),
		}
	})
}

func (s *Spender) RegisterDomain(ctx context.Context, domain string) (schema.RespPushTx, error) {
	return s.pushWithFee(ctx, schema.FeeRegDomain, "", schema.ActionRegDomain, func(maxFee string) interface{} {
		return map[string]interface{}{
			"fio_domain":           domain,
			"owner_fio_public_key": s.keys.PublicKey(),
			"max_fee":              maxFee,
			"tpid":                 s.tpid,
			"actor":                s.keys.Actor(),
		}
	})
}

func (s *Spender) RenewDomain(ctx context.Context, domain string) (schema.RespPushTx, error) {
	return s.pushWithFee(ctx, schema.FeeRenewDomain, "", schema.ActionRenewDomain, func(maxFee string) interface{} {
		return map[string]interface{}{
			"fio_domain": domain,
			"max_fee":    maxFee,
			"tpid":       s.tpid,
			"actor":      s.keys.Actor(),
		}
	})
}

func (s *Spender) SetDomainVisibility(ctx context.Context, domain string, public bool) (schema.RespPushTx, error) {
	isPublic := 0
	if public {
		isPublic = 1
	}
	return s.pushWithFee(ctx, schema.FeeSetDomainPub, "", schema.ActionSetDomainPub, func(maxFee string) interface{} {
		return map[string]interface{}{
			"fio_domain": domain,
			"is_public":  isPublic,
			"max_fee":    maxFee,
			"tpid":       s.tpid,
			"actor":      s.keys.Actor(),
		}
	})
}

// Call forwards a raw chain method and returns the response body.
func (s *Spender) Call(ctx context.Context, method string, params interface{}) ([]byte, error) {
	return Invoke(ctx, s.invoker, func(ctx context.Context, endpoint string) ([]byte, error) {
		return s.transport.Call(ctx, endpoint, method, params)
	})
}

func (s *Spender) pushWithFee(ctx context.Context, feeEndpoint, address, action string, data func(maxFee string) interface{}) (schema.RespPushTx, error) {
	fee, err := s.Fee(ctx, feeEndpoint, address)
	if err != nil {
		return schema.RespPushTx{}, err
	}
	if bal, err := decimal.NewFromString(s.cache.GetBalance(s.currencyCode)); err == nil && fee.GreaterThan(bal) {
		return schema.RespPushTx{}, schema.ErrInsufficientFunds
	}
	resp, err := s.push(ctx, action, schema.ActionAddrContract, data(fee.String()), "")
	if err != nil {
		return resp, err
	}
	log.Info("push action success", "action", action, "txid", resp.TransactionId)
	return resp, nil
}

// ErrorResult maps an ApplicationError anywhere in err's chain to its canonical result.
func ErrorResult(err error) (schema.ErrorResult, bool) {
	appErr := &schema.ApplicationError{}
	if errors.As(err, &appErr) {
		return appErr.Result(), true
	}
	return schema.ErrorResult{}, false
}
