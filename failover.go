package ledgersync

import (
	"context"
	"errors"
	"github.com/everFinance/ledgersync/schema"
)

type Outcome int

const (
	OutcomeOk Outcome = iota
	OutcomeTransport
	OutcomeApplication
	OutcomeUnavailable
)

// Classify maps an error returned by Invoke (or by a single endpoint call) to its outcome.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOk
	}
	var appErr *schema.ApplicationError
	if errors.As(err, &appErr) {
		return OutcomeApplication
	}
	var unErr *UnavailableError
	if errors.As(err, &unErr) {
		return OutcomeUnavailable
	}
	return OutcomeTransport
}

// Invoker holds the static, priority ordered endpoint list of one capability.
type Invoker struct {
	capability string
	endpoints  []string
}

func NewInvoker(capability string, endpoints []string) *Invoker {
	eps := make([]string, len(endpoints))
	copy(eps, endpoints)
	return &Invoker{capability: capability, endpoints: eps}
}

// Invoke tries op against each endpoint in list order and returns the first
// success. An ApplicationError stops the walk and is returned as is; any
// other error moves on to the next endpoint. When every endpoint failed the
// result is an *UnavailableError.
func Invoke[T any](ctx context.Context, inv *Invoker, op func(ctx context.Context, endpoint string) (T, error)) (T, error) {
	var zero T
	if len(inv.endpoints) == 0 {
		return zero, ErrNullEndpoints
	}

	errs := make([]error, 0, len(inv.endpoints))
	tried := make([]string, 0, len(inv.endpoints))
	for _, endpoint := range inv.endpoints {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		res, err := op(ctx, endpoint)
		if err == nil {
			return res, nil
		}
		if Classify(err) == OutcomeApplication {
			log.Debug("endpoint rejected request", "capability", inv.capability, "endpoint", endpoint, "err", err)
			return zero, err
		}
		log.Warn("endpoint call failed", "capability", inv.capability, "endpoint", endpoint, "err", err)
		metricEndpointFailure(inv.capability, endpoint)
		errs = append(errs, err)
		tried = append(tried, endpoint)
	}
	return zero, &UnavailableError{Capability: inv.capability, Endpoints: tried, Errs: errs}
}
