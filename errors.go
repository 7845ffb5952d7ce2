package ledgersync

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNullEndpoints = errors.New("null_endpoints")
	ErrTaskExist     = errors.New("task_exist")
	ErrTaskNotFound  = errors.New("task_not_found")
	ErrNoTxId        = errors.New("null_tx_id")
)

// UnavailableError reports that every endpoint of a capability failed with a
// transport error. It unwraps to each per-endpoint error.
type UnavailableError struct {
	Capability string
	Endpoints  []string
	Errs       []error
}

func (e *UnavailableError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for i, err := range e.Errs {
		msgs = append(msgs, fmt.Sprintf("%s: %v", e.Endpoints[i], err))
	}
	return fmt.Sprintf("all %s endpoints unreachable; %s", e.Capability, strings.Join(msgs, "; "))
}

func (e *UnavailableError) Unwrap() []error {
	return e.Errs
}
