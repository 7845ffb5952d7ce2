package schema

import (
	"errors"
	"fmt"
)

var (
	ErrNotExist = errors.New("not_exist_record")

	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrNullAddress       = errors.New("null_public_address")
	ErrUnknownCurrency   = errors.New("unknown_currency_code")
	ErrNotBroadcastable  = errors.New("tx_not_broadcastable")
)

// ApplicationError is a deterministic rejection reported by a remote endpoint.
// Retrying it against another endpoint cannot change the outcome.
type ApplicationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (e *ApplicationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("application error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("application error %d: %s (%s)", e.Code, e.Message, e.Detail)
}

func (e *ApplicationError) Result() ErrorResult {
	return ErrorResult{IsError: true, Code: e.Code, Message: e.Message, Detail: e.Detail}
}

// ErrorResult is the canonical shape an ApplicationError takes on the wire.
type ErrorResult struct {
	IsError bool   `json:"isError"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}
