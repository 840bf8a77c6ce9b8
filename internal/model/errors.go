package model

import "errors"

// Error kinds for the pipeline. Callers classify with errors.Is and apply the
// per-kind degradation rules: data and model errors degrade to SKIP, a
// connection error halts the run pending operator action, persistence errors
// are logged and retried on the next write.
var (
	ErrConnection        = errors.New("broker session unavailable")
	ErrData              = errors.New("insufficient market data")
	ErrModel             = errors.New("model inference failed")
	ErrOrderRejected     = errors.New("order rejected by broker")
	ErrSettlementTimeout = errors.New("settlement not resolved before deadline")
	ErrPersistence       = errors.New("persistence write failed")

	// ErrTradeInFlight is returned when a second order is attempted while one
	// is still open on the account. The request is rejected, not queued.
	ErrTradeInFlight = errors.New("another trade is already in flight")
)
