package paywall

import "errors"

var (
	ErrInvalidTrigger    = errors.New("paywall: invalid trigger definition")
	ErrInvalidRegistry   = errors.New("paywall: invalid trigger registry")
	ErrLedgerUnavailable = errors.New("paywall: impression ledger unavailable")
)
