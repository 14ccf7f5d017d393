package model

import "errors"

// Sentinel errors for the ledger core. Callers match with errors.Is; each
// failure maps to exactly one kind so "already processed" never collapses into
// "not allowed" or "insufficient funds".
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("workflow is not in the required status")
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrOutOfStock          = errors.New("reward is out of stock")

	ErrBalanceNotLowEnough = errors.New("balance is not low enough for grace")
	ErrDailyLimitExceeded  = errors.New("daily grace limit exceeded")
	ErrWeeklyLimitExceeded = errors.New("weekly grace limit exceeded")

	// ErrTransientStore wraps infrastructure failures of the datastore,
	// as opposed to a domain refusal. Safe to retry.
	ErrTransientStore = errors.New("transient datastore failure")
)
