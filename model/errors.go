package model

import "errors"

// Shared error kinds surfaced by the engines and the storage layer.
var (
	// ErrInsufficientFunds a debit would push the balance below zero
	ErrInsufficientFunds = errors.New("INSUFFICIENT_FUNDS")
	// ErrStaleAssignment the admin no longer owns the request
	ErrStaleAssignment = errors.New("STALE_ASSIGNMENT")
	// ErrAlreadyProcessed the request is terminal; replay returns the stored result
	ErrAlreadyProcessed = errors.New("ALREADY_PROCESSED")
	// ErrNoActiveAdmins dispatch deferred until the reconciliation pass
	ErrNoActiveAdmins = errors.New("NO_ACTIVE_ADMINS")
	// ErrIntegrityViolation a previously validated debit failed at settlement time
	ErrIntegrityViolation = errors.New("INTEGRITY_VIOLATION")
	ErrInvalidAmount      = errors.New("INVALID_AMOUNT")
	ErrRequestNotFound    = errors.New("REQUEST_NOT_FOUND")
	ErrRequestNotPending  = errors.New("REQUEST_NOT_PENDING")
	ErrUserNotFound       = errors.New("USER_NOT_FOUND")
	ErrVipLevelUnknown    = errors.New("VIP_LEVEL_UNKNOWN")
	// ErrVipLevelNotHigher an upgrade must target a tier above the current one
	ErrVipLevelNotHigher = errors.New("VIP_LEVEL_NOT_HIGHER")
	// ErrWithdrawalLimit the amount exceeds the tier's withdrawal limit
	ErrWithdrawalLimit    = errors.New("WITHDRAWAL_LIMIT_EXCEEDED")
	ErrTaskNotFound       = errors.New("TASK_NOT_FOUND")
	ErrTaskAlreadyClaimed = errors.New("TASK_ALREADY_CLAIMED")
)
