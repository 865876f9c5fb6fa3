package ledger

import (
	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"

	"github.com/dawita19/earnmax-sub001/conv"
	"github.com/dawita19/earnmax-sub001/model"
)

// ApplyDelta apply one signed delta to an account. With expectNonNegative set
// the delta is rejected when the result would go below zero; credits are never
// subject to that check. The new balance is durably stored together with its
// ledger entry before the cached balance moves.
func (e *Engine) ApplyDelta(userID uint64, amount *decimal.Big, refType model.OperationType, refID, comment string, expectNonNegative bool) (*decimal.Big, error) {
	if amount == nil || conv.NewMoney().CheckNaNs(amount, nil) {
		return nil, model.ErrInvalidAmount
	}

	acct, err := e.account(userID)
	if err != nil {
		return nil, err
	}

	acct.balanceLock.Lock()
	defer acct.balanceLock.Unlock()

	newBalance := conv.NewMoney().Add(acct.balance, amount)
	conv.RoundToMoney(newBalance)
	if expectNonNegative && newBalance.Sign() < 0 {
		return nil, model.ErrInsufficientFunds
	}

	entry := model.NewLedgerEntry(userID, amount, refType, refID, comment)
	if err := e.store.SaveBalance(userID, newBalance, entry); err != nil {
		log.Error().Err(err).
			Str("section", "ledger").
			Uint64("user_id", userID).
			Str("ref_type", refType.String()).
			Str("ref_id", refID).
			Msg("Unable to persist balance delta")
		return nil, err
	}

	acct.balance = newBalance
	return conv.CloneToMoney(newBalance), nil
}

// Mutate run fn while holding the account lock. fn receives a copy of the
// current balance, persists its own changes (typically inside a wider
// transaction) and returns the balance to install in the cache, or nil to
// leave it untouched. An error from fn discards everything.
func (e *Engine) Mutate(userID uint64, fn func(current *decimal.Big) (*decimal.Big, error)) error {
	acct, err := e.account(userID)
	if err != nil {
		return err
	}

	acct.balanceLock.Lock()
	defer acct.balanceLock.Unlock()

	newBalance, err := fn(conv.CloneToMoney(acct.balance))
	if err != nil {
		return err
	}
	if newBalance != nil {
		acct.balance = conv.RoundToMoney(newBalance)
	}
	return nil
}

// SetVipLevel unconditional tier change, called only after a successful cost check
func (e *Engine) SetVipLevel(userID uint64, level int, amount *decimal.Big) error {
	if amount == nil || conv.NewMoney().CheckNaNs(amount, nil) {
		return model.ErrInvalidAmount
	}
	return e.store.SetVipLevel(userID, level, conv.CloneToMoney(amount))
}
