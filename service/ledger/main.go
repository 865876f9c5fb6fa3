package ledger

import (
	"context"
	"sync"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"

	"github.com/dawita19/earnmax-sub001/conv"
	"github.com/dawita19/earnmax-sub001/model"
)

func Init(store Store, ctx context.Context) *Engine {
	return &Engine{
		ctx:       ctx,
		usersLock: &sync.RWMutex{},
		accounts:  map[uint64]*AccountBalance{},
		store:     store,
	}
}

// InitAccounts preload the balances of every active user
func (e *Engine) InitAccounts() error {
	users, err := e.store.ActiveUsers()
	if err != nil {
		log.Error().Err(err).Str("section", "ledger").Msg("Unable to load active users")
		return err
	}

	e.usersLock.Lock()
	defer e.usersLock.Unlock()

	for _, user := range users {
		e.accounts[user.ID] = &AccountBalance{
			balanceLock: &sync.Mutex{},
			balance:     conv.CloneToMoney(user.GetBalance()),
			userID:      user.ID,
		}
	}

	log.Info().Str("section", "ledger").Int("accounts", len(users)).Msg("Account balances loaded")
	return nil
}

// account return the balance entry for a user, loading it from storage the
// first time it is seen. Users registered after startup land here.
func (e *Engine) account(userID uint64) (*AccountBalance, error) {
	e.usersLock.RLock()
	acct, ok := e.accounts[userID]
	e.usersLock.RUnlock()
	if ok {
		return acct, nil
	}

	user, err := e.store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user.Status == model.UserStatusDeleted {
		return nil, model.ErrUserNotFound
	}

	e.usersLock.Lock()
	defer e.usersLock.Unlock()
	if acct, ok = e.accounts[userID]; ok {
		return acct, nil
	}
	acct = &AccountBalance{
		balanceLock: &sync.Mutex{},
		balance:     conv.CloneToMoney(user.GetBalance()),
		userID:      userID,
	}
	e.accounts[userID] = acct
	return acct, nil
}

// GetBalance a copy of the current balance of an account
func (e *Engine) GetBalance(userID uint64) (*decimal.Big, error) {
	acct, err := e.account(userID)
	if err != nil {
		return nil, err
	}
	acct.balanceLock.Lock()
	defer acct.balanceLock.Unlock()
	return conv.CloneToMoney(acct.balance), nil
}
