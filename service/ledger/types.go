package ledger

import (
	"context"
	"sync"

	"github.com/ericlagergren/decimal"

	"github.com/dawita19/earnmax-sub001/model"
)

// Store is the durable side of the ledger. Every mutation is persisted
// through it before the in-memory balance is updated.
type Store interface {
	GetUser(userID uint64) (*model.User, error)
	ActiveUsers() ([]*model.User, error)
	SaveBalance(userID uint64, balance *decimal.Big, entry *model.LedgerEntry) error
	SetVipLevel(userID uint64, level int, amount *decimal.Big) error
}

// AccountBalance the in-memory view of one account. The lock linearizes all
// mutations on the account, so concurrent deltas never lose an update.
type AccountBalance struct {
	balanceLock *sync.Mutex
	balance     *decimal.Big
	userID      uint64
}

// Engine the ledger store: per-account serialized balances backed by storage
type Engine struct {
	ctx       context.Context
	usersLock *sync.RWMutex
	accounts  map[uint64]*AccountBalance
	store     Store
}
