package settlement

import (
	"time"

	"github.com/ericlagergren/decimal"

	"github.com/dawita19/earnmax-sub001/config"
	"github.com/dawita19/earnmax-sub001/model"
	"github.com/dawita19/earnmax-sub001/service/bonus"
)

// BuyerUpdate the buyer-side effects of one approval, applied atomically with
// the request's terminal transition.
type BuyerUpdate struct {
	// NewBalance replaces the buyer's balance when set; nil leaves it alone
	NewBalance  *decimal.Big
	LedgerEntry *model.LedgerEntry

	SetVip    bool
	VipLevel  int
	VipAmount *decimal.Big

	// AddWithdrawn is added to total_withdrawn on withdrawal approvals
	AddWithdrawn *decimal.Big

	// upgradeDiff is the engine-side cost of the tier jump, never persisted
	upgradeDiff *decimal.Big
}

// Store the transactional persistence the engine settles against. Both settle
// calls re-check status and assignee inside the transaction and return
// model.ErrAlreadyProcessed (with the stored request) or
// model.ErrStaleAssignment when the re-check fails.
type Store interface {
	GetRequest(requestID string) (*model.Request, error)
	GetUser(userID uint64) (*model.User, error)
	SettleReject(requestID string, adminID uint64, notes string, at time.Time) (*model.Request, error)
	SettleApprove(requestID string, adminID uint64, notes string, at time.Time, upd *BuyerUpdate) (*model.Request, error)
	InsertBonusEntry(entry *model.ReferralBonusEntry) error
	BonusEntriesBySource(sourceID string) ([]*model.ReferralBonusEntry, error)
	GetTask(taskID uint64) (*model.DailyTask, error)
	ClaimTask(taskID, userID uint64, at time.Time, newBalance *decimal.Big, entry *model.LedgerEntry) (*model.DailyTask, error)
}

// Ledger per-account serialized balance mutations
type Ledger interface {
	ApplyDelta(userID uint64, amount *decimal.Big, refType model.OperationType, refID, comment string, expectNonNegative bool) (*decimal.Big, error)
	Mutate(userID uint64, fn func(current *decimal.Big) (*decimal.Big, error)) error
}

// Tree ancestor chain lookups
type Tree interface {
	AncestorsOf(userID uint64) ([]model.InvitationEdge, error)
}

// Roster live pending-count bookkeeping on terminal transitions
type Roster interface {
	Release(adminID uint64)
}

// Publisher fire-and-forget audit events; failures never affect settlement
type Publisher interface {
	Publish(event string, payload interface{})
}

// Engine executes admin decisions as all-or-nothing buyer-side transitions
// plus best-effort referral bonus fan-out.
type Engine struct {
	store     Store
	ledger    Ledger
	tree      Tree
	calc      *bonus.Calculator
	roster    Roster
	events    Publisher
	vipLevels map[int]*config.VipLevelConfig
}

func NewEngine(store Store, ledger Ledger, index Tree, calc *bonus.Calculator, roster Roster, events Publisher, vipLevels map[int]*config.VipLevelConfig) *Engine {
	return &Engine{
		store:     store,
		ledger:    ledger,
		tree:      index,
		calc:      calc,
		roster:    roster,
		events:    events,
		vipLevels: vipLevels,
	}
}
