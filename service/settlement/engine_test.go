package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/dawita19/earnmax-sub001/config"
	"github.com/dawita19/earnmax-sub001/conv"
	"github.com/dawita19/earnmax-sub001/model"
	"github.com/dawita19/earnmax-sub001/service/bonus"
	"github.com/dawita19/earnmax-sub001/service/ledger"
)

// memStore implements the settlement store, the ledger store, the ancestor
// lookup and the roster release hook over plain maps.
type memStore struct {
	mu          sync.Mutex
	users       map[uint64]*model.User
	requests    map[string]*model.Request
	edges       map[uint64][]model.InvitationEdge
	bonuses     []*model.ReferralBonusEntry
	entries     []*model.LedgerEntry
	tasks       map[uint64]*model.DailyTask
	released    []uint64
	failSaveFor map[uint64]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[uint64]*model.User{},
		requests:    map[string]*model.Request{},
		edges:       map[uint64][]model.InvitationEdge{},
		tasks:       map[uint64]*model.DailyTask{},
		failSaveFor: map[uint64]bool{},
	}
}

func (s *memStore) addUser(id uint64, balance string, vipLevel int) {
	s.users[id] = &model.User{
		ID:             id,
		Status:         model.UserStatusActive,
		VipLevel:       vipLevel,
		VipAmount:      &postgres.Decimal{V: conv.NewMoney()},
		Balance:        &postgres.Decimal{V: conv.NewMoneyFromString(balance)},
		TotalWithdrawn: &postgres.Decimal{V: conv.NewMoney()},
	}
}

// ledger.Store

func (s *memStore) GetUser(userID uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *memStore) ActiveUsers() ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*model.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users, nil
}

func (s *memStore) SaveBalance(userID uint64, balance *decimal.Big, entry *model.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaveFor[userID] {
		return errors.New("storage down")
	}
	user, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	user.Balance = &postgres.Decimal{V: conv.CloneToMoney(balance)}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memStore) SetVipLevel(userID uint64, level int, amount *decimal.Big) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	user.VipLevel = level
	user.VipAmount = &postgres.Decimal{V: amount}
	return nil
}

// settlement.Store

func (s *memStore) GetRequest(requestID string) (*model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	cp := *request
	return &cp, nil
}

func checkSettle(request *model.Request, adminID uint64) error {
	if request.Status.IsTerminal() {
		return model.ErrAlreadyProcessed
	}
	if request.Status != model.RequestStatus_UnderReview ||
		request.AssignedAdminID == nil || *request.AssignedAdminID != adminID {
		return model.ErrStaleAssignment
	}
	return nil
}

func (s *memStore) SettleReject(requestID string, adminID uint64, notes string, at time.Time) (*model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	if err := checkSettle(request, adminID); err != nil {
		cp := *request
		return &cp, err
	}
	request.Status = model.RequestStatus_Rejected
	request.Notes = notes
	request.ProcessedAt = &at
	cp := *request
	return &cp, nil
}

func (s *memStore) SettleApprove(requestID string, adminID uint64, notes string, at time.Time, upd *BuyerUpdate) (*model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	if err := checkSettle(request, adminID); err != nil {
		cp := *request
		return &cp, err
	}

	user := s.users[request.RequesterID]
	if upd.NewBalance != nil {
		user.Balance = &postgres.Decimal{V: conv.CloneToMoney(upd.NewBalance)}
		if upd.AddWithdrawn != nil {
			total := conv.NewMoney().Add(user.TotalWithdrawn.V, upd.AddWithdrawn)
			user.TotalWithdrawn = &postgres.Decimal{V: conv.RoundToMoney(total)}
		}
		if upd.LedgerEntry != nil {
			s.entries = append(s.entries, upd.LedgerEntry)
		}
	}
	if upd.SetVip {
		user.VipLevel = upd.VipLevel
		user.VipAmount = &postgres.Decimal{V: upd.VipAmount}
	}

	request.Status = model.RequestStatus_Approved
	request.Notes = notes
	request.ProcessedAt = &at
	cp := *request
	return &cp, nil
}

func (s *memStore) InsertBonusEntry(entry *model.ReferralBonusEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bonuses = append(s.bonuses, entry)
	return nil
}

func (s *memStore) BonusEntriesBySource(sourceID string) ([]*model.ReferralBonusEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []*model.ReferralBonusEntry
	for _, entry := range s.bonuses {
		if entry.SourceID == sourceID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *memStore) GetTask(taskID uint64) (*model.DailyTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, model.ErrTaskNotFound
	}
	cp := *task
	return &cp, nil
}

func (s *memStore) ClaimTask(taskID, userID uint64, at time.Time, newBalance *decimal.Big, entry *model.LedgerEntry) (*model.DailyTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaveFor[userID] {
		return nil, errors.New("storage down")
	}
	task, ok := s.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil, model.ErrTaskNotFound
	}
	if task.Completed {
		return nil, model.ErrTaskAlreadyClaimed
	}
	task.Completed = true
	task.ClaimedAt = &at
	user := s.users[userID]
	user.Balance = &postgres.Decimal{V: conv.CloneToMoney(newBalance)}
	s.entries = append(s.entries, entry)
	cp := *task
	return &cp, nil
}

// settlement.Tree

func (s *memStore) AncestorsOf(userID uint64) ([]model.InvitationEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edges[userID], nil
}

// settlement.Roster

func (s *memStore) Release(adminID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, adminID)
}

func testVipLevels() map[int]*config.VipLevelConfig {
	return map[int]*config.VipLevelConfig{
		1: {Level: 1, Investment: 1200, TaskEarning: 10, WithdrawalLimit: 500},
		2: {Level: 2, Investment: 3000, TaskEarning: 25, WithdrawalLimit: 1000},
	}
}

func newTestEngine(store *memStore) *Engine {
	ledgerEngine := ledger.Init(store, context.TODO())
	_ = ledgerEngine.InitAccounts()
	return NewEngine(store, ledgerEngine, store, bonus.Default(), store, nil, testVipLevels())
}

func underReview(id string, reqType model.RequestType, requesterID uint64, amount string, target *int, adminID uint64) *model.Request {
	admin := adminID
	return &model.Request{
		ID:              id,
		Type:            reqType,
		RequesterID:     requesterID,
		Amount:          &postgres.Decimal{V: conv.NewMoneyFromString(amount)},
		TargetVipLevel:  target,
		Status:          model.RequestStatus_UnderReview,
		AssignedAdminID: &admin,
	}
}

func level(n int) *int { return &n }

// chainStore users 1..5 where 2 was invited by 1, 3 by 2, 4 by 3 and 5 by 4,
// so user 5's ancestors are 4, 3, 2, 1 at levels 1 to 4.
func chainStore() *memStore {
	store := newMemStore()
	for id := uint64(1); id <= 5; id++ {
		store.addUser(id, "0.00", 0)
	}
	store.edges[5] = []model.InvitationEdge{
		{InviterID: 4, InviteeID: 5, Level: 1},
		{InviterID: 3, InviteeID: 5, Level: 2},
		{InviterID: 2, InviteeID: 5, Level: 3},
		{InviterID: 1, InviteeID: 5, Level: 4},
	}
	return store
}

func TestSettlePurchase(t *testing.T) {
	Convey("Approving a 1200 purchase pays every ancestor its level share", t, func() {
		store := chainStore()
		store.requests["req-1"] = underReview("req-1", model.RequestType_Purchase, 5, "1200", level(1), 7)
		engine := newTestEngine(store)

		result, err := engine.Settle("req-1", 7, model.Decision_Approve, "looks good")
		So(err, ShouldBeNil)
		So(result.Status, ShouldEqual, model.RequestStatus_Approved)
		So(result.Replayed, ShouldBeFalse)
		So(result.Bonuses, ShouldHaveLength, 4)

		So(store.users[4].GetBalance().String(), ShouldEqual, "240.00")
		So(store.users[3].GetBalance().String(), ShouldEqual, "120.00")
		So(store.users[2].GetBalance().String(), ShouldEqual, "60.00")
		So(store.users[1].GetBalance().String(), ShouldEqual, "24.00")

		So(store.users[5].VipLevel, ShouldEqual, 1)
		So(store.users[5].GetVipAmount().String(), ShouldEqual, "1200.00")
		So(store.released, ShouldResemble, []uint64{7})

		for i, entry := range store.bonuses {
			So(entry.Level, ShouldEqual, i+1)
			So(entry.SourceType, ShouldEqual, model.BonusSourceType_Purchase)
			So(entry.SourceID, ShouldEqual, "req-1")
		}
	})
}

func TestSettleReplay(t *testing.T) {
	Convey("Replaying a settled request returns the stored result and credits nothing twice", t, func() {
		store := chainStore()
		store.requests["req-1"] = underReview("req-1", model.RequestType_Purchase, 5, "1200", level(1), 7)
		engine := newTestEngine(store)

		first, err := engine.Settle("req-1", 7, model.Decision_Approve, "ok")
		So(err, ShouldBeNil)

		second, err := engine.Settle("req-1", 7, model.Decision_Approve, "ok")
		So(err, ShouldBeNil)
		So(second.Replayed, ShouldBeTrue)
		So(second.Status, ShouldEqual, first.Status)
		So(second.Bonuses, ShouldHaveLength, 4)

		// a replay by a different admin gets the same stored result
		third, err := engine.Settle("req-1", 9, model.Decision_Reject, "changed my mind")
		So(err, ShouldBeNil)
		So(third.Replayed, ShouldBeTrue)
		So(third.Status, ShouldEqual, model.RequestStatus_Approved)

		So(store.bonuses, ShouldHaveLength, 4)
		So(store.users[4].GetBalance().String(), ShouldEqual, "240.00")
		So(store.released, ShouldHaveLength, 1)
	})
}

func TestSettleStaleAssignment(t *testing.T) {
	Convey("Only the assigned admin can settle a request under review", t, func() {
		store := chainStore()
		store.requests["req-1"] = underReview("req-1", model.RequestType_Purchase, 5, "1200", level(1), 7)
		engine := newTestEngine(store)

		_, err := engine.Settle("req-1", 9, model.Decision_Approve, "")
		So(err, ShouldEqual, model.ErrStaleAssignment)
		So(store.requests["req-1"].Status, ShouldEqual, model.RequestStatus_UnderReview)
	})

	Convey("A pending request cannot be settled at all", t, func() {
		store := chainStore()
		request := underReview("req-2", model.RequestType_Purchase, 5, "1200", level(1), 7)
		request.Status = model.RequestStatus_Pending
		request.AssignedAdminID = nil
		store.requests["req-2"] = request
		engine := newTestEngine(store)

		_, err := engine.Settle("req-2", 7, model.Decision_Approve, "")
		So(err, ShouldEqual, model.ErrStaleAssignment)
	})
}

func TestSettleReject(t *testing.T) {
	Convey("Rejecting changes nothing but the request itself", t, func() {
		store := chainStore()
		store.requests["req-1"] = underReview("req-1", model.RequestType_Purchase, 5, "1200", level(1), 7)
		engine := newTestEngine(store)

		result, err := engine.Settle("req-1", 7, model.Decision_Reject, "proof missing")
		So(err, ShouldBeNil)
		So(result.Status, ShouldEqual, model.RequestStatus_Rejected)
		So(result.Notes, ShouldEqual, "proof missing")
		So(result.Bonuses, ShouldHaveLength, 0)

		So(store.users[5].VipLevel, ShouldEqual, 0)
		So(store.users[4].GetBalance().Sign(), ShouldEqual, 0)
		So(store.bonuses, ShouldHaveLength, 0)
		So(store.released, ShouldResemble, []uint64{7})
	})
}

func TestSettleWithdrawal(t *testing.T) {
	Convey("An approved withdrawal debits the balance and tracks the total", t, func() {
		store := chainStore()
		store.users[5].Balance = &postgres.Decimal{V: conv.NewMoneyFromString("500.00")}
		store.requests["req-1"] = underReview("req-1", model.RequestType_Withdrawal, 5, "150", nil, 7)
		engine := newTestEngine(store)

		result, err := engine.Settle("req-1", 7, model.Decision_Approve, "paid")
		So(err, ShouldBeNil)
		So(result.NewBalance.String(), ShouldEqual, "350.00")
		So(store.users[5].GetBalance().String(), ShouldEqual, "350.00")
		So(store.users[5].TotalWithdrawn.V.String(), ShouldEqual, "150.00")

		// withdrawals never fan out, even with a full ancestor chain
		So(result.Bonuses, ShouldHaveLength, 0)
		So(store.bonuses, ShouldHaveLength, 0)
	})

	Convey("A debit that would go negative is an integrity violation", t, func() {
		store := chainStore()
		store.users[5].Balance = &postgres.Decimal{V: conv.NewMoneyFromString("100.00")}
		store.requests["req-1"] = underReview("req-1", model.RequestType_Withdrawal, 5, "150", nil, 7)
		engine := newTestEngine(store)

		_, err := engine.Settle("req-1", 7, model.Decision_Approve, "paid")
		So(err, ShouldEqual, model.ErrIntegrityViolation)

		// nothing moved and the request is still open for the operator
		So(store.users[5].GetBalance().String(), ShouldEqual, "100.00")
		So(store.requests["req-1"].Status, ShouldEqual, model.RequestStatus_UnderReview)
		So(store.released, ShouldHaveLength, 0)
	})
}

func TestSettleUpgrade(t *testing.T) {
	Convey("An upgrade covered by the balance is debited for the difference", t, func() {
		store := chainStore()
		store.users[5].VipLevel = 1
		store.users[5].Balance = &postgres.Decimal{V: conv.NewMoneyFromString("2000.00")}
		store.requests["req-1"] = underReview("req-1", model.RequestType_Upgrade, 5, "3000", level(2), 7)
		engine := newTestEngine(store)

		result, err := engine.Settle("req-1", 7, model.Decision_Approve, "ok")
		So(err, ShouldBeNil)

		// difference 3000 - 1200 = 1800
		So(result.NewBalance.String(), ShouldEqual, "200.00")
		So(store.users[5].VipLevel, ShouldEqual, 2)
		So(store.users[5].GetVipAmount().String(), ShouldEqual, "3000.00")

		// fan-out runs on the difference, not the full tier price
		So(result.Bonuses, ShouldHaveLength, 4)
		So(store.users[4].GetBalance().String(), ShouldEqual, "360.00")
		So(store.users[1].GetBalance().String(), ShouldEqual, "36.00")
		So(store.bonuses[0].SourceType, ShouldEqual, model.BonusSourceType_Upgrade)
	})

	Convey("An externally funded upgrade leaves the balance alone", t, func() {
		store := chainStore()
		store.users[5].VipLevel = 1
		store.users[5].Balance = &postgres.Decimal{V: conv.NewMoneyFromString("100.00")}
		store.requests["req-1"] = underReview("req-1", model.RequestType_Upgrade, 5, "3000", level(2), 7)
		engine := newTestEngine(store)

		_, err := engine.Settle("req-1", 7, model.Decision_Approve, "ok")
		So(err, ShouldBeNil)

		So(store.users[5].GetBalance().String(), ShouldEqual, "100.00")
		So(store.users[5].VipLevel, ShouldEqual, 2)
		So(store.users[4].GetBalance().String(), ShouldEqual, "360.00")
	})
}

func TestFanOutPartialFailure(t *testing.T) {
	Convey("A failing ancestor credit is skipped, the rest still land", t, func() {
		store := chainStore()
		store.requests["req-1"] = underReview("req-1", model.RequestType_Purchase, 5, "1200", level(1), 7)
		engine := newTestEngine(store)
		store.failSaveFor[4] = true

		result, err := engine.Settle("req-1", 7, model.Decision_Approve, "ok")
		So(err, ShouldBeNil)
		So(result.Status, ShouldEqual, model.RequestStatus_Approved)
		So(result.Bonuses, ShouldHaveLength, 3)

		So(store.users[4].GetBalance().Sign(), ShouldEqual, 0)
		So(store.users[3].GetBalance().String(), ShouldEqual, "120.00")
		So(store.users[2].GetBalance().String(), ShouldEqual, "60.00")
		So(store.users[1].GetBalance().String(), ShouldEqual, "24.00")
		So(store.bonuses, ShouldHaveLength, 3)
	})
}

func TestClaimTask(t *testing.T) {
	Convey("Claiming a task credits the earning and fans out on it", t, func() {
		store := chainStore()
		store.users[5].VipLevel = 1
		store.tasks[11] = &model.DailyTask{
			ID:      11,
			UserID:  5,
			Earning: &postgres.Decimal{V: conv.NewMoneyFromString("10.00")},
		}
		engine := newTestEngine(store)

		result, err := engine.ClaimTask(11, 5)
		So(err, ShouldBeNil)
		So(result.Earnings.String(), ShouldEqual, "10.00")
		So(store.users[5].GetBalance().String(), ShouldEqual, "10.00")

		So(result.Bonuses, ShouldHaveLength, 4)
		So(store.users[4].GetBalance().String(), ShouldEqual, "2.00")
		So(store.users[3].GetBalance().String(), ShouldEqual, "1.00")
		So(store.users[2].GetBalance().String(), ShouldEqual, "0.50")
		So(store.users[1].GetBalance().String(), ShouldEqual, "0.20")
		So(store.bonuses[0].SourceType, ShouldEqual, model.BonusSourceType_Task)

		Convey("Claiming it again is rejected", func() {
			_, err := engine.ClaimTask(11, 5)
			So(err, ShouldEqual, model.ErrTaskAlreadyClaimed)
			So(store.users[5].GetBalance().String(), ShouldEqual, "10.00")
		})
	})

	Convey("A failed credit leaves the task claimable for a retry", t, func() {
		store := chainStore()
		store.users[5].VipLevel = 1
		store.tasks[11] = &model.DailyTask{
			ID:      11,
			UserID:  5,
			Earning: &postgres.Decimal{V: conv.NewMoneyFromString("10.00")},
		}
		engine := newTestEngine(store)
		store.failSaveFor[5] = true

		_, err := engine.ClaimTask(11, 5)
		So(err, ShouldNotBeNil)
		So(store.tasks[11].Completed, ShouldBeFalse)
		So(store.users[5].GetBalance().Sign(), ShouldEqual, 0)
		So(store.entries, ShouldHaveLength, 0)

		store.failSaveFor[5] = false
		result, err := engine.ClaimTask(11, 5)
		So(err, ShouldBeNil)
		So(result.Earnings.String(), ShouldEqual, "10.00")
		So(store.tasks[11].Completed, ShouldBeTrue)
		So(store.users[5].GetBalance().String(), ShouldEqual, "10.00")
	})

	Convey("Someone else's task cannot be claimed", t, func() {
		store := chainStore()
		store.tasks[11] = &model.DailyTask{
			ID:      11,
			UserID:  5,
			Earning: &postgres.Decimal{V: conv.NewMoneyFromString("10.00")},
		}
		engine := newTestEngine(store)

		_, err := engine.ClaimTask(11, 4)
		So(err, ShouldEqual, model.ErrTaskNotFound)
	})
}
