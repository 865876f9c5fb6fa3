package service

import (
	"context"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"

	"github.com/dawita19/earnmax-sub001/config"
	"github.com/dawita19/earnmax-sub001/model"
	"github.com/dawita19/earnmax-sub001/queries"
	"github.com/dawita19/earnmax-sub001/service/bonus"
	"github.com/dawita19/earnmax-sub001/service/dispatcher"
	"github.com/dawita19/earnmax-sub001/service/ledger"
	"github.com/dawita19/earnmax-sub001/service/settlement"
	"github.com/dawita19/earnmax-sub001/service/tree"
)

// Store the persistence the facade calls directly; the engines hold their own
// narrower store interfaces, all satisfied by *queries.Repo.
type Store interface {
	GetUser(userID uint64) (*model.User, error)
	GetUserByInviteCode(code string) (*model.User, error)
	CreateUser(user *model.User) error
	CreateRequest(request *model.Request) error
	GetRequest(requestID string) (*model.Request, error)
	AdminQueue(adminID uint64) ([]model.Request, error)
	UserRequests(userID uint64, limit int) ([]model.Request, error)
	CancelRequest(requestID string, userID uint64) (*model.Request, error)
	CountInviteesByLevel(userID uint64) ([4]int64, error)
	TotalBonusByUser(userID uint64) (*decimal.Big, error)
	UserTasks(userID uint64, date time.Time) ([]model.DailyTask, error)
	GenerateDailyTasks(date time.Time, earnings map[int]*postgres.Decimal) (int64, error)
}

// Service wires storage, the engines and the audit stream into the operations
// exposed over HTTP.
type Service struct {
	cfg       config.Config
	repo      Store
	ledger    *ledger.Engine
	tree      *tree.Index
	calc      *bonus.Calculator
	roster    *dispatcher.Roster
	settle    *settlement.Engine
	vipLevels map[int]*config.VipLevelConfig
}

// NewService assemble the engines over the repo and warm their state: account
// balances preloaded, roster pending counts recomputed from the requests table.
func NewService(ctx context.Context, cfg config.Config, repo *queries.Repo, events settlement.Publisher) (*Service, error) {
	ledgerEngine := ledger.Init(repo, ctx)
	if err := ledgerEngine.InitAccounts(); err != nil {
		return nil, err
	}

	roster := dispatcher.NewRoster(repo)
	if err := roster.Init(); err != nil {
		return nil, err
	}

	index := tree.NewIndex(repo)
	calc := bonus.NewCalculator(cfg.Referral)
	vipLevels := cfg.GetVipLevelsMap()
	engine := settlement.NewEngine(repo, ledgerEngine, index, calc, roster, events, vipLevels)

	return &Service{
		cfg:       cfg,
		repo:      repo,
		ledger:    ledgerEngine,
		tree:      index,
		calc:      calc,
		roster:    roster,
		settle:    engine,
		vipLevels: vipLevels,
	}, nil
}

// ReconcileDispatch re-attempt dispatch for every unassigned pending request
func (service *Service) ReconcileDispatch() (int, error) {
	return service.roster.Reconcile()
}

// SetAdminActive flip an admin in or out of the dispatch rotation. Requests a
// deactivated admin was reviewing revert to pending and are redistributed
// right away.
func (service *Service) SetAdminActive(adminID uint64, active bool) error {
	if active {
		return service.roster.Activate(adminID)
	}
	if _, err := service.roster.Deactivate(adminID); err != nil {
		return err
	}
	_, err := service.roster.Reconcile()
	return err
}
