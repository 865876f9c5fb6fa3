package dispatcher

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dawita19/earnmax-sub001/model"
	"github.com/dawita19/earnmax-sub001/monitor"
)

// Store persistence for the admin roster and request assignment
type Store interface {
	Admins() ([]*model.Admin, error)
	SetAdminActive(adminID uint64, active bool) error
	RecomputePendingCounts() error
	AssignRequest(requestID string, adminID uint64) error
	RevertAssignments(adminID uint64) (int64, error)
	UnassignedPending() ([]*model.Request, error)
}

type adminState struct {
	id      uint64
	active  bool
	level   model.AdminLevel
	pending int
}

// Roster tracks live per-admin pending counts and performs atomic
// select-minimum-and-increment dispatch over the full admin set.
type Roster struct {
	mu     sync.Mutex
	admins map[uint64]*adminState
	store  Store
}

func NewRoster(store Store) *Roster {
	return &Roster{
		admins: map[uint64]*adminState{},
		store:  store,
	}
}

// Init resync the roster from storage. Pending counts are recomputed from the
// actual assigned-request state so restart or failover never desynchronizes
// fairness.
func (roster *Roster) Init() error {
	if err := roster.store.RecomputePendingCounts(); err != nil {
		return err
	}
	admins, err := roster.store.Admins()
	if err != nil {
		return err
	}

	roster.mu.Lock()
	defer roster.mu.Unlock()
	roster.admins = map[uint64]*adminState{}
	for _, admin := range admins {
		roster.admins[admin.ID] = &adminState{
			id:      admin.ID,
			active:  admin.Active,
			level:   admin.Level,
			pending: admin.PendingCount,
		}
	}
	log.Info().Str("section", "dispatcher").Int("admins", len(admins)).Msg("Admin roster loaded")
	return nil
}

// Dispatch assign a pending request to the active admin with the minimum live
// pending count, ties broken by ascending admin id. Selection and increment
// happen under one lock across the whole admin set, so two concurrent
// dispatches can never both pick the same minimum and overload one admin.
func (roster *Roster) Dispatch(request *model.Request) (uint64, error) {
	roster.mu.Lock()
	defer roster.mu.Unlock()

	selected := roster.selectMin()
	if selected == nil {
		return 0, model.ErrNoActiveAdmins
	}

	if err := roster.store.AssignRequest(request.ID, selected.id); err != nil {
		return 0, err
	}

	selected.pending++
	request.Status = model.RequestStatus_UnderReview
	adminID := selected.id
	request.AssignedAdminID = &adminID
	return selected.id, nil
}

// selectMin pick the least-loaded active admin; caller holds the lock
func (roster *Roster) selectMin() *adminState {
	var selected *adminState
	for _, admin := range roster.admins {
		if !admin.active {
			continue
		}
		if selected == nil ||
			admin.pending < selected.pending ||
			(admin.pending == selected.pending && admin.id < selected.id) {
			selected = admin
		}
	}
	return selected
}

// Release drop one pending unit from an admin after a terminal transition
func (roster *Roster) Release(adminID uint64) {
	roster.mu.Lock()
	defer roster.mu.Unlock()
	if admin, ok := roster.admins[adminID]; ok && admin.pending > 0 {
		admin.pending--
	}
}

// Activate mark an admin dispatchable again
func (roster *Roster) Activate(adminID uint64) error {
	if err := roster.store.SetAdminActive(adminID, true); err != nil {
		return err
	}
	roster.mu.Lock()
	defer roster.mu.Unlock()
	if admin, ok := roster.admins[adminID]; ok {
		admin.active = true
	}
	return nil
}

// Deactivate take an admin out of rotation. Requests it was reviewing revert
// to pending and are picked up by the next reconciliation pass.
func (roster *Roster) Deactivate(adminID uint64) (int64, error) {
	if err := roster.store.SetAdminActive(adminID, false); err != nil {
		return 0, err
	}

	reverted, err := roster.store.RevertAssignments(adminID)
	if err != nil {
		return 0, err
	}

	roster.mu.Lock()
	if admin, ok := roster.admins[adminID]; ok {
		admin.active = false
		admin.pending = 0
	}
	roster.mu.Unlock()

	if reverted > 0 {
		log.Info().Str("section", "dispatcher").
			Uint64("admin_id", adminID).
			Int64("reverted", reverted).
			Msg("Reverted under-review requests of deactivated admin")
	}
	return reverted, nil
}

// Reconcile re-attempt dispatch for every unassigned pending request. This is
// the sole recovery path after admin-roster churn or a no-active-admins spell.
func (roster *Roster) Reconcile() (int, error) {
	requests, err := roster.store.UnassignedPending()
	if err != nil {
		return 0, err
	}
	monitor.DispatchPending.Set(float64(len(requests)))

	dispatched := 0
	for _, request := range requests {
		if _, err := roster.Dispatch(request); err != nil {
			if err == model.ErrNoActiveAdmins {
				break
			}
			if err == model.ErrRequestNotPending {
				// lost a race with another dispatcher, nothing to recover
				continue
			}
			log.Warn().Err(err).
				Str("section", "dispatcher").
				Str("request_id", request.ID).
				Msg("Reconciliation dispatch failed")
			continue
		}
		dispatched++
	}

	monitor.DispatchPending.Sub(float64(dispatched))
	return dispatched, nil
}
