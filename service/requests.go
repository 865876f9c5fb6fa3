package service

import (
	"fmt"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"

	"github.com/dawita19/earnmax-sub001/conv"
	"github.com/dawita19/earnmax-sub001/model"
)

// CreateRequest validate and persist a new request, then try to hand it to an
// admin right away. With no active admins the request stays pending until the
// reconciliation pass finds someone to review it.
//
// Purchase and upgrade amounts are fixed by the target tier's configured
// investment, so a client-supplied amount only has to match when present.
func (service *Service) CreateRequest(reqType model.RequestType, userID uint64, amount *decimal.Big, targetVipLevel *int) (*model.Request, error) {
	if !reqType.IsValid() {
		return nil, fmt.Errorf("service: invalid request type %q", reqType)
	}

	user, err := service.repo.GetUser(userID)
	if err != nil {
		return nil, err
	}

	switch reqType {
	case model.RequestType_Purchase, model.RequestType_Upgrade:
		if targetVipLevel == nil {
			return nil, model.ErrVipLevelUnknown
		}
		tier, ok := service.vipLevels[*targetVipLevel]
		if !ok {
			return nil, model.ErrVipLevelUnknown
		}
		if reqType == model.RequestType_Upgrade && tier.Level <= user.VipLevel {
			return nil, model.ErrVipLevelNotHigher
		}
		if amount != nil && amount.Sign() > 0 && amount.Cmp(tier.GetInvestment()) != 0 {
			return nil, model.ErrInvalidAmount
		}
		amount = tier.GetInvestment()

	case model.RequestType_Withdrawal:
		if amount == nil || amount.Sign() <= 0 {
			return nil, model.ErrInvalidAmount
		}
		amount = conv.CloneToMoney(amount)
		balance, err := service.ledger.GetBalance(userID)
		if err != nil {
			return nil, err
		}
		if balance.Cmp(amount) < 0 {
			return nil, model.ErrInsufficientFunds
		}
		if tier, ok := service.vipLevels[user.VipLevel]; ok {
			limit := tier.GetWithdrawalLimit()
			if limit.Sign() > 0 && amount.Cmp(limit) > 0 {
				return nil, model.ErrWithdrawalLimit
			}
		}
		targetVipLevel = nil
	}

	request := model.NewRequest(reqType, userID, amount, targetVipLevel)
	if err := service.repo.CreateRequest(request); err != nil {
		return nil, err
	}

	if _, err := service.roster.Dispatch(request); err != nil {
		if err == model.ErrNoActiveAdmins {
			log.Info().Str("section", "service").
				Str("request_id", request.ID).
				Msg("No active admins, request left pending")
		} else {
			log.Warn().Err(err).Str("section", "service").
				Str("request_id", request.ID).
				Msg("Dispatch failed, request left pending")
		}
	}
	return request, nil
}

// Settle execute an admin decision on a request
func (service *Service) Settle(requestID string, adminID uint64, decision model.Decision, notes string) (*model.SettlementResult, error) {
	return service.settle.Settle(requestID, adminID, decision, notes)
}

// GetRequest load a single request
func (service *Service) GetRequest(requestID string) (*model.Request, error) {
	return service.repo.GetRequest(requestID)
}

// GetAdminQueue the requests currently under review by an admin
func (service *Service) GetAdminQueue(adminID uint64) ([]model.Request, error) {
	return service.repo.AdminQueue(adminID)
}

// GetUserRequests a user's own requests, newest first
func (service *Service) GetUserRequests(userID uint64, limit int) ([]model.Request, error) {
	return service.repo.UserRequests(userID, limit)
}

// CancelRequest reject a request on behalf of its owner while it is still
// pending. Once an admin holds it only the admin can settle it.
func (service *Service) CancelRequest(requestID string, userID uint64) (*model.Request, error) {
	return service.repo.CancelRequest(requestID, userID)
}
