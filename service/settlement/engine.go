package settlement

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"

	"github.com/dawita19/earnmax-sub001/conv"
	"github.com/dawita19/earnmax-sub001/model"
	"github.com/dawita19/earnmax-sub001/monitor"
)

// Settle execute an admin decision on a request. The buyer-side effect is one
// durable transaction under the buyer's account lock; replaying settle on an
// already terminal request returns the stored result without touching
// anything. Referral bonus fan-out runs after the buyer side is committed and
// never rolls it back.
func (e *Engine) Settle(requestID string, adminID uint64, decision model.Decision, notes string) (*model.SettlementResult, error) {
	if !decision.IsValid() {
		return nil, fmt.Errorf("settlement: invalid decision %q", decision)
	}

	request, err := e.store.GetRequest(requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.IsTerminal() {
		return e.storedResult(request)
	}
	if request.Status != model.RequestStatus_UnderReview ||
		request.AssignedAdminID == nil || *request.AssignedAdminID != adminID {
		return nil, model.ErrStaleAssignment
	}

	var result *model.SettlementResult
	if decision == model.Decision_Reject {
		result, err = e.settleReject(request, adminID, notes)
	} else {
		result, err = e.settleApprove(request, adminID, notes)
	}
	if err != nil {
		return nil, err
	}

	if !result.Replayed {
		e.roster.Release(adminID)
		monitor.SettlementsTotal.WithLabelValues(request.Type.String(), string(decision)).Inc()
		e.publish("request_settled", result)
	}
	return result, nil
}

func (e *Engine) settleReject(request *model.Request, adminID uint64, notes string) (*model.SettlementResult, error) {
	updated, err := e.store.SettleReject(request.ID, adminID, notes, time.Now())
	if errors.Is(err, model.ErrAlreadyProcessed) {
		return e.storedResult(updated)
	}
	if err != nil {
		return nil, err
	}
	return &model.SettlementResult{
		RequestID:   updated.ID,
		RequestType: updated.Type,
		Status:      model.RequestStatus_Rejected,
		Notes:       notes,
		ProcessedAt: *updated.ProcessedAt,
	}, nil
}

func (e *Engine) settleApprove(request *model.Request, adminID uint64, notes string) (*model.SettlementResult, error) {
	buyer, err := e.store.GetUser(request.RequesterID)
	if err != nil {
		return nil, err
	}

	var fanOutAmount *decimal.Big
	var sourceType model.BonusSourceType

	upd := &BuyerUpdate{}
	switch request.Type {
	case model.RequestType_Purchase:
		// the purchase itself is paid outside the balance, no debit
		if request.TargetVipLevel == nil {
			return nil, model.ErrVipLevelUnknown
		}
		level, ok := e.vipLevels[*request.TargetVipLevel]
		if !ok {
			return nil, model.ErrVipLevelUnknown
		}
		upd.SetVip = true
		upd.VipLevel = level.Level
		upd.VipAmount = conv.CloneToMoney(request.GetAmount())
		fanOutAmount = conv.CloneToMoney(request.GetAmount())
		sourceType = model.BonusSourceType_Purchase

	case model.RequestType_Upgrade:
		if request.TargetVipLevel == nil {
			return nil, model.ErrVipLevelUnknown
		}
		target, ok := e.vipLevels[*request.TargetVipLevel]
		if !ok {
			return nil, model.ErrVipLevelUnknown
		}
		current := conv.NewMoney()
		if lvl, ok := e.vipLevels[buyer.VipLevel]; ok {
			current = lvl.GetInvestment()
		}
		diff := conv.RoundToMoney(conv.NewMoney().Sub(target.GetInvestment(), current))
		upd.SetVip = true
		upd.VipLevel = target.Level
		upd.VipAmount = target.GetInvestment()
		upd.upgradeDiff = diff
		fanOutAmount = diff
		sourceType = model.BonusSourceType_Upgrade

	case model.RequestType_Withdrawal:
		upd.AddWithdrawn = conv.CloneToMoney(request.GetAmount())

	default:
		return nil, fmt.Errorf("settlement: unknown request type %q", request.Type)
	}

	var updated *model.Request
	var newBalance *decimal.Big

	mutateErr := e.ledger.Mutate(request.RequesterID, func(current *decimal.Big) (*decimal.Big, error) {
		switch request.Type {
		case model.RequestType_Upgrade:
			// an upgrade is debited from the balance when it covers the
			// difference, otherwise it was funded by an externally validated
			// recharge and the balance stays untouched
			if current.Cmp(upd.upgradeDiff) >= 0 && upd.upgradeDiff.Sign() > 0 {
				debit := conv.NewMoney().Neg(upd.upgradeDiff)
				upd.NewBalance = conv.RoundToMoney(conv.NewMoney().Add(current, debit))
				upd.LedgerEntry = model.NewLedgerEntry(
					request.RequesterID, debit, model.OperationType_Upgrade, request.ID,
					fmt.Sprintf("vip upgrade to level %d", upd.VipLevel),
				)
			}
		case model.RequestType_Withdrawal:
			debit := conv.NewMoney().Neg(request.GetAmount())
			balance := conv.RoundToMoney(conv.NewMoney().Add(current, debit))
			if balance.Sign() < 0 {
				// the amount was validated against the balance when the
				// request was created; going negative here is corruption,
				// not a user error
				monitor.IntegrityViolationsTotal.Inc()
				log.Error().
					Str("section", "settlement").
					Str("request_id", request.ID).
					Uint64("user_id", request.RequesterID).
					Str("amount", conv.Fmt(request.GetAmount())).
					Str("balance", conv.Fmt(current)).
					Msg("Withdrawal debit exceeds balance after validation")
				return nil, model.ErrIntegrityViolation
			}
			upd.NewBalance = balance
			upd.LedgerEntry = model.NewLedgerEntry(
				request.RequesterID, debit, model.OperationType_Withdrawal, request.ID, "withdrawal",
			)
		}

		committed, err := e.store.SettleApprove(request.ID, adminID, notes, time.Now(), upd)
		if err != nil {
			updated = committed
			return nil, err
		}
		updated = committed
		newBalance = upd.NewBalance
		return upd.NewBalance, nil
	})

	if errors.Is(mutateErr, model.ErrAlreadyProcessed) {
		return e.storedResult(updated)
	}
	if mutateErr != nil {
		// partial failure rolled back; the request stays under review for retry
		return nil, mutateErr
	}

	if newBalance == nil {
		if balance, err := e.store.GetUser(request.RequesterID); err == nil {
			newBalance = balance.GetBalance()
		}
	}

	result := &model.SettlementResult{
		RequestID:   updated.ID,
		RequestType: updated.Type,
		Status:      model.RequestStatus_Approved,
		Notes:       notes,
		NewBalance:  newBalance,
		ProcessedAt: *updated.ProcessedAt,
	}

	if fanOutAmount != nil && fanOutAmount.Sign() > 0 {
		result.Bonuses = e.fanOut(request.RequesterID, fanOutAmount, sourceType, request.ID)
	}
	return result, nil
}

// fanOut credit each ancestor its level's bonus and append the matching
// append-only entry. A failure on one ancestor is logged and skipped: the
// committed buyer-side effect is never rolled back and the remaining
// ancestors still get credited.
func (e *Engine) fanOut(buyerID uint64, sourceAmount *decimal.Big, sourceType model.BonusSourceType, sourceID string) []*model.ReferralBonusEntry {
	edges, err := e.tree.AncestorsOf(buyerID)
	if err != nil {
		log.Error().Err(err).
			Str("section", "settlement").
			Uint64("user_id", buyerID).
			Msg("Unable to load ancestor chain, skipping bonus fan-out")
		return nil
	}
	if len(edges) == 0 {
		return nil
	}

	amounts := e.calc.Compute(sourceAmount, len(edges))
	entries := make([]*model.ReferralBonusEntry, 0, len(edges))
	for i, edge := range edges {
		amount := amounts[i]
		if amount.Sign() <= 0 {
			continue
		}
		levelLabel := strconv.Itoa(edge.Level)

		comment := fmt.Sprintf("level %d referral bonus from %s", edge.Level, sourceType)
		if _, err := e.ledger.ApplyDelta(edge.InviterID, amount, model.OperationType_ReferralBonus, sourceID, comment, false); err != nil {
			monitor.BonusCreditFailures.WithLabelValues(levelLabel).Inc()
			log.Warn().Err(err).
				Str("section", "settlement").
				Uint64("inviter_id", edge.InviterID).
				Uint64("invitee_id", buyerID).
				Int("level", edge.Level).
				Str("source_id", sourceID).
				Msg("Unable to credit ancestor, bonus skipped")
			continue
		}

		entry := model.NewReferralBonusEntry(edge.InviterID, buyerID, edge.Level, amount, sourceType, sourceID)
		if err := e.store.InsertBonusEntry(entry); err != nil {
			log.Error().Err(err).
				Str("section", "settlement").
				Uint64("inviter_id", edge.InviterID).
				Int("level", edge.Level).
				Str("source_id", sourceID).
				Msg("Bonus credited but entry not recorded")
			continue
		}
		monitor.BonusCreditsTotal.WithLabelValues(levelLabel).Inc()
		entries = append(entries, entry)
	}
	return entries
}

// storedResult rebuild the result of an already settled request. Bonus
// entries are reloaded from storage so a replay returns exactly what the
// first call produced, with no duplicate rows.
func (e *Engine) storedResult(request *model.Request) (*model.SettlementResult, error) {
	if request == nil {
		return nil, model.ErrRequestNotFound
	}
	result := &model.SettlementResult{
		RequestID:   request.ID,
		RequestType: request.Type,
		Status:      request.Status,
		Notes:       request.Notes,
		Replayed:    true,
	}
	if request.ProcessedAt != nil {
		result.ProcessedAt = *request.ProcessedAt
	}
	if request.Status == model.RequestStatus_Approved {
		entries, err := e.store.BonusEntriesBySource(request.ID)
		if err == nil {
			result.Bonuses = entries
		}
		if user, err := e.store.GetUser(request.RequesterID); err == nil {
			result.NewBalance = user.GetBalance()
		}
	}
	return result, nil
}

func (e *Engine) publish(event string, payload interface{}) {
	if e.events == nil {
		return
	}
	e.events.Publish(event, payload)
}
