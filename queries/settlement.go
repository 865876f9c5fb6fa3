package queries

import (
	"errors"
	"time"

	"github.com/ericlagergren/decimal/sql/postgres"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dawita19/earnmax-sub001/model"
	"github.com/dawita19/earnmax-sub001/service/settlement"
)

// lockRequest load a request with a row lock and re-check the settle
// preconditions inside the transaction. Returns ErrAlreadyProcessed for a
// terminal request (the caller gets the stored row back for replay) and
// ErrStaleAssignment when the request is not under review by this admin.
func lockRequest(tx *gorm.DB, request *model.Request, requestID string, adminID uint64) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(request, "id = ?", requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ErrRequestNotFound
		}
		return pkgerrors.Wrap(err, "queries: lock request")
	}
	if request.Status.IsTerminal() {
		return model.ErrAlreadyProcessed
	}
	if request.Status != model.RequestStatus_UnderReview ||
		request.AssignedAdminID == nil || *request.AssignedAdminID != adminID {
		return model.ErrStaleAssignment
	}
	return nil
}

func releasePendingCount(tx *gorm.DB, adminID uint64) error {
	return tx.Model(&model.Admin{}).
		Where("id = ?", adminID).
		Where("pending_count > 0").
		Update("pending_count", gorm.Expr("pending_count - 1")).Error
}

// SettleReject move a request to rejected in one transaction
func (repo *Repo) SettleReject(requestID string, adminID uint64, notes string, at time.Time) (*model.Request, error) {
	request := &model.Request{}
	err := repo.Conn.Transaction(func(tx *gorm.DB) error {
		if err := lockRequest(tx, request, requestID, adminID); err != nil {
			return err
		}
		request.Status = model.RequestStatus_Rejected
		request.Notes = notes
		request.ProcessedAt = &at
		if err := tx.Save(request).Error; err != nil {
			return pkgerrors.Wrap(err, "queries: settle reject")
		}
		return releasePendingCount(tx, adminID)
	})
	if errors.Is(err, model.ErrAlreadyProcessed) {
		return request, err
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}

// SettleApprove move a request to approved and apply the buyer-side update
// in the same transaction: the new balance, its ledger entry, the withdrawn
// total and the tier change either all land or none do.
func (repo *Repo) SettleApprove(requestID string, adminID uint64, notes string, at time.Time, upd *settlement.BuyerUpdate) (*model.Request, error) {
	request := &model.Request{}
	err := repo.Conn.Transaction(func(tx *gorm.DB) error {
		if err := lockRequest(tx, request, requestID, adminID); err != nil {
			return err
		}
		request.Status = model.RequestStatus_Approved
		request.Notes = notes
		request.ProcessedAt = &at
		if err := tx.Save(request).Error; err != nil {
			return pkgerrors.Wrap(err, "queries: settle approve")
		}
		if err := releasePendingCount(tx, adminID); err != nil {
			return pkgerrors.Wrap(err, "queries: settle approve")
		}
		if upd == nil {
			return nil
		}

		if upd.NewBalance != nil {
			updates := map[string]interface{}{
				"balance": &postgres.Decimal{V: upd.NewBalance},
			}
			if upd.AddWithdrawn != nil {
				updates["total_withdrawn"] = gorm.Expr("total_withdrawn + ?", &postgres.Decimal{V: upd.AddWithdrawn})
			}
			res := tx.Model(&model.User{}).Where("id = ?", request.RequesterID).Updates(updates)
			if res.Error != nil {
				return pkgerrors.Wrap(res.Error, "queries: settle approve balance")
			}
			if res.RowsAffected == 0 {
				return model.ErrUserNotFound
			}
			if upd.LedgerEntry != nil {
				if err := tx.Create(upd.LedgerEntry).Error; err != nil {
					return pkgerrors.Wrap(err, "queries: settle approve ledger entry")
				}
			}
		}

		if upd.SetVip {
			err := tx.Model(&model.User{}).
				Where("id = ?", request.RequesterID).
				Updates(map[string]interface{}{
					"vip_level":  upd.VipLevel,
					"vip_amount": &postgres.Decimal{V: upd.VipAmount},
				}).Error
			if err != nil {
				return pkgerrors.Wrap(err, "queries: settle approve vip level")
			}
		}
		return nil
	})
	if errors.Is(err, model.ErrAlreadyProcessed) {
		return request, err
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}
