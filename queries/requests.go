package queries

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dawita19/earnmax-sub001/model"
)

// CreateRequest persist a new pending request
func (repo *Repo) CreateRequest(request *model.Request) error {
	return repo.Conn.Create(request).Error
}

// GetRequest load a request by id
func (repo *Repo) GetRequest(requestID string) (*model.Request, error) {
	request := &model.Request{}
	if err := repo.ConnReader.First(request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrRequestNotFound
		}
		return nil, pkgerrors.Wrap(err, "queries: get request")
	}
	return request, nil
}

// AdminQueue list the requests currently under review by the given admin
func (repo *Repo) AdminQueue(adminID uint64) ([]model.Request, error) {
	var requests []model.Request
	err := repo.ConnReader.
		Where("assigned_admin_id = ?", adminID).
		Where("status = ?", model.RequestStatus_UnderReview).
		Order("created_at asc").
		Find(&requests).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "queries: admin queue")
	}
	return requests, nil
}

// UserRequests list a user's requests, newest first
func (repo *Repo) UserRequests(userID uint64, limit int) ([]model.Request, error) {
	var requests []model.Request
	err := repo.ConnReader.
		Where("requester_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "queries: user requests")
	}
	return requests, nil
}

// UnassignedPending list requests still waiting for an admin, oldest first
func (repo *Repo) UnassignedPending() ([]*model.Request, error) {
	var requests []*model.Request
	err := repo.Conn.
		Where("status = ?", model.RequestStatus_Pending).
		Where("assigned_admin_id is null").
		Order("created_at asc").
		Find(&requests).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "queries: unassigned pending")
	}
	return requests, nil
}

// AssignRequest move a pending request under review by the given admin and
// bump the admin's pending counter, all in one transaction. The status guard
// makes concurrent dispatches of the same request lose cleanly.
func (repo *Repo) AssignRequest(requestID string, adminID uint64) error {
	return repo.Conn.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Request{}).
			Where("id = ?", requestID).
			Where("status = ?", model.RequestStatus_Pending).
			Updates(map[string]interface{}{
				"status":            model.RequestStatus_UnderReview,
				"assigned_admin_id": adminID,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(res.Error, "queries: assign request")
		}
		if res.RowsAffected == 0 {
			return model.ErrRequestNotPending
		}
		return tx.Model(&model.Admin{}).
			Where("id = ?", adminID).
			Update("pending_count", gorm.Expr("pending_count + 1")).Error
	})
}

// RevertAssignments push every request under review by the given admin back
// to pending so the reconciliation pass can redistribute them.
func (repo *Repo) RevertAssignments(adminID uint64) (int64, error) {
	var reverted int64
	err := repo.Conn.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Request{}).
			Where("assigned_admin_id = ?", adminID).
			Where("status = ?", model.RequestStatus_UnderReview).
			Updates(map[string]interface{}{
				"status":            model.RequestStatus_Pending,
				"assigned_admin_id": nil,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(res.Error, "queries: revert assignments")
		}
		reverted = res.RowsAffected
		return tx.Model(&model.Admin{}).
			Where("id = ?", adminID).
			Update("pending_count", 0).Error
	})
	return reverted, err
}

// CancelRequest reject a request on behalf of its owner, only while it is
// still pending with no admin assigned.
func (repo *Repo) CancelRequest(requestID string, userID uint64) (*model.Request, error) {
	res := repo.Conn.Model(&model.Request{}).
		Where("id = ?", requestID).
		Where("requester_id = ?", userID).
		Where("status = ?", model.RequestStatus_Pending).
		Updates(map[string]interface{}{
			"status":       model.RequestStatus_Rejected,
			"notes":        "cancelled by requester",
			"processed_at": gorm.Expr("now()"),
		})
	if res.Error != nil {
		return nil, pkgerrors.Wrap(res.Error, "queries: cancel request")
	}
	if res.RowsAffected == 0 {
		return nil, model.ErrRequestNotPending
	}
	return repo.GetRequest(requestID)
}
