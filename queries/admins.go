package queries

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/dawita19/earnmax-sub001/model"
)

// Admins list the full roster ordered by id
func (repo *Repo) Admins() ([]*model.Admin, error) {
	var admins []*model.Admin
	if err := repo.Conn.Order("id asc").Find(&admins).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "queries: admins")
	}
	return admins, nil
}

// SetAdminActive flip the active flag of an admin
func (repo *Repo) SetAdminActive(adminID uint64, active bool) error {
	res := repo.Conn.Model(&model.Admin{}).Where("id = ?", adminID).Update("active", active)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "queries: set admin active")
	}
	return nil
}

// RecomputePendingCounts resync every admin's pending_count from the live
// count of non-terminal requests assigned to it. Run at startup so restart
// or failover never desynchronizes dispatch fairness.
func (repo *Repo) RecomputePendingCounts() error {
	err := repo.Conn.Exec(`
		UPDATE admins SET pending_count = (
			SELECT count(*) FROM requests
			WHERE requests.assigned_admin_id = admins.id
			AND requests.status = ?
		)`, model.RequestStatus_UnderReview).Error
	return pkgerrors.Wrap(err, "queries: recompute pending counts")
}
