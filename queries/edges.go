package queries

import (
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dawita19/earnmax-sub001/model"
)

// AncestorsOf load the materialized ancestor chain of a user, closest first
func (repo *Repo) AncestorsOf(userID uint64) ([]model.InvitationEdge, error) {
	var edges []model.InvitationEdge
	err := repo.ConnReader.
		Where("invitee_id = ?", userID).
		Order("level asc").
		Limit(model.MaxReferralDepth).
		Find(&edges).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "queries: ancestors of")
	}
	return edges, nil
}

// InsertEdges persist the edges materialized at registration in one batch
func (repo *Repo) InsertEdges(edges []*model.InvitationEdge) error {
	if len(edges) == 0 {
		return nil
	}
	return repo.Conn.Transaction(func(tx *gorm.DB) error {
		for _, edge := range edges {
			if err := tx.Create(edge).Error; err != nil {
				return pkgerrors.Wrap(err, "queries: insert edges")
			}
		}
		return nil
	})
}

// CountInviteesByLevel per-level direct and indirect invite counts
func (repo *Repo) CountInviteesByLevel(userID uint64) ([4]int64, error) {
	var counts [4]int64
	rows, err := repo.ConnReader.
		Table("invitation_edges").
		Select("level, count(*) as total").
		Where("inviter_id = ?", userID).
		Group("level").
		Rows()
	if err != nil {
		return counts, pkgerrors.Wrap(err, "queries: count invitees")
	}
	defer rows.Close()
	for rows.Next() {
		var level int
		var total int64
		if err := rows.Scan(&level, &total); err != nil {
			return counts, pkgerrors.Wrap(err, "queries: count invitees")
		}
		if level >= 1 && level <= model.MaxReferralDepth {
			counts[level-1] = total
		}
	}
	return counts, rows.Err()
}
