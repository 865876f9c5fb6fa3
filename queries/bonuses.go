package queries

import (
	"errors"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dawita19/earnmax-sub001/model"
)

// InsertBonusEntry append one referral bonus record
func (repo *Repo) InsertBonusEntry(entry *model.ReferralBonusEntry) error {
	return repo.Conn.Create(entry).Error
}

// BonusEntriesBySource list the bonus entries produced by one settlement or claim
func (repo *Repo) BonusEntriesBySource(sourceID string) ([]*model.ReferralBonusEntry, error) {
	var entries []*model.ReferralBonusEntry
	err := repo.ConnReader.
		Where("source_id = ?", sourceID).
		Order("level asc").
		Find(&entries).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "queries: bonus entries by source")
	}
	return entries, nil
}

// TotalBonusByUser sum of all bonuses ever credited to the given inviter
func (repo *Repo) TotalBonusByUser(userID uint64) (*decimal.Big, error) {
	data := &struct{ Total *postgres.Decimal }{Total: &postgres.Decimal{V: new(decimal.Big)}}

	db := repo.ConnReader.
		Table("referral_bonus_entries").
		Select("sum(amount) as total").
		Where("inviter_id = ?", userID).
		Scan(data)
	if db.Error != nil {
		if errors.Is(db.Error, gorm.ErrRecordNotFound) {
			return new(decimal.Big), nil
		}
		return nil, pkgerrors.Wrap(db.Error, "queries: total bonus by user")
	}
	if data.Total != nil && data.Total.V != nil {
		return data.Total.V, nil
	}
	return new(decimal.Big), nil
}
