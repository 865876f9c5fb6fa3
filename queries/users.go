package queries

import (
	"errors"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dawita19/earnmax-sub001/model"
)

// GetUser load a user by id
func (repo *Repo) GetUser(userID uint64) (*model.User, error) {
	user := &model.User{}
	if err := repo.ConnReader.First(user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(err, "queries: get user")
	}
	return user, nil
}

// GetUserByInviteCode resolve an invite code to its owner
func (repo *Repo) GetUserByInviteCode(code string) (*model.User, error) {
	user := &model.User{}
	if err := repo.ConnReader.First(user, "invite_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(err, "queries: get user by invite code")
	}
	return user, nil
}

// ActiveUsers list users whose balances get preloaded into the ledger engine
func (repo *Repo) ActiveUsers() ([]*model.User, error) {
	var users []*model.User
	if err := repo.Conn.Find(&users, "status = ?", model.UserStatusActive).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "queries: active users")
	}
	return users, nil
}

// CreateUser persist a new account
func (repo *Repo) CreateUser(user *model.User) error {
	return repo.Conn.Create(user).Error
}

// SaveBalance persist one applied delta: the new balance, the matching total
// counter and the append-only ledger entry move in a single transaction.
func (repo *Repo) SaveBalance(userID uint64, balance *decimal.Big, entry *model.LedgerEntry) error {
	return repo.Conn.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"balance": &postgres.Decimal{V: balance},
		}
		switch entry.RefType {
		case model.OperationType_ReferralBonus:
			updates["total_referral_bonus"] = gorm.Expr("total_referral_bonus + ?", entry.Credit)
		case model.OperationType_TaskEarning:
			updates["total_earnings"] = gorm.Expr("total_earnings + ?", entry.Credit)
		}

		res := tx.Model(&model.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return pkgerrors.Wrap(res.Error, "queries: save balance")
		}
		if res.RowsAffected == 0 {
			return model.ErrUserNotFound
		}
		return tx.Create(entry).Error
	})
}

// SetVipLevel unconditional tier update, called only after a successful cost check
func (repo *Repo) SetVipLevel(userID uint64, level int, amount *decimal.Big) error {
	res := repo.Conn.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"vip_level":  level,
		"vip_amount": &postgres.Decimal{V: amount},
	})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "queries: set vip level")
	}
	if res.RowsAffected == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
