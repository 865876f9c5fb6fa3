package queries

import (
	"errors"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dawita19/earnmax-sub001/model"
)

// GetTask load a daily task by id
func (repo *Repo) GetTask(taskID uint64) (*model.DailyTask, error) {
	task := &model.DailyTask{}
	if err := repo.ConnReader.First(task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrTaskNotFound
		}
		return nil, pkgerrors.Wrap(err, "queries: get task")
	}
	return task, nil
}

// UserTasks list a user's tasks for a given date
func (repo *Repo) UserTasks(userID uint64, date time.Time) ([]model.DailyTask, error) {
	var tasks []model.DailyTask
	err := repo.ConnReader.
		Where("user_id = ?", userID).
		Where("task_date = ?", date.Truncate(24*time.Hour)).
		Order("id asc").
		Find(&tasks).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "queries: user tasks")
	}
	return tasks, nil
}

// ClaimTask flip a task to completed exactly once and credit the earning in
// the same transaction: the completed flag, the new balance, the earnings
// counter and the ledger entry commit together, so a failed credit leaves the
// task claimable. The row lock plus the completed check make a double claim
// lose with ErrTaskAlreadyClaimed instead of crediting twice.
func (repo *Repo) ClaimTask(taskID, userID uint64, at time.Time, newBalance *decimal.Big, entry *model.LedgerEntry) (*model.DailyTask, error) {
	task := &model.DailyTask{}
	err := repo.Conn.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(task, "id = ? and user_id = ?", taskID, userID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrTaskNotFound
			}
			return pkgerrors.Wrap(err, "queries: claim task")
		}
		if task.Completed {
			return model.ErrTaskAlreadyClaimed
		}
		task.Completed = true
		task.ClaimedAt = &at
		if err := tx.Save(task).Error; err != nil {
			return pkgerrors.Wrap(err, "queries: claim task")
		}

		res := tx.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"balance":        &postgres.Decimal{V: newBalance},
			"total_earnings": gorm.Expr("total_earnings + ?", entry.Credit),
		})
		if res.Error != nil {
			return pkgerrors.Wrap(res.Error, "queries: claim task")
		}
		if res.RowsAffected == 0 {
			return model.ErrUserNotFound
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GenerateDailyTasks insert today's task for every active user on a paid tier
// that does not have one yet. Earnings are frozen at generation time from the
// tier configuration.
func (repo *Repo) GenerateDailyTasks(date time.Time, earnings map[int]*postgres.Decimal) (int64, error) {
	day := date.Truncate(24 * time.Hour)
	var created int64
	err := repo.Conn.Transaction(func(tx *gorm.DB) error {
		var users []*model.User
		err := tx.
			Where("status = ?", model.UserStatusActive).
			Where("vip_level > 0").
			Find(&users).Error
		if err != nil {
			return pkgerrors.Wrap(err, "queries: generate daily tasks")
		}
		for _, user := range users {
			earning, ok := earnings[user.VipLevel]
			if !ok {
				continue
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.DailyTask{
				UserID:   user.ID,
				TaskDate: day,
				Earning:  earning,
			})
			if res.Error != nil {
				return pkgerrors.Wrap(res.Error, "queries: generate daily tasks")
			}
			created += res.RowsAffected
		}
		return nil
	})
	return created, err
}
