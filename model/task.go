package model

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
)

// DailyTask a claimable task earning tied to the user's VIP level.
// Completed is flipped with an atomic check-and-set so an earning can never
// be claimed twice.
type DailyTask struct {
	ID        uint64            `sql:"type:bigint" gorm:"primary_key" json:"id"`
	UserID    uint64            `gorm:"column:user_id" json:"user_id"`
	TaskDate  time.Time         `gorm:"column:task_date" json:"task_date"`
	Earning   *postgres.Decimal `sql:"type:decimal(20,2)"`
	Completed bool              `gorm:"column:completed" json:"completed"`
	ClaimedAt *time.Time        `gorm:"column:claimed_at" json:"claimed_at"`
	CreatedAt time.Time         `json:"created_at"`
}

func (task *DailyTask) GetEarning() *decimal.Big {
	if task.Earning == nil || task.Earning.V == nil {
		return new(decimal.Big)
	}
	return task.Earning.V
}

// TaskClaimResult what a successful claim credited, bonuses included
type TaskClaimResult struct {
	TaskID   uint64                `json:"task_id"`
	UserID   uint64                `json:"user_id"`
	Earnings *decimal.Big          `json:"earnings"`
	Bonuses  []*ReferralBonusEntry `json:"bonuses"`
}
