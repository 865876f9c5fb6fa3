package service

import (
	"time"

	"github.com/ericlagergren/decimal/sql/postgres"

	"github.com/dawita19/earnmax-sub001/conv"
	"github.com/dawita19/earnmax-sub001/model"
)

// CompleteTask claim a daily task: credit the earning and fan out referral
// bonuses on it
func (service *Service) CompleteTask(userID, taskID uint64) (*model.TaskClaimResult, error) {
	return service.settle.ClaimTask(taskID, userID)
}

// UserTasks today's tasks for a user
func (service *Service) UserTasks(userID uint64) ([]model.DailyTask, error) {
	return service.repo.UserTasks(userID, time.Now())
}

// GenerateDailyTasks create today's task for every active user on a paid tier,
// earnings frozen from the tier configuration
func (service *Service) GenerateDailyTasks() (int64, error) {
	earnings := map[int]*postgres.Decimal{}
	for _, tier := range service.cfg.VipLevels {
		earnings[tier.Level] = &postgres.Decimal{V: conv.NewMoneyFromFloat(tier.TaskEarning)}
	}
	return service.repo.GenerateDailyTasks(time.Now(), earnings)
}
