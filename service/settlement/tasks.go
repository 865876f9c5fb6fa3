package settlement

import (
	"strconv"
	"time"

	"github.com/ericlagergren/decimal"

	"github.com/dawita19/earnmax-sub001/conv"
	"github.com/dawita19/earnmax-sub001/model"
)

// ClaimTask settle a completed daily task. The claim flip, the credited
// earning and the ledger entry commit in one transaction under the user's
// account lock, so a failed credit leaves the task claimable for a retry.
// Referral bonuses fan out on the earning amount like any other source.
func (e *Engine) ClaimTask(taskID, userID uint64) (*model.TaskClaimResult, error) {
	task, err := e.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, model.ErrTaskNotFound
	}
	if task.Completed {
		return nil, model.ErrTaskAlreadyClaimed
	}

	earning := task.GetEarning()
	sourceID := strconv.FormatUint(task.ID, 10)

	var claimed *model.DailyTask
	err = e.ledger.Mutate(userID, func(current *decimal.Big) (*decimal.Big, error) {
		newBalance := conv.RoundToMoney(conv.NewMoney().Add(current, earning))
		entry := model.NewLedgerEntry(userID, earning, model.OperationType_TaskEarning, sourceID, "daily task earning")
		committed, err := e.store.ClaimTask(taskID, userID, time.Now(), newBalance, entry)
		if err != nil {
			return nil, err
		}
		claimed = committed
		return newBalance, nil
	})
	if err != nil {
		return nil, err
	}

	result := &model.TaskClaimResult{
		TaskID:   claimed.ID,
		UserID:   userID,
		Earnings: earning,
	}
	if earning.Sign() > 0 {
		result.Bonuses = e.fanOut(userID, earning, model.BonusSourceType_Task, sourceID)
	}
	e.publish("task_claimed", result)
	return result, nil
}
