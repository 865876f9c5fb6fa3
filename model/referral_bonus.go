package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
)

// BonusSourceType what kind of descendant activity produced the bonus
// enum: purchase,upgrade,task
type BonusSourceType string

const (
	BonusSourceType_Purchase BonusSourceType = "purchase"
	BonusSourceType_Upgrade  BonusSourceType = "upgrade"
	BonusSourceType_Task     BonusSourceType = "task"
)

func (b BonusSourceType) String() string {
	return string(b)
}

func (b BonusSourceType) IsValid() bool {
	switch b {
	case BonusSourceType_Purchase, BonusSourceType_Upgrade, BonusSourceType_Task:
		return true
	default:
		return false
	}
}

// ReferralBonusEntry one bonus credited to an ancestor, append-only
type ReferralBonusEntry struct {
	ID         uint64            `sql:"type:bigint" gorm:"primary_key" json:"id"`
	InviterID  uint64            `gorm:"column:inviter_id" json:"inviter_id"`
	InviteeID  uint64            `gorm:"column:invitee_id" json:"invitee_id"`
	Level      int               `gorm:"column:level" json:"level"`
	Amount     *postgres.Decimal `sql:"type:decimal(20,2)"`
	SourceType BonusSourceType   `sql:"not null;type:bonus_source_type_t" gorm:"column:source_type" json:"source_type"`
	SourceID   string            `gorm:"column:source_id" json:"source_id"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewReferralBonusEntry create an append-only bonus record for one ancestor level
func NewReferralBonusEntry(inviterID, inviteeID uint64, level int, amount *decimal.Big, sourceType BonusSourceType, sourceID string) *ReferralBonusEntry {
	return &ReferralBonusEntry{
		InviterID:  inviterID,
		InviteeID:  inviteeID,
		Level:      level,
		Amount:     &postgres.Decimal{V: amount},
		SourceType: sourceType,
		SourceID:   sourceID,
	}
}

func (entry *ReferralBonusEntry) GetAmount() *decimal.Big {
	if entry.Amount == nil || entry.Amount.V == nil {
		return new(decimal.Big)
	}
	return entry.Amount.V
}

// MarshalJSON - convert the bonus entry into a json
func (entry *ReferralBonusEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":          entry.ID,
		"inviter_id":  entry.InviterID,
		"invitee_id":  entry.InviteeID,
		"level":       entry.Level,
		"amount":      entry.Amount.V.String(),
		"source_type": entry.SourceType,
		"source_id":   entry.SourceID,
		"created_at":  entry.CreatedAt,
	})
}

// ReferralStats per-level invite counts plus the accumulated bonus total
type ReferralStats struct {
	UserID      uint64       `json:"user_id"`
	LevelCounts [4]int64     `json:"level_counts"`
	TotalBonus  *decimal.Big `json:"total_bonus"`
}

func (stats *ReferralStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"user_id":     stats.UserID,
		"level_1":     stats.LevelCounts[0],
		"level_2":     stats.LevelCounts[1],
		"level_3":     stats.LevelCounts[2],
		"level_4":     stats.LevelCounts[3],
		"total_bonus": stats.TotalBonus.String(),
	})
}
