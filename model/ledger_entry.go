package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"

	"github.com/dawita19/earnmax-sub001/conv"
)

// OperationType tags a ledger entry with the operation that produced it
type OperationType string

const (
	OperationType_Purchase      OperationType = "purchase"
	OperationType_Upgrade       OperationType = "upgrade"
	OperationType_Withdrawal    OperationType = "withdrawal"
	OperationType_ReferralBonus OperationType = "referral_bonus"
	OperationType_TaskEarning   OperationType = "task_earning"
	OperationType_ManualAdjust  OperationType = "manual_adjust"
)

func (o OperationType) String() string {
	return string(o)
}

// LedgerEntry one applied balance delta on a single account.
// Credits and debits are recorded separately so balances can always be
// recomputed as sum(credit - debit).
type LedgerEntry struct {
	ID        uint64            `gorm:"primary_key" json:"id"`
	UserID    uint64            `gorm:"column:user_id" json:"user_id"`
	Debit     *postgres.Decimal `sql:"type:decimal(20,2)"`
	Credit    *postgres.Decimal `sql:"type:decimal(20,2)"`
	RefType   OperationType     `sql:"not null;type:operation_type_t" gorm:"column:ref_type" json:"ref_type"`
	RefID     string            `gorm:"column:ref_id" json:"ref_id"`
	Comment   string            `gorm:"column:comment" json:"comment"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewLedgerEntry create a ledger record for one applied delta. A positive
// amount becomes a credit, a negative amount a debit.
func NewLedgerEntry(userID uint64, amount *decimal.Big, refType OperationType, refID, comment string) *LedgerEntry {
	debit := conv.NewMoney()
	credit := conv.NewMoney()
	if amount.Sign() < 0 {
		debit.Neg(amount)
	} else {
		credit.Copy(amount)
	}
	return &LedgerEntry{
		UserID:  userID,
		Debit:   &postgres.Decimal{V: debit},
		Credit:  &postgres.Decimal{V: credit},
		RefType: refType,
		RefID:   refID,
		Comment: comment,
	}
}

// MarshalJSON JSON encoding of a ledger entry
func (entry LedgerEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":         entry.ID,
		"user_id":    entry.UserID,
		"debit":      conv.Fmt(entry.Debit.V),
		"credit":     conv.Fmt(entry.Credit.V),
		"ref_type":   entry.RefType,
		"ref_id":     entry.RefID,
		"comment":    entry.Comment,
		"created_at": entry.CreatedAt.Unix(),
	})
}
