package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
)

// SettlementResult the outcome of settling one request. Replaying settle on
// an already terminal request returns the stored result with Replayed set.
type SettlementResult struct {
	RequestID   string        `json:"request_id"`
	RequestType RequestType   `json:"request_type"`
	Status      RequestStatus `json:"status"`
	Notes       string        `json:"notes"`
	NewBalance  *decimal.Big  `json:"new_balance"`
	Bonuses     []*ReferralBonusEntry
	ProcessedAt time.Time `json:"processed_at"`
	Replayed    bool      `json:"replayed"`
}

func (result *SettlementResult) MarshalJSON() ([]byte, error) {
	balance := ""
	if result.NewBalance != nil {
		balance = result.NewBalance.String()
	}
	return json.Marshal(map[string]interface{}{
		"request_id":   result.RequestID,
		"request_type": result.RequestType,
		"status":       result.Status,
		"notes":        result.Notes,
		"new_balance":  balance,
		"bonuses":      result.Bonuses,
		"processed_at": result.ProcessedAt,
		"replayed":     result.Replayed,
	})
}
