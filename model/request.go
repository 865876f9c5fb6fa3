package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"github.com/google/uuid"
)

// RequestType the kind of financial request a user can submit
// enum: purchase,upgrade,withdrawal
type RequestType string

const (
	RequestType_Purchase   RequestType = "purchase"
	RequestType_Upgrade    RequestType = "upgrade"
	RequestType_Withdrawal RequestType = "withdrawal"
)

func (t RequestType) String() string {
	return string(t)
}

func (t RequestType) IsValid() bool {
	switch t {
	case RequestType_Purchase, RequestType_Upgrade, RequestType_Withdrawal:
		return true
	default:
		return false
	}
}

// RequestStatus marks the status of a request
// enum: pending,under_review,approved,rejected
type RequestStatus string

const (
	RequestStatus_Pending     RequestStatus = "pending"
	RequestStatus_UnderReview RequestStatus = "under_review"
	RequestStatus_Approved    RequestStatus = "approved"
	RequestStatus_Rejected    RequestStatus = "rejected"
)

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatus_Pending, RequestStatus_UnderReview, RequestStatus_Approved, RequestStatus_Rejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the request reached a final state
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatus_Approved || s == RequestStatus_Rejected
}

// Decision the verdict an admin settles a request with
// enum: approve,reject
type Decision string

const (
	Decision_Approve Decision = "approve"
	Decision_Reject  Decision = "reject"
)

func (d Decision) IsValid() bool {
	switch d {
	case Decision_Approve, Decision_Reject:
		return true
	default:
		return false
	}
}

// Request a financial request moving through dispatch and settlement.
// Requests are never deleted, they are the audit trail.
type Request struct {
	ID string `sql:"type:uuid" gorm:"PRIMARY_KEY"`

	Type        RequestType `sql:"not null;type:request_type_t" json:"type"`
	RequesterID uint64      `gorm:"column:requester_id" json:"requester_id"`
	Requester   User        `gorm:"foreignkey:RequesterID"`

	Amount *postgres.Decimal `sql:"type:decimal(20,2)"`

	// TargetVipLevel is set for purchase and upgrade requests only
	TargetVipLevel *int `gorm:"column:target_vip_level" json:"target_vip_level"`

	Status          RequestStatus `sql:"not null;type:request_status_t;default:'pending'" json:"status"`
	AssignedAdminID *uint64       `gorm:"column:assigned_admin_id" json:"assigned_admin_id"`

	// Notes carries the admin's comment once the request is settled
	Notes string `json:"notes"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at"`
}

// NewRequest create a pending request not yet assigned to any admin
func NewRequest(reqType RequestType, requesterID uint64, amount *decimal.Big, targetVipLevel *int) *Request {
	return &Request{
		ID:             uuid.New().String(),
		Type:           reqType,
		RequesterID:    requesterID,
		Amount:         &postgres.Decimal{V: amount},
		TargetVipLevel: targetVipLevel,
		Status:         RequestStatus_Pending,
	}
}

func (request *Request) GetAmount() *decimal.Big {
	if request.Amount == nil || request.Amount.V == nil {
		return new(decimal.Big)
	}
	return request.Amount.V
}

// SetStatus - change status for a request
func (request *Request) SetStatus(status RequestStatus) *Request {
	request.Status = status
	return request
}

// MarshalJSON - convert the request into a json
func (request *Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":                request.ID,
		"type":              request.Type,
		"requester_id":      request.RequesterID,
		"amount":            request.Amount.V.String(),
		"target_vip_level":  request.TargetVipLevel,
		"status":            request.Status,
		"assigned_admin_id": request.AssignedAdminID,
		"notes":             request.Notes,
		"created_at":        request.CreatedAt,
		"processed_at":      request.ProcessedAt,
	})
}

// RequestList structure
type RequestList struct {
	Requests []Request
	Meta     PagingMeta
}
