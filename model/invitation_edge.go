package model

import "time"

// MaxReferralDepth the number of ancestor levels bonuses fan out across
const MaxReferralDepth = 4

// InvitationEdge links an invitee to one of its ancestors in the invitation
// tree. Edges are materialized once at registration and never altered, so
// bonus fan-out is an index lookup instead of a recursive chain walk.
type InvitationEdge struct {
	ID        uint64    `sql:"type:bigint" gorm:"primary_key" json:"id"`
	InviterID uint64    `gorm:"column:inviter_id" json:"inviter_id"`
	InviteeID uint64    `gorm:"column:invitee_id" json:"invitee_id"`
	Level     int       `gorm:"column:level" json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

// NewInvitationEdge create an edge at the given ancestor level (1..4)
func NewInvitationEdge(inviterID, inviteeID uint64, level int) *InvitationEdge {
	return &InvitationEdge{
		InviterID: inviterID,
		InviteeID: inviteeID,
		Level:     level,
	}
}
