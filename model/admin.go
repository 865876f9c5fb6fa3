package model

import (
	"encoding/json"
	"time"
)

// AdminLevel marks the review tier of an administrator
// enum: high,low
type AdminLevel string

const (
	AdminLevel_High AdminLevel = "high"
	AdminLevel_Low  AdminLevel = "low"
)

func (a AdminLevel) String() string {
	return string(a)
}

func (a AdminLevel) IsValid() bool {
	switch a {
	case AdminLevel_High, AdminLevel_Low:
		return true
	default:
		return false
	}
}

// Admin a reviewing administrator that pending requests get dispatched to
type Admin struct {
	ID     uint64     `sql:"type:bigint" gorm:"primary_key" json:"id"`
	Email  string     `gorm:"unique" json:"email"`
	Active bool       `gorm:"column:active" json:"active"`
	Level  AdminLevel `sql:"not null;type:admin_level_t" json:"level"`

	// PendingCount mirrors the live count of non-terminal requests assigned
	// to this admin. The authoritative value is recomputed from the requests
	// table at startup.
	PendingCount int `gorm:"column:pending_count" json:"pending_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarshalJSON - convert the admin into a json
func (admin *Admin) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":            admin.ID,
		"email":         admin.Email,
		"active":        admin.Active,
		"level":         admin.Level,
		"pending_count": admin.PendingCount,
		"created_at":    admin.CreatedAt,
	})
}
