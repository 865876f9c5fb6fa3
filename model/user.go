package model

import (
	"encoding/json"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus defines the list of possible user statuses
type UserStatus string

const (
	// UserStatusActive when the user can create requests and receive bonuses
	UserStatusActive UserStatus = "active"
	// UserStatusBlocked when the user is blocked by an admin
	UserStatusBlocked UserStatus = "blocked"
	// UserStatusDeleted when the account was removed and can no longer be credited
	UserStatusDeleted UserStatus = "deleted"
)

func (u UserStatus) String() string {
	return string(u)
}

func (u UserStatus) IsValid() bool {
	switch u {
	case UserStatusActive, UserStatusBlocked, UserStatusDeleted:
		return true
	default:
		return false
	}
}

// User structure
type User struct {
	ID uint64 `sql:"type:bigint" gorm:"primary_key" json:"id"`

	Email    string `gorm:"unique" json:"email"`
	Password string `gorm:"not null" json:"-"`

	// InviterID is set once at registration and never changes afterwards
	InviterID  *uint64    `gorm:"column:inviter_id" json:"inviter_id"`
	InviteCode string     `gorm:"column:invite_code;unique" json:"invite_code"`
	Status     UserStatus `sql:"not null;type:user_status_t" json:"status"`

	VipLevel  int               `gorm:"column:vip_level" json:"vip_level"`
	VipAmount *postgres.Decimal `sql:"type:decimal(20,2)" gorm:"column:vip_amount"`

	Balance            *postgres.Decimal `sql:"type:decimal(20,2)" gorm:"column:balance"`
	TotalEarnings      *postgres.Decimal `sql:"type:decimal(20,2)" gorm:"column:total_earnings"`
	TotalWithdrawn     *postgres.Decimal `sql:"type:decimal(20,2)" gorm:"column:total_withdrawn"`
	TotalReferralBonus *postgres.Decimal `sql:"type:decimal(20,2)" gorm:"column:total_referral_bonus"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new user structure with a fresh invite code and zeroed balances
func NewUser(email, pass string, inviterID *uint64) *User {
	zero := func() *postgres.Decimal {
		return &postgres.Decimal{V: new(decimal.Big)}
	}
	return &User{
		Email:              email,
		Password:           pass,
		InviterID:          inviterID,
		InviteCode:         randSeq(8),
		Status:             UserStatusActive,
		VipLevel:           0,
		VipAmount:          zero(),
		Balance:            zero(),
		TotalEarnings:      zero(),
		TotalWithdrawn:     zero(),
		TotalReferralBonus: zero(),
	}
}

// EncodePass encode the password
func (user *User) EncodePass() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hash)
	return nil
}

// ValidatePass check if the given password matches the user
func (user *User) ValidatePass(pass string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(pass)) == nil
}

func (user *User) GetBalance() *decimal.Big {
	if user.Balance == nil || user.Balance.V == nil {
		return new(decimal.Big)
	}
	return user.Balance.V
}

func (user *User) GetVipAmount() *decimal.Big {
	if user.VipAmount == nil || user.VipAmount.V == nil {
		return new(decimal.Big)
	}
	return user.VipAmount.V
}

// MarshalJSON - convert the user into a json
func (user *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":                   user.ID,
		"email":                user.Email,
		"inviter_id":           user.InviterID,
		"invite_code":          user.InviteCode,
		"status":               user.Status,
		"vip_level":            user.VipLevel,
		"vip_amount":           user.VipAmount.V.String(),
		"balance":              user.Balance.V.String(),
		"total_earnings":       user.TotalEarnings.V.String(),
		"total_withdrawn":      user.TotalWithdrawn.V.String(),
		"total_referral_bonus": user.TotalReferralBonus.V.String(),
		"created_at":           user.CreatedAt,
	})
}

type RegistrationRequest struct {
	Email      string `form:"email" json:"email" binding:"required"`
	Password   string `form:"password" json:"password" binding:"required"`
	InviteCode string `form:"invite_code" json:"invite_code"`
}
