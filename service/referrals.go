package service

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dawita19/earnmax-sub001/model"
)

// Register create an account, resolving the invite code to an inviter and
// materializing the ancestor chain. An unknown code registers the account
// without an inviter instead of failing.
func (service *Service) Register(req *model.RegistrationRequest) (*model.User, error) {
	var inviterID *uint64
	if req.InviteCode != "" {
		inviter, err := service.repo.GetUserByInviteCode(req.InviteCode)
		switch {
		case err == nil:
			inviterID = &inviter.ID
		case errors.Is(err, model.ErrUserNotFound):
			log.Warn().Str("section", "service").
				Str("invite_code", req.InviteCode).
				Str("email", req.Email).
				Msg("Unknown invite code, registering without inviter")
		default:
			return nil, err
		}
	}

	user := model.NewUser(req.Email, req.Password, inviterID)
	if err := user.EncodePass(); err != nil {
		return nil, err
	}
	if err := service.repo.CreateUser(user); err != nil {
		return nil, err
	}

	if err := service.tree.RegisterEdges(user.ID, inviterID); err != nil {
		// the account row is already committed; losing the edges only costs
		// future bonuses, so the registration still succeeds
		log.Error().Err(err).Str("section", "service").
			Uint64("user_id", user.ID).
			Msg("Unable to materialize invitation edges")
	}
	return user, nil
}

// GetReferralStats per-level invite counts plus the accumulated bonus total
func (service *Service) GetReferralStats(userID uint64) (*model.ReferralStats, error) {
	if _, err := service.repo.GetUser(userID); err != nil {
		return nil, err
	}
	counts, err := service.repo.CountInviteesByLevel(userID)
	if err != nil {
		return nil, err
	}
	total, err := service.repo.TotalBonusByUser(userID)
	if err != nil {
		return nil, err
	}
	return &model.ReferralStats{
		UserID:      userID,
		LevelCounts: counts,
		TotalBonus:  total,
	}, nil
}
