package tree

import (
	"github.com/rs/zerolog/log"

	"github.com/dawita19/earnmax-sub001/model"
)

// Store persistence for the materialized invitation edges
type Store interface {
	AncestorsOf(userID uint64) ([]model.InvitationEdge, error)
	InsertEdges(edges []*model.InvitationEdge) error
}

// Index materializes and looks up ancestor chains. Edges are written once at
// registration and never altered, so lookups at bonus time are a single
// indexed read instead of a recursive chain walk.
type Index struct {
	store Store
}

func NewIndex(store Store) *Index {
	return &Index{store: store}
}

// RegisterEdges materialize the new user's ancestor chain. The inviter's own
// chain is already materialized (≤3 usable entries), so the new user's edges
// are the inviter at level 1 plus each of the inviter's ancestors shifted one
// level down, capped at four levels.
func (index *Index) RegisterEdges(newUserID uint64, inviterID *uint64) error {
	if inviterID == nil {
		return nil
	}

	chain, err := index.store.AncestorsOf(*inviterID)
	if err != nil {
		return err
	}

	edges := make([]*model.InvitationEdge, 0, model.MaxReferralDepth)
	edges = append(edges, model.NewInvitationEdge(*inviterID, newUserID, 1))
	for _, ancestor := range chain {
		level := ancestor.Level + 1
		if level > model.MaxReferralDepth {
			break
		}
		edges = append(edges, model.NewInvitationEdge(ancestor.InviterID, newUserID, level))
	}

	if err := index.store.InsertEdges(edges); err != nil {
		log.Error().Err(err).
			Str("section", "tree").
			Uint64("user_id", newUserID).
			Uint64("inviter_id", *inviterID).
			Msg("Unable to materialize invitation edges")
		return err
	}
	return nil
}

// AncestorsOf the ordered ancestor chain of a user, closest first, length ≤4
func (index *Index) AncestorsOf(userID uint64) ([]model.InvitationEdge, error) {
	return index.store.AncestorsOf(userID)
}
