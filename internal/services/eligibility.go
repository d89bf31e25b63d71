package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/ownervote/internal/models"
	"github.com/abrezinsky/ownervote/internal/repository"
)

// BallotLookup is the ballot query the resolver needs
type BallotLookup interface {
	HasBallot(ctx context.Context, voteID, unitID uuid.UUID) (bool, error)
}

// EligibilityResolver works out through which units a user may vote
type EligibilityResolver struct {
	provider MembershipProvider
	ballots  BallotLookup
}

// NewEligibilityResolver creates a new EligibilityResolver
func NewEligibilityResolver(provider MembershipProvider, ballots BallotLookup) *EligibilityResolver {
	return &EligibilityResolver{provider: provider, ballots: ballots}
}

// Resolve lists the units the user may vote through: units they currently
// own in the vote's building, then units delegated to them for voting when
// the vote allows delegation. A unit reachable both ways is reported once,
// as owned.
func (r *EligibilityResolver) Resolve(ctx context.Context, vote *models.Vote, userID uuid.UUID, now time.Time) ([]models.EligibleUnit, error) {
	owned, err := r.provider.UserOwnedUnits(ctx, vote.BuildingID, userID)
	if err != nil {
		return nil, err
	}

	units := []models.EligibleUnit{}
	seen := make(map[uuid.UUID]bool)
	for _, u := range owned {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		units = append(units, models.EligibleUnit{
			UnitID:         u.ID,
			Designation:    u.Designation,
			OwnershipShare: u.VoteWeight(),
			IsOwner:        true,
		})
	}

	if vote.AllowDelegation {
		delegations, err := r.provider.ActiveDelegations(ctx, userID, now)
		if err != nil {
			return nil, err
		}
		for _, d := range delegations {
			if seen[d.UnitID] || !d.VotingActiveAt(now) {
				continue
			}
			unit, err := r.provider.GetUnit(ctx, d.UnitID)
			if stderrors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if unit.BuildingID != vote.BuildingID {
				continue
			}
			seen[d.UnitID] = true
			delegationID := d.ID
			units = append(units, models.EligibleUnit{
				UnitID:         unit.ID,
				Designation:    unit.Designation,
				OwnershipShare: unit.VoteWeight(),
				IsDelegated:    true,
				DelegationID:   &delegationID,
			})
		}
	}

	for i := range units {
		voted, err := r.ballots.HasBallot(ctx, vote.ID, units[i].UnitID)
		if err != nil {
			return nil, err
		}
		units[i].AlreadyVoted = voted
	}
	return units, nil
}

// Check answers whether the user can vote now and through which units
func (r *EligibilityResolver) Check(ctx context.Context, vote *models.Vote, userID uuid.UUID, now time.Time) (*models.Eligibility, error) {
	units, err := r.Resolve(ctx, vote, userID, now)
	if err != nil {
		return nil, err
	}

	result := &models.Eligibility{VoteID: vote.ID, UserID: userID, EligibleUnits: units}
	switch {
	case !vote.AcceptingBallots(now):
		result.Reason = ReasonNotAccepting
	case len(units) == 0:
		result.Reason = ReasonNotEligible
	default:
		for _, u := range units {
			if !u.AlreadyVoted {
				result.CanVote = true
				return result, nil
			}
		}
		result.Reason = ReasonAllVoted
	}
	return result, nil
}

// EligibleCount is the number of units in the building with a current owner
func (r *EligibilityResolver) EligibleCount(ctx context.Context, vote *models.Vote) (int, error) {
	units, err := r.provider.OwnerUnits(ctx, vote.BuildingID)
	if err != nil {
		return 0, err
	}
	return len(units), nil
}
