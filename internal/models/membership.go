package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Unit is an ownable apartment or premises in a building
type Unit struct {
	ID             uuid.UUID           `json:"id"`
	BuildingID     uuid.UUID           `json:"building_id"`
	Designation    string              `json:"designation"`
	OwnershipShare decimal.NullDecimal `json:"ownership_share"`
}

// VoteWeight is the unit's ownership share, or 1 when the share is unknown
func (u Unit) VoteWeight() decimal.Decimal {
	if u.OwnershipShare.Valid {
		return u.OwnershipShare.Decimal
	}
	return decimal.NewFromInt(1)
}

// ResidentType distinguishes owners from other occupants
type ResidentType string

const (
	ResidentOwner  ResidentType = "owner"
	ResidentTenant ResidentType = "tenant"
	ResidentMember ResidentType = "member"
)

// Resident links a user to a unit
type Resident struct {
	UnitID      uuid.UUID    `json:"unit_id"`
	UserID      uuid.UUID    `json:"user_id"`
	Type        ResidentType `json:"resident_type"`
	MoveInDate  time.Time    `json:"move_in_date"`
	MoveOutDate *time.Time   `json:"move_out_date,omitempty"`
}

// DelegationScope limits what a delegate may do on the owner's behalf
type DelegationScope string

const (
	DelegationScopeVoting    DelegationScope = "voting"
	DelegationScopeFull      DelegationScope = "full"
	DelegationScopeDocuments DelegationScope = "documents"
	DelegationScopeFinancial DelegationScope = "financial"
)

// CoversVoting reports whether the scope includes casting ballots
func (s DelegationScope) CoversVoting() bool {
	return s == DelegationScopeVoting || s == DelegationScopeFull
}

// DelegationStatus is the state of a delegation
type DelegationStatus string

const (
	DelegationPending  DelegationStatus = "pending"
	DelegationActive   DelegationStatus = "active"
	DelegationRevoked  DelegationStatus = "revoked"
	DelegationExpired  DelegationStatus = "expired"
	DelegationDeclined DelegationStatus = "declined"
)

// Delegation grants a delegate user rights over an owner's unit
type Delegation struct {
	ID             uuid.UUID        `json:"id"`
	OwnerUserID    uuid.UUID        `json:"owner_user_id"`
	DelegateUserID uuid.UUID        `json:"delegate_user_id"`
	UnitID         uuid.UUID        `json:"unit_id"`
	Scope          DelegationScope  `json:"scope"`
	Status         DelegationStatus `json:"status"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// VotingActiveAt reports whether the delegation allows voting at now
func (d Delegation) VotingActiveAt(now time.Time) bool {
	if d.Status != DelegationActive || !d.Scope.CoversVoting() {
		return false
	}
	return d.ExpiresAt == nil || d.ExpiresAt.After(now)
}
