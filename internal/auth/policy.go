package auth

import (
	"github.com/gmfinance/compliance-api/internal/domain"
)

// Permission is an action class checked by the access policy
type Permission string

const (
	// PermEntityRead covers reading an entity and its metadata
	PermEntityRead Permission = "entity:read"
	// PermEntityCreate covers registering a new entity
	PermEntityCreate Permission = "entity:create"
	// PermEntityReview covers approving or rejecting a pending entity
	PermEntityReview Permission = "entity:review"
	// PermDocumentRead covers listing, viewing and downloading an entity's documents
	PermDocumentRead Permission = "document:read"
	// PermDocumentWritePermanent covers uploading permanent documents
	PermDocumentWritePermanent Permission = "document:write_permanent"
	// PermDocumentWritePeriodic covers uploading periodic documents
	PermDocumentWritePeriodic Permission = "document:write_periodic"
	// PermManageUsers covers user administration and assignment management
	PermManageUsers Permission = "users:manage"
	// PermCreateAccountant covers the secretary shortcut that creates an
	// accountant and assigns it to one of the secretary's own entities
	PermCreateAccountant Permission = "users:create_accountant"
)

// Relationship carries the facts the policy needs about the caller's
// relation to the resource. OwnsEntity is true when the caller is the
// secretary that created the entity. Assignment is the caller's
// assignment row for the entity, nil when none exists. Period is only
// consulted for periodic document writes.
type Relationship struct {
	OwnsEntity bool
	Assignment *domain.EntityAssignment
	Period     domain.PeriodKind
}

// Allow is the single access decision for every guarded operation.
// It is a pure function of the caller, the permission and the
// relationship facts; callers resolve relationships fresh per request.
func Allow(u *UserContext, perm Permission, rel Relationship) bool {
	if u == nil || !u.IsActive || !u.Role.IsValid() {
		return false
	}

	switch u.Role {
	case domain.RoleSuperAdmin:
		return true

	case domain.RoleCompanySecretary:
		switch perm {
		case PermEntityCreate, PermCreateAccountant:
			return true
		case PermEntityRead, PermDocumentRead, PermDocumentWritePermanent, PermDocumentWritePeriodic:
			return rel.OwnsEntity
		}
		return false

	case domain.RoleAccountant:
		if rel.Assignment == nil {
			return false
		}
		switch perm {
		case PermEntityRead, PermDocumentRead:
			return true
		case PermDocumentWritePeriodic:
			return rel.Assignment.AccessType.Covers(rel.Period)
		}
		return false
	}

	return false
}
