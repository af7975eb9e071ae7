package auth_test

import (
	"testing"

	"github.com/gmfinance/compliance-api/internal/auth"
	"github.com/gmfinance/compliance-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func userWithRole(role domain.Role) *auth.UserContext {
	return &auth.UserContext{Role: role, IsActive: true}
}

func assignmentWith(access domain.AccessType) *domain.EntityAssignment {
	return &domain.EntityAssignment{AccessType: access}
}

func TestAllow_SuperAdmin(t *testing.T) {
	admin := userWithRole(domain.RoleSuperAdmin)

	perms := []auth.Permission{
		auth.PermEntityRead,
		auth.PermEntityCreate,
		auth.PermEntityReview,
		auth.PermDocumentRead,
		auth.PermDocumentWritePermanent,
		auth.PermDocumentWritePeriodic,
		auth.PermManageUsers,
		auth.PermCreateAccountant,
	}
	for _, perm := range perms {
		assert.True(t, auth.Allow(admin, perm, auth.Relationship{}), "admin should hold %s", perm)
	}
}

func TestAllow_Secretary(t *testing.T) {
	secretary := userWithRole(domain.RoleCompanySecretary)
	owns := auth.Relationship{OwnsEntity: true}
	foreign := auth.Relationship{OwnsEntity: false}

	tests := []struct {
		name string
		perm auth.Permission
		rel  auth.Relationship
		want bool
	}{
		{"can create entities", auth.PermEntityCreate, foreign, true},
		{"can create accountants", auth.PermCreateAccountant, foreign, true},
		{"reads own entity", auth.PermEntityRead, owns, true},
		{"cannot read foreign entity", auth.PermEntityRead, foreign, false},
		{"writes permanent to own entity", auth.PermDocumentWritePermanent, owns, true},
		{"writes periodic to own entity", auth.PermDocumentWritePeriodic, owns, true},
		{"cannot write to foreign entity", auth.PermDocumentWritePeriodic, foreign, false},
		{"never reviews entities", auth.PermEntityReview, owns, false},
		{"never manages users", auth.PermManageUsers, owns, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.Allow(secretary, tt.perm, tt.rel))
		})
	}
}

func TestAllow_Accountant(t *testing.T) {
	accountant := userWithRole(domain.RoleAccountant)

	tests := []struct {
		name string
		perm auth.Permission
		rel  auth.Relationship
		want bool
	}{
		{"reads assigned entity", auth.PermEntityRead, auth.Relationship{Assignment: assignmentWith(domain.AccessAll)}, true},
		{"reads assigned documents", auth.PermDocumentRead, auth.Relationship{Assignment: assignmentWith(domain.AccessMonthly)}, true},
		{"no assignment means no access", auth.PermEntityRead, auth.Relationship{}, false},
		{"periodic write within access scope", auth.PermDocumentWritePeriodic, auth.Relationship{Assignment: assignmentWith(domain.AccessMonthly), Period: domain.PeriodMonthly}, true},
		{"periodic write outside access scope", auth.PermDocumentWritePeriodic, auth.Relationship{Assignment: assignmentWith(domain.AccessMonthly), Period: domain.PeriodQuarterly}, false},
		{"all access covers every period", auth.PermDocumentWritePeriodic, auth.Relationship{Assignment: assignmentWith(domain.AccessAll), Period: domain.PeriodYearly}, true},
		{"never writes permanent documents", auth.PermDocumentWritePermanent, auth.Relationship{Assignment: assignmentWith(domain.AccessAll)}, false},
		{"never creates entities", auth.PermEntityCreate, auth.Relationship{Assignment: assignmentWith(domain.AccessAll)}, false},
		{"never reviews entities", auth.PermEntityReview, auth.Relationship{Assignment: assignmentWith(domain.AccessAll)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.Allow(accountant, tt.perm, tt.rel))
		})
	}
}

func TestAllow_InactiveOrMissingUser(t *testing.T) {
	inactive := &auth.UserContext{Role: domain.RoleSuperAdmin, IsActive: false}
	assert.False(t, auth.Allow(inactive, auth.PermEntityRead, auth.Relationship{}))

	assert.False(t, auth.Allow(nil, auth.PermEntityRead, auth.Relationship{}))

	unknown := &auth.UserContext{Role: domain.Role("intern"), IsActive: true}
	assert.False(t, auth.Allow(unknown, auth.PermEntityRead, auth.Relationship{}))
}
