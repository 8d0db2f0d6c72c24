package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/mocks"
	mockauth "github.com/boycepro/folio/internal/mocks/auth"
)

func TestAdminService_PromoteKnownAndUnknown(t *testing.T) {
	provider := mockauth.NewMockIdentityProvider()
	provider.AddUser(domainauth.Identity{ID: "uid-owner", Email: "owner@x.io"})
	roles := mockauth.NewMemoryRoleStore()
	svc := NewAdminService(AdminServiceOptions{Identities: provider, Roles: roles})

	results, err := svc.PromoteAdmins(context.Background(), []string{"Owner@X.io", "ghost@x.io"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, AssignmentApplied, results[0].Status)
	assert.Equal(t, "uid-owner", results[0].IdentityID)
	assert.Equal(t, AssignmentUnknownUser, results[1].Status)

	rec, err := roles.GetRole(context.Background(), "uid-owner")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, rec.Role)
	assert.Equal(t, map[string]any{"role": "admin"}, provider.Claims("uid-owner"))

	counts := CountAssignments(results)
	assert.Equal(t, 1, counts[AssignmentApplied])
	assert.Equal(t, 1, counts[AssignmentUnknownUser])
}

func TestAdminService_InvalidEmailAbortsBeforeAnyChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	admin := mocks.NewMockIdentityAdmin(ctrl)
	store := mocks.NewMockRoleStore(ctrl)
	// no calls expected on either mock
	svc := NewAdminService(AdminServiceOptions{Identities: admin, Roles: store})

	_, err := svc.SetRoles(context.Background(), domainauth.RolePro, []string{"ok@x.io", "not-an-email"})
	require.Error(t, err)
	assert.True(t, domainauth.IsInvalidEmail(err))
}

func TestAdminService_RequiresEmails(t *testing.T) {
	svc := NewAdminService(AdminServiceOptions{
		Identities: mockauth.NewMockIdentityProvider(),
		Roles:      mockauth.NewMemoryRoleStore(),
	})
	_, err := svc.SetRoles(context.Background(), domainauth.RolePro, nil)
	assert.Error(t, err)
}

func TestAdminService_RejectsRoleNone(t *testing.T) {
	svc := NewAdminService(AdminServiceOptions{
		Identities: mockauth.NewMockIdentityProvider(),
		Roles:      mockauth.NewMemoryRoleStore(),
	})
	_, err := svc.SetRoles(context.Background(), domainauth.RoleNone, []string{"a@x.io"})
	assert.Error(t, err)
}

func TestAdminService_DeduplicatesEmails(t *testing.T) {
	ctrl := gomock.NewController(t)
	admin := mocks.NewMockIdentityAdmin(ctrl)
	store := mocks.NewMockRoleStore(ctrl)

	admin.EXPECT().GetUserByEmail(gomock.Any(), "a@x.io").Return(domainauth.Identity{ID: "uid-a", Email: "a@x.io"}, nil)
	admin.EXPECT().SetCustomClaims(gomock.Any(), "uid-a", map[string]any{"role": "pro"}).Return(nil)
	store.EXPECT().SetRole(gomock.Any(), "uid-a", "a@x.io", domainauth.RolePro).Return(nil)

	svc := NewAdminService(AdminServiceOptions{Identities: admin, Roles: store})
	results, err := svc.SetRoles(context.Background(), domainauth.RolePro, []string{"a@x.io", " A@x.io "})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, AssignmentApplied, results[0].Status)
}

func TestAdminService_PerUserFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	admin := mocks.NewMockIdentityAdmin(ctrl)
	store := mocks.NewMockRoleStore(ctrl)

	admin.EXPECT().GetUserByEmail(gomock.Any(), "a@x.io").Return(domainauth.Identity{ID: "uid-a"}, nil)
	admin.EXPECT().SetCustomClaims(gomock.Any(), "uid-a", gomock.Any()).Return(errors.New("quota exceeded"))
	admin.EXPECT().GetUserByEmail(gomock.Any(), "b@x.io").Return(domainauth.Identity{ID: "uid-b"}, nil)
	admin.EXPECT().SetCustomClaims(gomock.Any(), "uid-b", gomock.Any()).Return(nil)
	store.EXPECT().SetRole(gomock.Any(), "uid-b", "b@x.io", domainauth.RoleAdmin).Return(nil)

	svc := NewAdminService(AdminServiceOptions{Identities: admin, Roles: store})
	results, err := svc.PromoteAdmins(context.Background(), []string{"a@x.io", "b@x.io"})
	require.NoError(t, err)
	assert.Equal(t, AssignmentFailed, results[0].Status)
	assert.ErrorContains(t, results[0].Err, "quota exceeded")
	assert.Equal(t, AssignmentApplied, results[1].Status)
}

func TestAdminService_LookupFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	admin := mocks.NewMockIdentityAdmin(ctrl)
	store := mocks.NewMockRoleStore(ctrl)
	admin.EXPECT().GetUserByEmail(gomock.Any(), "a@x.io").Return(domainauth.Identity{}, errors.New("timeout"))

	svc := NewAdminService(AdminServiceOptions{Identities: admin, Roles: store})
	results, err := svc.PromoteAdmins(context.Background(), []string{"a@x.io"})
	require.NoError(t, err)
	assert.Equal(t, AssignmentFailed, results[0].Status)
}
