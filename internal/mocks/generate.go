// Package mocks provides gomock mocks for the folio ports.
//
// The mocks are generated with go.uber.org/mock (mockgen). To regenerate them
// after an interface change, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	roles := mocks.NewMockRoleStore(ctrl)
//	roles.EXPECT().GetRole(gomock.Any(), "uid-1").Return(rec, nil)
package mocks

// RoleStore: GetRole, ProvisionDefaultRole, SetRole
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=role_store_mock.go github.com/boycepro/folio/internal/ports RoleStore

// ContentStore: GetPage, GetSection, SaveSection
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=content_store_mock.go github.com/boycepro/folio/internal/ports ContentStore

// IdentityAdmin: GetUserByEmail, SetCustomClaims
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_admin_mock.go github.com/boycepro/folio/internal/ports IdentityAdmin
