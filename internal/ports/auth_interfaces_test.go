package ports_test

import (
	"errors"
	"testing"

	mocks "github.com/boycepro/folio/internal/mocks/auth"
	"github.com/boycepro/folio/internal/ports"
)

// This test only verifies that our doubles conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	var _ ports.IdentityProvider = (*mocks.MockIdentityProvider)(nil)
	var _ ports.AuthStateStore = (*mocks.MemoryAuthStateStore)(nil)
	var _ ports.RoleStore = (*mocks.MemoryRoleStore)(nil)
	var _ ports.ContentStore = (*mocks.MemoryContentStore)(nil)

	if !errors.Is(mocks.ErrNotFound, ports.ErrNotFound) {
		t.Fatal("mock not-found error must match ports.ErrNotFound")
	}
}
