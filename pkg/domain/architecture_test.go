package domain_test

import (
	"testing"

	"samplevault/testutil"
)

// TestDomainImportBoundaries keeps the domain package free of implementation
// packages. Only the ID generator dependency is allowed outside the standard
// library.
func TestDomainImportBoundaries(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain must not import internal packages")
	testutil.AssertNoDirectImports(t, ".", testutil.ThirdPartyOutside("github.com/google/uuid"), "domain third-party allowlist")
	testutil.AssertNoDirectImports(t, ".", testutil.StorageImportForbidden, "storage belongs to infra adapters")
}

func TestDomainHasNoStorageDependencies(t *testing.T) {
	if testing.Short() {
		t.Skip("shells out to go list")
	}
	testutil.AssertNoTransitiveDependency(t, ".", testutil.StorageImportForbidden, "domain must stay storage agnostic")
}
