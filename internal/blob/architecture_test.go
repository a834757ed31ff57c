package blob

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestInfraImportBoundaries ensures infra packages are only reached through
// their wrapper: blob backends through internal/blob, snapshot backends
// through internal/core. Everything else depends on the interfaces.
func TestInfraImportBoundaries(t *testing.T) {
	guards := []struct {
		infra   string
		allowed []string
	}{
		{infra: "samplevault/internal/infra/blob", allowed: []string{"samplevault/internal/blob"}},
		{infra: "samplevault/internal/infra/persistence", allowed: []string{"samplevault/internal/core"}},
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "samplevault/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, guard := range guards {
		for _, pkg := range pkgs {
			if isUnder(pkg.PkgPath, guard.infra) || isAllowed(pkg.PkgPath, guard.allowed) {
				continue
			}
			for importPath := range pkg.Imports {
				if isUnder(importPath, guard.infra) {
					pos := filepath.Join(pkg.PkgPath, "...")
					seen[pos+": "+importPath] = struct{}{}
				}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of infra package: %s", v)
		}
		t.Fatalf("found %d forbidden imports of infra packages", len(violations))
	}
}

func isAllowed(pkgPath string, allowed []string) bool {
	for _, prefix := range allowed {
		if isUnder(pkgPath, prefix) {
			return true
		}
	}
	return false
}

// isUnder also matches test variants such as "pkg [pkg.test]" and "pkg_test".
func isUnder(importPath, prefix string) bool {
	importPath = strings.TrimSuffix(strings.Fields(importPath + " ")[0], "_test")
	return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
}
