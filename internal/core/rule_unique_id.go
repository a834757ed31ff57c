package core

import (
	"context"
	"fmt"

	"samplevault/pkg/domain"
)

// NewUniqueIDRule returns the audit rule rejecting a sample ID held in more
// than one place.
func NewUniqueIDRule() domain.Rule {
	return uniqueIDRule{}
}

type uniqueIDRule struct{}

func (uniqueIDRule) Name() string { return "unique_id" }

func (uniqueIDRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	seen := make(map[string]Location)
	res := domain.Result{}
	for _, loc := range []Location{InWorld, InInventory, InWarehouse} {
		for _, rec := range view.Records(loc) {
			if first, dup := seen[rec.ID]; dup {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "unique_id",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("sample %s held in %s and %s", rec.ID, first, loc),
					Location: loc,
					SampleID: rec.ID,
				})
				continue
			}
			seen[rec.ID] = loc
		}
	}
	return res, nil
}
