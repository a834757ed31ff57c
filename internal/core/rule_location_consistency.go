package core

import (
	"context"
	"fmt"

	"samplevault/pkg/domain"
)

// NewLocationConsistencyRule returns the audit rule checking that every held
// record carries its holder's location and matches the registry, and that the
// registry tracks nothing unheld.
func NewLocationConsistencyRule() domain.Rule {
	return locationConsistencyRule{}
}

type locationConsistencyRule struct{}

func (locationConsistencyRule) Name() string { return "location_consistency" }

func (locationConsistencyRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	held := make(map[string]struct{})
	violate := func(loc Location, id, msg string) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "location_consistency",
			Severity: domain.SeverityBlock,
			Message:  msg,
			Location: loc,
			SampleID: id,
		})
	}
	for _, loc := range []Location{InWorld, InInventory, InWarehouse} {
		for _, rec := range view.Records(loc) {
			held[rec.ID] = struct{}{}
			if rec.Location != loc {
				violate(loc, rec.ID, fmt.Sprintf("sample %s held in %s but stamped %s", rec.ID, loc, rec.Location))
			}
			registered, ok := view.RegisteredLocation(rec.ID)
			switch {
			case !ok:
				violate(loc, rec.ID, fmt.Sprintf("sample %s held in %s but not registered", rec.ID, loc))
			case registered != loc:
				violate(loc, rec.ID, fmt.Sprintf("sample %s held in %s but registered in %s", rec.ID, loc, registered))
			}
		}
	}
	for _, id := range view.RegisteredIDs() {
		if _, ok := held[id]; !ok {
			loc, _ := view.RegisteredLocation(id)
			violate(loc, id, fmt.Sprintf("sample %s registered in %s but not held", id, loc))
		}
	}
	return res, nil
}
