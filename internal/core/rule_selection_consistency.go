package core

import (
	"context"
	"fmt"

	"samplevault/pkg/domain"
)

// NewSelectionConsistencyRule returns the audit rule checking that every
// selected sample sits in the selection's location.
func NewSelectionConsistencyRule() domain.Rule {
	return selectionConsistencyRule{}
}

type selectionConsistencyRule struct{}

func (selectionConsistencyRule) Name() string { return "selection_consistency" }

func (selectionConsistencyRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	ids := view.SelectedIDs()
	if len(ids) == 0 {
		return res, nil
	}
	want := view.SelectionLocation()
	for _, id := range ids {
		loc, ok := view.RegisteredLocation(id)
		if ok && loc == want {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "selection_consistency",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("selected sample %s is in %s, selection is bound to %s", id, loc, want),
			Location: loc,
			SampleID: id,
		})
	}
	return res, nil
}
