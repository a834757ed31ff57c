package core

import (
	"context"
	"fmt"

	"samplevault/pkg/domain"
)

// NewStoreCapacityRule returns the audit rule enforcing count <= capacity on
// every bounded holder.
func NewStoreCapacityRule() domain.Rule {
	return storeCapacityRule{}
}

type storeCapacityRule struct{}

func (storeCapacityRule) Name() string { return "store_capacity" }

func (storeCapacityRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for _, loc := range []Location{InInventory, InWarehouse} {
		capacity, bounded := view.Capacity(loc)
		if !bounded {
			continue
		}
		count := len(view.Records(loc))
		if count > capacity {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "store_capacity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s over capacity: %d/%d samples", loc, count, capacity),
				Location: loc,
			})
		}
	}
	return res, nil
}
