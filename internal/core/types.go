package core

import "samplevault/pkg/domain"

type (
	Location           = domain.Location
	SampleRecord       = domain.SampleRecord
	Vec3               = domain.Vec3
	Severity           = domain.Severity
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	WarehouseSnapshot  = domain.WarehouseSnapshot
	SnapshotStore      = domain.SnapshotStore
	TransferError      = domain.TransferError
)

const (
	LocationUnknown = domain.LocationUnknown
	InWorld         = domain.InWorld
	InInventory     = domain.InInventory
	InWarehouse     = domain.InWarehouse
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)
