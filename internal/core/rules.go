package core

import "samplevault/pkg/domain"

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in custody audit set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewStoreCapacityRule())
	engine.Register(NewUniqueIDRule())
	engine.Register(NewLocationConsistencyRule())
	engine.Register(NewSelectionConsistencyRule())
	return engine
}
