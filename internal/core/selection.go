package core

import (
	"fmt"
	"time"

	"samplevault/internal/logging"
	"samplevault/pkg/domain"
)

// SelectionMode is the state of a SelectionCoordinator.
type SelectionMode int

const (
	ModeNone SelectionMode = iota
	ModeReady
	ModeInventory
	ModeWarehouse
)

func (m SelectionMode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeReady:
		return "ready"
	case ModeInventory:
		return "inventory_selection"
	case ModeWarehouse:
		return "warehouse_selection"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Active reports whether selection input is accepted.
func (m SelectionMode) Active() bool { return m != ModeNone }

// Location returns the location a selecting mode is bound to.
func (m SelectionMode) Location() Location {
	switch m {
	case ModeInventory:
		return InInventory
	case ModeWarehouse:
		return InWarehouse
	default:
		return LocationUnknown
	}
}

func modeFor(loc Location) (SelectionMode, bool) {
	switch loc {
	case InInventory:
		return ModeInventory, true
	case InWarehouse:
		return ModeWarehouse, true
	default:
		return ModeNone, false
	}
}

// SelectionConfig limits a SelectionCoordinator.
type SelectionConfig struct {
	MaxSelection   int
	ToggleDebounce time.Duration
}

// RecordSource lists the records of one location in display order.
type RecordSource interface {
	Location() Location
	All() []SampleRecord
}

// SelectionOption configures a SelectionCoordinator.
type SelectionOption func(*SelectionCoordinator)

// WithSelectionLogger sets the coordinator logger.
func WithSelectionLogger(log logging.Logger) SelectionOption {
	return func(s *SelectionCoordinator) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSelectionMetrics sets the recorder receiving selection size updates.
func WithSelectionMetrics(m MetricsRecorder) SelectionOption {
	return func(s *SelectionCoordinator) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSelectionClock overrides the clock used for toggle debouncing.
func WithSelectionClock(now func() time.Time) SelectionOption {
	return func(s *SelectionCoordinator) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSelectionSources registers the holders used by SelectAll and
// SelectBySourceTool.
func WithSelectionSources(sources ...RecordSource) SelectionOption {
	return func(s *SelectionCoordinator) {
		for _, src := range sources {
			s.sources[src.Location()] = src
		}
	}
}

// SelectionCoordinator tracks a multi-item selection confined to one
// location at a time. It listens to store and transfer events and drops IDs
// whose registry location no longer matches the mode.
type SelectionCoordinator struct {
	cfg      SelectionConfig
	registry *LocationRegistry
	bus      *Bus
	sources  map[Location]RecordSource
	log      logging.Logger
	metrics  MetricsRecorder
	now      func() time.Time

	mode       SelectionMode
	ids        []string
	set        map[string]struct{}
	lastToggle time.Time
	toggling   bool
	unsub      func()
}

// NewSelectionCoordinator constructs a coordinator in ModeNone and subscribes
// it to bus when one is supplied.
func NewSelectionCoordinator(cfg SelectionConfig, registry *LocationRegistry, bus *Bus, opts ...SelectionOption) *SelectionCoordinator {
	if cfg.MaxSelection <= 0 {
		cfg.MaxSelection = DefaultMaxSelection
	}
	s := &SelectionCoordinator{
		cfg:      cfg,
		registry: registry,
		bus:      bus,
		sources:  make(map[Location]RecordSource),
		log:      logging.NoOpLogger{},
		metrics:  NoopMetrics(),
		now:      time.Now,
		set:      make(map[string]struct{}),
		unsub:    func() {},
	}
	for _, opt := range opts {
		opt(s)
	}
	if bus != nil {
		s.unsub = bus.Subscribe(s.onEvent)
	}
	return s
}

// Close detaches the coordinator from the bus.
func (s *SelectionCoordinator) Close() {
	s.unsub()
	s.unsub = func() {}
}

// Mode returns the current state.
func (s *SelectionCoordinator) Mode() SelectionMode { return s.mode }

// Location returns the location the selection is bound to, if any.
func (s *SelectionCoordinator) Location() Location { return s.mode.Location() }

// Count returns the number of selected IDs.
func (s *SelectionCoordinator) Count() int { return len(s.ids) }

// CanSelectMore reports whether another ID fits.
func (s *SelectionCoordinator) CanSelectMore() bool { return len(s.ids) < s.cfg.MaxSelection }

// IsSelected reports whether id is selected.
func (s *SelectionCoordinator) IsSelected(id string) bool {
	_, ok := s.set[id]
	return ok
}

// Selected returns the selected IDs in selection order.
func (s *SelectionCoordinator) Selected() []string {
	return append([]string(nil), s.ids...)
}

// Enter activates selection. It returns false when already active.
func (s *SelectionCoordinator) Enter() bool {
	if s.mode != ModeNone {
		return false
	}
	s.mode = ModeReady
	s.log.Debug("selection entered")
	return true
}

// Exit clears the selection and deactivates it. It is safe from any state and
// always emits an empty SelectionChanged.
func (s *SelectionCoordinator) Exit() {
	s.ids = nil
	s.set = make(map[string]struct{})
	s.mode = ModeNone
	s.toggling = false
	s.emit()
}

// Select adds id, which the caller believes to be at loc.
func (s *SelectionCoordinator) Select(id string, loc Location) error {
	if err := s.admissible(id, loc); err != nil {
		return err
	}
	if s.IsSelected(id) {
		return nil
	}
	if !s.CanSelectMore() {
		return fmt.Errorf("%w: %d selected", domain.ErrSelectionFull, len(s.ids))
	}
	s.add(id, loc)
	s.emit()
	return nil
}

func (s *SelectionCoordinator) admissible(id string, loc Location) error {
	if !s.mode.Active() {
		return domain.ErrNotActive
	}
	target, ok := modeFor(loc)
	if !ok {
		return fmt.Errorf("%w: %s is not selectable", domain.ErrModeIncompatible, loc)
	}
	if s.mode != ModeReady && s.mode != target {
		return fmt.Errorf("%w: selecting in %s, got %s", domain.ErrModeIncompatible, s.mode, loc)
	}
	return s.registry.Check(id, loc)
}

func (s *SelectionCoordinator) add(id string, loc Location) {
	target, _ := modeFor(loc)
	s.mode = target
	s.ids = append(s.ids, id)
	s.set[id] = struct{}{}
}

// Deselect removes id. The last removal returns to ModeReady.
func (s *SelectionCoordinator) Deselect(id string) bool {
	if !s.remove(id) {
		return false
	}
	s.emit()
	return true
}

func (s *SelectionCoordinator) remove(id string) bool {
	if _, ok := s.set[id]; !ok {
		return false
	}
	delete(s.set, id)
	for i, sel := range s.ids {
		if sel == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	if len(s.ids) == 0 && s.mode != ModeNone {
		s.mode = ModeReady
	}
	return true
}

// Toggle flips the selection of id. Calls arriving within the debounce window
// of the previous toggle, or while a toggle is in progress, return
// ErrDebounced and change nothing.
func (s *SelectionCoordinator) Toggle(id string, loc Location) (bool, error) {
	now := s.now()
	if s.toggling || (!s.lastToggle.IsZero() && now.Sub(s.lastToggle) < s.cfg.ToggleDebounce) {
		s.log.Debug("toggle suppressed", "id", id)
		return s.IsSelected(id), domain.ErrDebounced
	}
	s.toggling = true
	s.lastToggle = now
	defer func() { s.toggling = false }()

	if s.IsSelected(id) {
		s.Deselect(id)
		return false, nil
	}
	if err := s.Select(id, loc); err != nil {
		return false, err
	}
	return true, nil
}

// SelectAll selects every record held at loc in display order until the
// selection is full. It returns the number of newly selected IDs.
func (s *SelectionCoordinator) SelectAll(loc Location) (int, error) {
	return s.selectWhere(loc, func(SampleRecord) bool { return true })
}

// SelectBySourceTool selects the records at loc collected with tool.
func (s *SelectionCoordinator) SelectBySourceTool(tool string, loc Location) (int, error) {
	return s.selectWhere(loc, func(rec SampleRecord) bool { return rec.Metadata.SourceTool == tool })
}

func (s *SelectionCoordinator) selectWhere(loc Location, match func(SampleRecord) bool) (int, error) {
	if !s.mode.Active() {
		return 0, domain.ErrNotActive
	}
	src, ok := s.sources[loc]
	if !ok {
		return 0, fmt.Errorf("%w: %s is not selectable", domain.ErrModeIncompatible, loc)
	}
	if target, _ := modeFor(loc); s.mode != ModeReady && s.mode != target {
		return 0, fmt.Errorf("%w: selecting in %s, got %s", domain.ErrModeIncompatible, s.mode, loc)
	}
	added := 0
	var err error
	for _, rec := range src.All() {
		if !match(rec) || s.IsSelected(rec.ID) {
			continue
		}
		if aerr := s.admissible(rec.ID, loc); aerr != nil {
			err = aerr
			break
		}
		if !s.CanSelectMore() {
			err = fmt.Errorf("%w: %d selected", domain.ErrSelectionFull, len(s.ids))
			break
		}
		s.add(rec.ID, loc)
		added++
	}
	if added > 0 {
		s.emit()
	}
	return added, err
}

// Prune drops every selected ID whose registry location differs from the
// mode's location and reports how many were dropped.
func (s *SelectionCoordinator) Prune() int {
	want := s.mode.Location()
	if want == LocationUnknown {
		return 0
	}
	dropped := 0
	for _, id := range s.Selected() {
		if loc, ok := s.registry.Get(id); ok && loc == want {
			continue
		}
		s.remove(id)
		dropped++
	}
	if dropped > 0 {
		s.log.Debug("selection pruned", "dropped", dropped, "remaining", len(s.ids))
		s.emit()
	}
	return dropped
}

func (s *SelectionCoordinator) onEvent(ev Event) {
	switch ev.(type) {
	case StoreChanged, TransferCompleted, BatchCompleted:
		s.Prune()
	}
}

func (s *SelectionCoordinator) emit() {
	s.metrics.SetSelectionSize(len(s.ids))
	if s.bus != nil {
		s.bus.Publish(SelectionChanged{Mode: s.mode, IDs: s.Selected()})
	}
}
