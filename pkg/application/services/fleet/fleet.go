package fleet

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// ErrMachineNotInFleet is returned when scheduling on a machine the fleet does not own
var ErrMachineNotInFleet = errors.New("machine not in fleet")

// Machine is a fleet member with its mutable booking state
type Machine struct {
	Spec           entities.MachineSpec
	NextAvailable  time.Time
	ScheduledBags  int64
	ScheduledHours float64
	Schedules      []entities.MachineSchedule
}

// ProductionHours returns setup plus run time for a bag quantity
func (m *Machine) ProductionHours(bags int64) float64 {
	return m.Spec.SetupHours + (float64(bags)/m.Spec.BagsPerHour)/m.Spec.Efficiency
}

// QueueHours returns how long the machine is booked beyond now
func (m *Machine) QueueHours(now time.Time) float64 {
	if !m.NextAvailable.After(now) {
		return 0
	}
	return m.NextAvailable.Sub(now).Hours()
}

// Compatible checks the hard physical constraints of an order against the machine
func (m *Machine) Compatible(specs entities.EffectiveSpecs) bool {
	s := m.Spec
	if specs.Width > s.MaxWidth || specs.Height > s.MaxHeight || specs.Gusset > s.MaxGusset {
		return false
	}
	if specs.GSM < s.MinGSM || specs.GSM > s.MaxGSM {
		return false
	}
	if !s.Supports(specs.HandleType) {
		return false
	}
	if specs.PaperWidth > 0 && s.MaxPaperWidth > 0 {
		if specs.PaperWidth < s.MinPaperWidth || specs.PaperWidth > s.MaxPaperWidth {
			return false
		}
	}
	return true
}

// Fleet is the fixed set of machines for one run. All booking state changes
// go through Schedule under the fleet lock.
type Fleet struct {
	mu       sync.Mutex
	machines []*Machine
	byID     map[string]*Machine
	now      time.Time
	scoring  ScoringConfig
}

// NewFleet creates a fleet with every machine free from now
func NewFleet(specs []entities.MachineSpec, now time.Time, scoring ScoringConfig) (*Fleet, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("fleet must have at least one machine")
	}

	f := &Fleet{
		machines: make([]*Machine, 0, len(specs)),
		byID:     make(map[string]*Machine, len(specs)),
		now:      now,
		scoring:  scoring.withDefaults(),
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if _, dup := f.byID[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate machine id %s", spec.ID)
		}
		handles := make([]entities.HandleType, len(spec.SupportedHandles))
		copy(handles, spec.SupportedHandles)
		spec.SupportedHandles = handles

		m := &Machine{Spec: spec, NextAvailable: now}
		f.machines = append(f.machines, m)
		f.byID[spec.ID] = m
	}
	return f, nil
}

// Now returns the reference time the fleet was created at
func (f *Fleet) Now() time.Time {
	return f.now
}

// Machine returns a fleet member by id
func (f *Fleet) Machine(id string) (*Machine, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	return m, ok
}

// Machines returns copies of all machines in fleet order
func (f *Fleet) Machines() []Machine {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Machine, len(f.machines))
	for i, m := range f.machines {
		out[i] = *m
		out[i].Schedules = append([]entities.MachineSchedule(nil), m.Schedules...)
	}
	return out
}

// FindCompatible selects the best machine for an order. The returned score is
// nil when no machine scored above zero and the earliest-available compatible
// machine was chosen instead. A nil machine means nothing is physically compatible.
func (f *Fleet) FindCompatible(specs entities.EffectiveSpecs, bags int64, deliveryDays int) (*Machine, *float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var compatible []*Machine
	for _, m := range f.machines {
		if m.Compatible(specs) {
			compatible = append(compatible, m)
		}
	}
	if len(compatible) == 0 {
		return nil, nil
	}

	avgQueue := 0.0
	for _, m := range f.machines {
		avgQueue += m.QueueHours(f.now)
	}
	avgQueue /= float64(len(f.machines))

	var best *Machine
	bestScore := 0.0
	for _, m := range compatible {
		s := f.scoring.score(scoreInput{
			machine:      m,
			bags:         bags,
			deliveryDays: deliveryDays,
			now:          f.now,
			avgQueueHrs:  avgQueue,
			handle:       specs.HandleType,
		})
		if s <= 0 {
			continue
		}
		switch {
		case best == nil || s > bestScore+f.scoring.Epsilon:
			best, bestScore = m, s
		case math.Abs(s-bestScore) <= f.scoring.Epsilon && m.NextAvailable.Before(best.NextAvailable):
			best, bestScore = m, s
		}
	}

	if best != nil {
		score := math.Round(bestScore*10000) / 10000
		return best, &score
	}

	earliest := compatible[0]
	for _, m := range compatible[1:] {
		if m.NextAvailable.Before(earliest.NextAvailable) {
			earliest = m
		}
	}
	return earliest, nil
}

// Schedule books bags on the machine starting at its next available time and
// advances that time by the production duration.
func (f *Fleet) Schedule(m *Machine, bags int64, orderID string) (entities.MachineSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if m == nil {
		return entities.MachineSchedule{}, fmt.Errorf("cannot schedule order %s on a nil machine", orderID)
	}
	if owned, ok := f.byID[m.Spec.ID]; !ok || owned != m {
		return entities.MachineSchedule{}, fmt.Errorf("%w: %s", ErrMachineNotInFleet, m.Spec.ID)
	}
	if bags <= 0 {
		return entities.MachineSchedule{}, fmt.Errorf("bag quantity must be positive, got %d", bags)
	}

	hours := m.ProductionHours(bags)
	if math.IsInf(hours, 0) || math.IsNaN(hours) || hours < 0 {
		return entities.MachineSchedule{}, fmt.Errorf("machine %s: invalid production time %v", m.Spec.ID, hours)
	}

	start := m.NextAvailable
	end := start.Add(hoursToDuration(hours))
	sched := entities.MachineSchedule{
		MachineID:       m.Spec.ID,
		OrderID:         orderID,
		Start:           start,
		End:             end,
		Bags:            bags,
		ProductionHours: math.Round(hours*1000) / 1000,
	}

	m.NextAvailable = end
	m.ScheduledBags += bags
	m.ScheduledHours += hours
	m.Schedules = append(m.Schedules, sched)
	return sched, nil
}

// Utilization reports per-machine booking totals. Utilization is scheduled
// hours relative to the busiest machine's booked horizon.
func (f *Fleet) Utilization() []entities.MachineUtilization {
	f.mu.Lock()
	defer f.mu.Unlock()

	horizon := 0.0
	for _, m := range f.machines {
		if q := m.QueueHours(f.now); q > horizon {
			horizon = q
		}
	}

	out := make([]entities.MachineUtilization, len(f.machines))
	for i, m := range f.machines {
		pct := 0.0
		if horizon > 0 {
			pct = math.Round(m.ScheduledHours/horizon*10000) / 100
		}
		out[i] = entities.MachineUtilization{
			MachineID:       m.Spec.ID,
			Name:            m.Spec.Name,
			ScheduledOrders: len(m.Schedules),
			ScheduledBags:   m.ScheduledBags,
			ScheduledHours:  math.Round(m.ScheduledHours*1000) / 1000,
			NextAvailable:   m.NextAvailable,
			UtilizationPct:  pct,
		}
	}
	return out
}
