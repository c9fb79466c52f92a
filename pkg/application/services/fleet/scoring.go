package fleet

import (
	"time"

	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// ScoringConfig weights the terms used to rank compatible machines
type ScoringConfig struct {
	OptimalRunHours           float64
	DurationWeight            float64
	LoadWeight                float64
	DeadlineWeight            float64
	SpecializationBonus       float64
	LargeOrderBonus           float64
	LargeOrderBags            int64
	HighThroughputBagsPerHour float64
	// Epsilon is the score band within which machines count as tied
	Epsilon float64
}

// DefaultScoringConfig returns the standard weights
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		OptimalRunHours:           8,
		DurationWeight:            0.4,
		LoadWeight:                0.35,
		DeadlineWeight:            0.25,
		SpecializationBonus:       0.05,
		LargeOrderBonus:           0.05,
		LargeOrderBags:            50_000,
		HighThroughputBagsPerHour: 4_500,
		Epsilon:                   0.01,
	}
}

func (c ScoringConfig) withDefaults() ScoringConfig {
	d := DefaultScoringConfig()
	if c.OptimalRunHours <= 0 {
		c.OptimalRunHours = d.OptimalRunHours
	}
	if c.DurationWeight == 0 && c.LoadWeight == 0 && c.DeadlineWeight == 0 {
		c.DurationWeight, c.LoadWeight, c.DeadlineWeight = d.DurationWeight, d.LoadWeight, d.DeadlineWeight
	}
	if c.LargeOrderBags <= 0 {
		c.LargeOrderBags = d.LargeOrderBags
	}
	if c.HighThroughputBagsPerHour <= 0 {
		c.HighThroughputBagsPerHour = d.HighThroughputBagsPerHour
	}
	if c.Epsilon < 0 {
		c.Epsilon = 0
	}
	return c
}

// scoreInput carries everything needed to score one machine for one order
type scoreInput struct {
	machine      *Machine
	bags         int64
	deliveryDays int
	now          time.Time
	avgQueueHrs  float64
	handle       entities.HandleType
}

// score returns the machine's weighted suitability. Zero means the projected
// completion misses the delivery deadline.
func (c ScoringConfig) score(in scoreInput) float64 {
	m := in.machine
	prodHours := m.ProductionHours(in.bags)
	start := m.NextAvailable
	if start.Before(in.now) {
		start = in.now
	}
	completion := start.Add(hoursToDuration(prodHours))

	slack := 1.0
	if in.deliveryDays > 0 {
		deadline := in.now.Add(time.Duration(in.deliveryDays) * 24 * time.Hour)
		if completion.After(deadline) {
			return 0
		}
		window := deadline.Sub(in.now).Hours()
		slack = deadline.Sub(completion).Hours() / window
	}

	duration := 1.0
	if prodHours > c.OptimalRunHours {
		duration = c.OptimalRunHours / prodHours
	}

	queue := m.QueueHours(in.now)
	load := 1 / (1 + queue/(in.avgQueueHrs+1))

	total := c.DurationWeight*duration + c.LoadWeight*load + c.DeadlineWeight*slack
	if m.Spec.Specialized(in.handle) {
		total += c.SpecializationBonus
	}
	if in.bags >= c.LargeOrderBags && m.Spec.BagsPerHour >= c.HighThroughputBagsPerHour {
		total += c.LargeOrderBonus
	}
	return total
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour)).Round(time.Second)
}
