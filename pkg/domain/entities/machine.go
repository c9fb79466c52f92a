package entities

import (
	"fmt"
	"time"
)

// MachineSpec represents a bag-making machine's physical envelope and capacity
type MachineSpec struct {
	ID               string       `json:"id" yaml:"id"`
	Name             string       `json:"name" yaml:"name"`
	MaxWidth         float64      `json:"max_width_mm" yaml:"max_width_mm"`
	MaxHeight        float64      `json:"max_height_mm" yaml:"max_height_mm"`
	MaxGusset        float64      `json:"max_gusset_mm" yaml:"max_gusset_mm"`
	MinGSM           float64      `json:"min_gsm" yaml:"min_gsm"`
	MaxGSM           float64      `json:"max_gsm" yaml:"max_gsm"`
	MinPaperWidth    float64      `json:"min_paper_width_mm" yaml:"min_paper_width_mm"`
	MaxPaperWidth    float64      `json:"max_paper_width_mm" yaml:"max_paper_width_mm"`
	SupportedHandles []HandleType `json:"supported_handles" yaml:"supported_handles"`
	BagsPerHour      float64      `json:"bags_per_hour" yaml:"bags_per_hour"`
	Efficiency       float64      `json:"efficiency" yaml:"efficiency"`
	SetupHours       float64      `json:"setup_hours" yaml:"setup_hours"`
}

// Validate checks that the spec describes a usable machine
func (m MachineSpec) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("machine id cannot be empty")
	}
	if m.MaxWidth <= 0 || m.MaxHeight <= 0 || m.MaxGusset <= 0 {
		return fmt.Errorf("machine %s: envelope dimensions must be positive", m.ID)
	}
	if m.MinGSM < 0 || m.MaxGSM < m.MinGSM {
		return fmt.Errorf("machine %s: invalid gsm range %g-%g", m.ID, m.MinGSM, m.MaxGSM)
	}
	if m.MaxPaperWidth > 0 && m.MaxPaperWidth < m.MinPaperWidth {
		return fmt.Errorf("machine %s: invalid paper width range %g-%g", m.ID, m.MinPaperWidth, m.MaxPaperWidth)
	}
	if len(m.SupportedHandles) == 0 {
		return fmt.Errorf("machine %s: at least one handle type must be supported", m.ID)
	}
	if m.BagsPerHour <= 0 {
		return fmt.Errorf("machine %s: bags per hour must be positive, got %g", m.ID, m.BagsPerHour)
	}
	if m.Efficiency <= 0 || m.Efficiency > 1 {
		return fmt.Errorf("machine %s: efficiency must be in (0,1], got %g", m.ID, m.Efficiency)
	}
	if m.SetupHours < 0 {
		return fmt.Errorf("machine %s: setup hours cannot be negative", m.ID)
	}
	return nil
}

// Supports reports whether the machine can produce the given handle type
func (m MachineSpec) Supports(h HandleType) bool {
	for _, s := range m.SupportedHandles {
		if s == h {
			return true
		}
	}
	return false
}

// Specialized reports whether the machine is dedicated to a single handle type
func (m MachineSpec) Specialized(h HandleType) bool {
	return len(m.SupportedHandles) == 1 && m.SupportedHandles[0] == h
}

// MachineSchedule is one committed booking of an order on a machine
type MachineSchedule struct {
	MachineID       string    `json:"machine_id"`
	OrderID         string    `json:"order_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Bags            int64     `json:"bags"`
	ProductionHours float64   `json:"production_hours"`
}

// MachineUtilization summarizes a machine's bookings for one run
type MachineUtilization struct {
	MachineID       string    `json:"machine_id"`
	Name            string    `json:"name"`
	ScheduledOrders int       `json:"scheduled_orders"`
	ScheduledBags   int64     `json:"scheduled_bags"`
	ScheduledHours  float64   `json:"scheduled_hours"`
	NextAvailable   time.Time `json:"next_available"`
	UtilizationPct  float64   `json:"utilization_pct"`
}
