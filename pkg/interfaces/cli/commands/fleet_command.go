package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vsinha/bagplan/pkg/application/services/fleet"
	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// FleetConfig holds configuration for the fleet command
type FleetConfig struct {
	FleetFile string
	Format    string // text, yaml or json
}

// FleetCommand prints the machine catalog runs are scheduled on
type FleetCommand struct {
	config FleetConfig
}

// NewFleetCommand creates a new fleet command
func NewFleetCommand(config FleetConfig) *FleetCommand {
	return &FleetCommand{config: config}
}

// Execute runs the fleet command
func (c *FleetCommand) Execute(out io.Writer) error {
	machines, err := loadMachines(c.config.FleetFile)
	if err != nil {
		return err
	}

	switch strings.ToLower(c.config.Format) {
	case "", "text":
		writeFleetTable(out, machines)
		return nil
	case "yaml":
		data, err := fleet.MarshalCatalog(machines)
		if err != nil {
			return fmt.Errorf("failed to marshal fleet: %w", err)
		}
		_, err = out.Write(data)
		return err
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(machines)
	default:
		return fmt.Errorf("unsupported fleet format: %s", c.config.Format)
	}
}

func writeFleetTable(out io.Writer, machines []entities.MachineSpec) {
	fmt.Fprintf(out, "🏭 Machine Fleet (%d machines)\n", len(machines))
	fmt.Fprintf(out, "%-5s %-18s %-16s %-9s %-12s %-9s %-6s %s\n",
		"ID", "Name", "W x H x G (mm)", "GSM", "Roll (mm)", "Bags/h", "Setup", "Handles")
	for _, m := range machines {
		handles := make([]string, len(m.SupportedHandles))
		for i, h := range m.SupportedHandles {
			handles[i] = h.String()
		}
		fmt.Fprintf(out, "%-5s %-18s %-16s %-9s %-12s %-9.0f %-6.2f %s\n",
			m.ID,
			m.Name,
			fmt.Sprintf("%gx%gx%g", m.MaxWidth, m.MaxHeight, m.MaxGusset),
			fmt.Sprintf("%g-%g", m.MinGSM, m.MaxGSM),
			fmt.Sprintf("%g-%g", m.MinPaperWidth, m.MaxPaperWidth),
			m.BagsPerHour*m.Efficiency,
			m.SetupHours,
			strings.Join(handles, ", "))
	}
}
