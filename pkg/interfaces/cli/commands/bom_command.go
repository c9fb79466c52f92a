package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vsinha/bagplan/pkg/application/dto"
	"github.com/vsinha/bagplan/pkg/application/services/bom"
	"github.com/vsinha/bagplan/pkg/application/services/orchestration"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/infrastructure/config"
)

// BOMConfig holds configuration for the bom command
type BOMConfig struct {
	Order      entities.Order
	ConfigFile string
	Format     string // text or json

	// Settings replaces loading ConfigFile when set
	Settings *config.Config
}

// BOMCommand computes the bill of materials of one order
type BOMCommand struct {
	config BOMConfig
}

// NewBOMCommand creates a new bom command
func NewBOMCommand(config BOMConfig) *BOMCommand {
	return &BOMCommand{config: config}
}

// Execute runs the bom command
func (c *BOMCommand) Execute(out io.Writer) error {
	settings := c.config.Settings
	if settings == nil {
		var err error
		if settings, err = config.Load(c.config.ConfigFile); err != nil {
			return err
		}
	}

	calc, err := bom.NewCalculator(bom.Config{
		BagsPerCarton:   settings.Planning.BagsPerCarton,
		SeamAllowanceMM: settings.Planning.SeamAllowanceMM,
	})
	if err != nil {
		return err
	}

	result, err := orchestration.NewPlanningOrchestrator(nil, calc, nil, nil, nil).ComputeBOM(c.config.Order)
	if err != nil {
		return err
	}

	switch strings.ToLower(c.config.Format) {
	case "", "text":
		writeBOMTable(out, result)
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return fmt.Errorf("unsupported bom format: %s", c.config.Format)
	}
}

func writeBOMTable(out io.Writer, r *dto.BOMResult) {
	s := r.Specs
	fmt.Fprintf(out, "📦 Bill of Materials: %s\n", r.Order.Label())
	fmt.Fprintf(out, "Bags: %d  Size: %gx%gx%g mm  Paper: %s %g GSM (%s)\n",
		r.ActualBags, s.Width, s.Gusset, s.Height, s.PaperGrade, s.PaperGSM, s.PaperCode)
	if s.GSMSubstituted {
		fmt.Fprintf(out, "⚠️  %g GSM is not stocked for %s, using %g GSM\n", s.GSM, s.PaperGrade, s.PaperGSM)
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "%-9s %-34s %-4s %12s %12s %10s %12s\n", "Code", "Description", "UoM", "Per Bag", "Total", "Price", "Cost")
	for _, l := range r.BOM.Lines {
		fmt.Fprintf(out, "%-9s %-34s %-4s %12s %12s %10s %12s\n",
			l.MaterialCode,
			l.Description,
			l.UnitOfMeasure,
			l.PerBagQty.StringFixed(entities.PerBagPrecision),
			l.TotalQty.StringFixed(entities.QuantityPrecision),
			l.UnitPrice.String(),
			l.TotalCost.StringFixed(entities.CostPrecision))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total Cost: %s\n", r.BOM.TotalCost.StringFixed(entities.CostPrecision))
	fmt.Fprintf(out, "Weight: %s kg per bag, %s kg total\n", r.BOM.BagWeightKg.String(), r.BOM.TotalWeightKg.String())
}
