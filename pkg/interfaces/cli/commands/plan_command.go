package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/infrastructure/config"
	"github.com/vsinha/bagplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bagplan/pkg/infrastructure/repositories/xlsx"
	"github.com/vsinha/bagplan/pkg/interfaces/cli/output"
)

// PlanConfig holds configuration for the plan command
type PlanConfig struct {
	ScenarioDir   string
	OrdersFile    string
	InventoryFile string
	FleetFile     string
	ConfigFile    string
	Policy        string
	OutputDir     string
	Format        string
	Verbose       bool

	// Settings replaces loading ConfigFile when set
	Settings *config.Config
}

// PlanCommand runs one order batch from files
type PlanCommand struct {
	config PlanConfig
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(config PlanConfig) *PlanCommand {
	return &PlanCommand{config: config}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context, out io.Writer) error {
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	files, err := c.resolveInputFiles()
	if err != nil {
		return fmt.Errorf("failed to resolve input files: %w", err)
	}

	if c.config.Verbose {
		c.printHeader(out, files)
		fmt.Fprintln(out, "📂 Loading orders...")
	}

	orders, err := loadOrders(files["Orders"])
	if err != nil {
		return fmt.Errorf("error loading orders: %w", err)
	}
	if c.config.Verbose {
		fmt.Fprintf(out, "✅ Loaded %d orders\n\n", len(orders))
	}

	settings := c.config.Settings
	if settings == nil {
		if settings, err = config.Load(c.config.ConfigFile); err != nil {
			return err
		}
	}

	app, err := NewApp(settings, AppOptions{
		InventoryFile: files["Inventory"],
		FleetFile:     c.config.FleetFile,
		Policy:        c.config.Policy,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	if c.config.Verbose {
		fmt.Fprintf(out, "🔄 Planning %d orders on %d machines (policy: %s)...\n", len(orders), len(app.Machines), app.Processor.Policy())
	}

	startTime := time.Now()
	result, runErr := app.Orchestrator.RunPlanning(ctx, orders)
	elapsed := time.Since(startTime)
	if result == nil {
		return fmt.Errorf("error running plan: %w", runErr)
	}

	if c.config.Verbose {
		fmt.Fprintf(out, "✅ Planning completed in %v\n\n", elapsed)
	}
	for _, rejected := range result.Rejected {
		fmt.Fprintf(out, "⚠️  Skipped order %d (%s): %s\n", rejected.Index+1, rejected.Order.Label(), strings.Join(rejected.Errors, "; "))
	}
	if len(result.Rejected) > 0 {
		fmt.Fprintln(out)
	}

	err = output.Generate(out, result.Run, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Elapsed:   elapsed,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(out, "🏁 Run %s complete!\n", result.Run.Summary.RunID)
	}
	return runErr
}

// validateInputs validates the command configuration
func (c *PlanCommand) validateInputs() error {
	if c.config.ScenarioDir == "" && c.config.OrdersFile == "" {
		return fmt.Errorf("must specify either --scenario directory or --orders file")
	}
	for _, f := range output.Formats {
		if strings.EqualFold(c.config.Format, f) {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format %q (want one of %s)", c.config.Format, strings.Join(output.Formats, ", "))
}

// resolveInputFiles determines the actual file paths to use. A scenario
// directory holds orders.csv or orders.xlsx and an optional inventory.csv.
func (c *PlanCommand) resolveInputFiles() (map[string]string, error) {
	ordersPath := c.config.OrdersFile
	inventoryPath := c.config.InventoryFile

	if c.config.ScenarioDir != "" {
		if ordersPath == "" {
			ordersPath = filepath.Join(c.config.ScenarioDir, "orders.csv")
			if alt := filepath.Join(c.config.ScenarioDir, "orders.xlsx"); !exists(ordersPath) && exists(alt) {
				ordersPath = alt
			}
		}
		if candidate := filepath.Join(c.config.ScenarioDir, "inventory.csv"); inventoryPath == "" && exists(candidate) {
			inventoryPath = candidate
		}
	}

	files := map[string]string{"Orders": ordersPath}
	if inventoryPath != "" {
		files["Inventory"] = inventoryPath
	}
	for name, path := range files {
		if !exists(path) {
			return nil, fmt.Errorf("%s file not found: %s", name, path)
		}
	}
	return files, nil
}

// printHeader prints the command header information
func (c *PlanCommand) printHeader(out io.Writer, files map[string]string) {
	fmt.Fprintf(out, "🚀 Bag Production Planner\n")
	fmt.Fprintf(out, "Input files:\n")
	fmt.Fprintf(out, "  Orders: %s\n", files["Orders"])
	if inv, ok := files["Inventory"]; ok {
		fmt.Fprintf(out, "  Inventory: %s\n", inv)
	} else {
		fmt.Fprintf(out, "  Inventory: configured feed\n")
	}
	fmt.Fprintf(out, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(out)
}

func loadOrders(path string) ([]entities.Order, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return xlsx.NewLoader().LoadOrders(path)
	}
	return csv.NewLoader().LoadOrders(path)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
