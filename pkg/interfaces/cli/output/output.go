package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Elapsed   time.Duration
}

// Formats lists the supported output formats
var Formats = []string{"text", "json", "csv", "xlsx"}

// Generate renders a run in the configured format. With an OutputDir the
// result is written to bagplan_results.<format> there; otherwise to w.
func Generate(w io.Writer, run *entities.RunResult, config Config) error {
	render, ext, err := renderer(config.Format)
	if err != nil {
		return err
	}
	if config.OutputDir == "" {
		return render(w, run, config)
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "bagplan_results."+ext)
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	if err := render(file, run, config); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(w, "💾 Results saved to: %s\n", filename)
	}
	return nil
}

type renderFunc func(io.Writer, *entities.RunResult, Config) error

func renderer(format string) (renderFunc, string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return writeText, "txt", nil
	case "json":
		return writeJSON, "json", nil
	case "csv":
		return writeCSV, "csv", nil
	case "xlsx":
		return WriteXLSX, "xlsx", nil
	default:
		return nil, "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// writeText creates human-readable text output
func writeText(w io.Writer, run *entities.RunResult, config Config) error {
	s := run.Summary
	fmt.Fprintf(w, "📊 Production Plan Summary\n")
	fmt.Fprintf(w, "==========================\n\n")
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Orders: %d processed of %d submitted\n", s.OrdersProcessed, s.OrdersSubmitted)
	fmt.Fprintf(w, "Feasible: %d  Infeasible: %d  Errors: %d\n", s.FeasibleCount, s.InfeasibleCount, s.ErrorCount)
	fmt.Fprintf(w, "Committed Cost: %s\n", s.TotalCost.StringFixed(entities.CostPrecision))
	if config.Elapsed > 0 {
		fmt.Fprintf(w, "Planning Time: %v\n", config.Elapsed)
	}
	if s.FeedDegraded {
		fmt.Fprintf(w, "⚠️  Inventory feed unavailable: every order was checked against empty stock\n")
	}
	if s.Cancelled {
		fmt.Fprintf(w, "⚠️  Run cancelled before all orders were processed\n")
	}
	fmt.Fprintln(w)

	if len(run.Results) > 0 {
		fmt.Fprintf(w, "📋 Orders:\n")
		fmt.Fprintf(w, "%-4s %-20s %-10s %-8s %-5s %-5s %-9s %-12s\n",
			"#", "Order", "Bags", "Machine", "Inv", "Mach", "Feasible", "Cost")
		fmt.Fprintf(w, "%-4s %-20s %-10s %-8s %-5s %-5s %-9s %-12s\n",
			"----", "--------------------", "----------", "--------", "-----", "-----", "---------", "------------")
		for _, r := range run.Results {
			fmt.Fprintf(w, "%-4d %-20s %-10d %-8s %-5s %-5s %-9s %-12s\n",
				r.Index+1,
				truncate(orderName(r), 20),
				r.ActualBags,
				dash(r.AssignedMachine),
				mark(r.InventoryFeasible),
				mark(r.MachineFeasible),
				mark(r.Feasible),
				r.Cost.StringFixed(entities.CostPrecision))
		}
		fmt.Fprintln(w)
	}

	var problems []entities.OrderResult
	for _, r := range run.Results {
		if r.Failed() || len(r.InsufficientMaterials) > 0 {
			problems = append(problems, r)
		}
	}
	if len(problems) > 0 {
		fmt.Fprintf(w, "⚠️  Shortages and Errors:\n")
		for _, r := range problems {
			if r.Failed() {
				fmt.Fprintf(w, "  #%d %s: error: %s\n", r.Index+1, orderName(r), r.Error)
				continue
			}
			for _, msg := range r.InsufficientMaterials {
				fmt.Fprintf(w, "  #%d %s: %s\n", r.Index+1, orderName(r), msg)
			}
		}
		fmt.Fprintln(w)
	}

	if len(s.MachineUtilization) > 0 {
		fmt.Fprintf(w, "🏭 Machines:\n")
		fmt.Fprintf(w, "%-6s %-18s %-7s %-10s %-10s %-8s\n", "ID", "Name", "Orders", "Bags", "Hours", "Util %")
		fmt.Fprintf(w, "%-6s %-18s %-7s %-10s %-10s %-8s\n", "------", "------------------", "-------", "----------", "----------", "--------")
		for _, u := range s.MachineUtilization {
			fmt.Fprintf(w, "%-6s %-18s %-7d %-10d %-10.2f %-8.1f\n",
				u.MachineID, truncate(u.Name, 18), u.ScheduledOrders, u.ScheduledBags, u.ScheduledHours, u.UtilizationPct)
		}
		fmt.Fprintln(w)
	}

	if len(s.FinalInventory) > 0 {
		fmt.Fprintf(w, "📦 Remaining Inventory:\n")
		for _, code := range sortedCodes(s.FinalInventory) {
			initial := s.InitialInventory[code]
			fmt.Fprintf(w, "  %-10s %14s (from %s)\n", code, s.FinalInventory[code].String(), initial.String())
		}
	}
	return nil
}

// writeJSON creates indented JSON output
func writeJSON(w io.Writer, run *entities.RunResult, _ Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// ResultHeader is the column layout of the CSV order report
var ResultHeader = []string{
	"index", "order_id", "bag_name", "actual_bags", "inventory_feasible", "machine_feasible",
	"feasible", "assigned_machine", "machine_score", "schedule_start", "schedule_end",
	"cost", "insufficient_materials", "error",
}

// writeCSV creates one row per order
func writeCSV(w io.Writer, run *entities.RunResult, _ Config) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range run.Results {
		if err := cw.Write(resultRow(r)); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", r.Index+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func resultRow(r entities.OrderResult) []string {
	score, start, end := "", "", ""
	if r.MachineScore != nil {
		score = strconv.FormatFloat(*r.MachineScore, 'f', 4, 64)
	}
	if r.Schedule != nil {
		start = r.Schedule.Start.Format(time.RFC3339)
		end = r.Schedule.End.Format(time.RFC3339)
	}
	return []string{
		strconv.Itoa(r.Index + 1),
		r.Order.ID,
		r.Order.BagName,
		strconv.FormatInt(r.ActualBags, 10),
		strconv.FormatBool(r.InventoryFeasible),
		strconv.FormatBool(r.MachineFeasible),
		strconv.FormatBool(r.Feasible),
		r.AssignedMachine,
		score,
		start,
		end,
		r.Cost.StringFixed(entities.CostPrecision),
		strings.Join(r.InsufficientMaterials, "; "),
		r.Error,
	}
}

func orderName(r entities.OrderResult) string {
	if r.Order.ID != "" {
		return r.Order.ID
	}
	return r.Order.Label()
}

func sortedCodes(s entities.StockSnapshot) []entities.MaterialCode {
	codes := make([]entities.MaterialCode, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
