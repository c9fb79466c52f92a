package commands

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bagplan/pkg/application/services/bom"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bagplan/pkg/infrastructure/repositories/xlsx"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Orders        int     // Number of orders to generate
	Inventory     float64 // Stock coverage multiplier (e.g., 0.5 = half of demand, 2.0 = double)
	BagsPerCarton int64   // Packing size used for carton orders and the demand estimate
	OutputDir     string  // Output directory for generated files
	Format        string  // Orders file format: csv or xlsx
	Seed          int64   // Random seed for reproducible generation
	Verbose       bool    // Verbose output
}

// GenerateCommand writes a synthetic orders file and a matching inventory snapshot
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
}

// bagFamily is a product line the generator draws sizes from
type bagFamily struct {
	name    string
	sizes   [][3]float64 // width, gusset, height
	handles []entities.HandleType
	gsm     []float64
}

var bagFamilies = []bagFamily{
	{"Shopper", [][3]float64{{260, 120, 350}, {320, 160, 380}, {450, 170, 480}}, []entities.HandleType{entities.FlatHandle, entities.TwistedHandle}, []float64{80, 90, 100}},
	{"Bakery", [][3]float64{{180, 90, 280}, {220, 100, 300}}, []entities.HandleType{entities.NoHandle}, []float64{70, 80}},
	{"Wine Carrier", [][3]float64{{180, 90, 390}}, []entities.HandleType{entities.TwistedHandle}, []float64{100, 120}},
	{"Gift", [][3]float64{{240, 100, 320}, {350, 150, 420}}, []entities.HandleType{entities.TwistedHandle, entities.FlatHandle}, []float64{90, 100, 120}},
}

var generatedGrades = []string{"BROWN KRAFT", "WHITE KRAFT", "RECYCLED KRAFT"}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	config.Seed = seed
	if config.BagsPerCarton <= 0 {
		config.BagsPerCarton = 250
	}
	if config.Format == "" {
		config.Format = "csv"
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context, out io.Writer) error {
	if cmd.config.Orders <= 0 {
		return fmt.Errorf("order count must be positive, got %d", cmd.config.Orders)
	}
	if cmd.config.Inventory < 0 {
		return fmt.Errorf("inventory multiplier cannot be negative, got %g", cmd.config.Inventory)
	}
	if cmd.config.Format != "csv" && cmd.config.Format != "xlsx" {
		return fmt.Errorf("unsupported orders format %q (want csv or xlsx)", cmd.config.Format)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(out, "🔧 Generating scenario with %d orders, %.1fx inventory\n", cmd.config.Orders, cmd.config.Inventory)
		fmt.Fprintf(out, "📁 Output directory: %s\n", cmd.config.OutputDir)
		fmt.Fprintf(out, "🎲 Random seed: %d\n", cmd.config.Seed)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	orders := cmd.generateOrders()
	ordersFile := filepath.Join(cmd.config.OutputDir, "orders."+cmd.config.Format)
	if cmd.config.Verbose {
		fmt.Fprintf(out, "📋 Generating %s...\n", filepath.Base(ordersFile))
	}
	if err := writeFile(ordersFile, func(w io.Writer) error {
		if cmd.config.Format == "xlsx" {
			return xlsx.WriteOrders(w, orders)
		}
		return csv.WriteOrders(w, orders)
	}); err != nil {
		return fmt.Errorf("failed to generate orders: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintln(out, "📦 Generating inventory.csv...")
	}
	snapshot, descriptions, err := cmd.generateInventory(ctx, orders)
	if err != nil {
		return fmt.Errorf("failed to generate inventory: %w", err)
	}
	if err := writeFile(filepath.Join(cmd.config.OutputDir, "inventory.csv"), func(w io.Writer) error {
		return csv.WriteSnapshot(w, snapshot, descriptions)
	}); err != nil {
		return fmt.Errorf("failed to generate inventory: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(out, "✅ Scenario generated successfully in %s\n", cmd.config.OutputDir)
	}
	return nil
}

// generateOrders draws orders from the bag families. Roughly a quarter are
// placed in cartons and a third carry a delivery deadline.
func (cmd *GenerateCommand) generateOrders() []entities.Order {
	orders := make([]entities.Order, 0, cmd.config.Orders)
	for i := 0; i < cmd.config.Orders; i++ {
		family := bagFamilies[cmd.rand.Intn(len(bagFamilies))]
		size := family.sizes[cmd.rand.Intn(len(family.sizes))]

		order := entities.Order{
			ID:         fmt.Sprintf("GEN-%04d", i+1),
			BagName:    fmt.Sprintf("%s %dx%d", family.name, int(size[0]), int(size[2])),
			SKU:        fmt.Sprintf("SKU-%05d", 10000+cmd.rand.Intn(90000)),
			Quantity:   int64(1+cmd.rand.Intn(60)) * 1000,
			Unit:       entities.UnitBags,
			Width:      size[0],
			Gusset:     size[1],
			Height:     size[2],
			GSM:        family.gsm[cmd.rand.Intn(len(family.gsm))],
			HandleType: family.handles[cmd.rand.Intn(len(family.handles))],
			PaperGrade: generatedGrades[cmd.rand.Intn(len(generatedGrades))],
			Colors:     cmd.rand.Intn(5),
		}
		if cmd.rand.Float64() < 0.25 {
			order.Unit = entities.UnitCartons
			order.Quantity = int64(4 + cmd.rand.Intn(100))
		}
		if cmd.rand.Float64() < 0.33 {
			order.DeliveryDays = 3 + cmd.rand.Intn(25)
		}
		if cmd.rand.Float64() < 0.2 {
			order.Certification = "FSC"
		}
		orders = append(orders, order)
	}
	return orders
}

// generateInventory sizes stock from the batch's total BOM demand scaled by
// the inventory multiplier, with +/-20% noise per material.
func (cmd *GenerateCommand) generateInventory(ctx context.Context, orders []entities.Order) (entities.StockSnapshot, map[entities.MaterialCode]string, error) {
	calc, err := bom.NewCalculator(bom.Config{BagsPerCarton: cmd.config.BagsPerCarton})
	if err != nil {
		return nil, nil, err
	}

	demand := make(entities.StockSnapshot)
	descriptions := make(map[entities.MaterialCode]string)
	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		b, _, _, err := calc.Compute(order)
		if err != nil {
			return nil, nil, fmt.Errorf("order %s: %w", order.ID, err)
		}
		for _, line := range b.Lines {
			if line.MaterialCode == "" {
				continue
			}
			demand[line.MaterialCode] = demand[line.MaterialCode].Add(line.TotalQty)
			descriptions[line.MaterialCode] = line.Description
		}
	}

	codes := make([]entities.MaterialCode, 0, len(demand))
	for code := range demand {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	snapshot := make(entities.StockSnapshot, len(demand))
	multiplier := decimal.NewFromFloat(cmd.config.Inventory)
	for _, code := range codes {
		noise := decimal.NewFromFloat(0.8 + cmd.rand.Float64()*0.4)
		snapshot[code] = entities.RoundQty(demand[code].Mul(multiplier).Mul(noise))
	}
	return snapshot, descriptions, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
