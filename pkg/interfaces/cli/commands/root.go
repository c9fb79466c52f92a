package commands

import (
	"github.com/spf13/cobra"
	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// NewRootCommand builds the bagplan command tree
func NewRootCommand(version string) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "bagplan",
		Short: "Paper bag production planner",
		Long: `bagplan computes bills of materials for paper bag orders, checks them
against on-hand stock and books them onto the machine fleet, one order at a
time in submission order.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: configs/config.yaml or ./config.yaml)")

	root.AddCommand(
		buildPlanCommand(&configFile),
		buildServeCommand(&configFile, version),
		buildBOMCommand(&configFile),
		buildFleetCommand(),
		buildGenerateCommand(),
	)
	return root
}

func buildPlanCommand(configFile *string) *cobra.Command {
	var cfg PlanConfig

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a batch of orders from a CSV or XLSX file",
		Long: `Plan a batch of orders. A scenario directory holds orders.csv (or
orders.xlsx) and an optional inventory.csv; without an inventory file the
configured inventory feed is used.

orders.csv:
    id,bag_name,sku,quantity,unit,bags_per_carton,width_mm,gusset_mm,height_mm,gsm,handle_type,paper_grade,certification,delivery_days,colors,paper_width_mm
    ORD-1,Shopper 32,SKU-32,1000,bags,,320,160,380,90,flat handle,brown kraft,FSC,7,2,

inventory.csv:
    material_code,description,quantity
    1003696,PAPER BROWN KRAFT 90 GSM,1500`,
		Example: `  bagplan plan --scenario scenarios/weekly -v
  bagplan plan --orders orders.xlsx --inventory stock.csv --format json --output results/
  bagplan plan --orders orders.csv --policy feasible_only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.ConfigFile = *configFile
			return NewPlanCommand(cfg).Execute(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cfg.ScenarioDir, "scenario", "", "scenario directory with orders and inventory files")
	cmd.Flags().StringVar(&cfg.OrdersFile, "orders", "", "orders file (.csv or .xlsx)")
	cmd.Flags().StringVar(&cfg.InventoryFile, "inventory", "", "inventory snapshot CSV (overrides the configured feed)")
	cmd.Flags().StringVar(&cfg.FleetFile, "fleet", "", "fleet catalog YAML (default: built-in fleet)")
	cmd.Flags().StringVar(&cfg.Policy, "policy", "", "machine commit policy: always or feasible_only")
	cmd.Flags().StringVarP(&cfg.OutputDir, "output", "o", "", "directory to write results to (default: stdout)")
	cmd.Flags().StringVarP(&cfg.Format, "format", "f", "text", "output format: text, json, csv, xlsx")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "verbose output")
	return cmd
}

func buildServeCommand(configFile *string, version string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planning HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewServeCommand(ServeConfig{
				ConfigFile: *configFile,
				Port:       port,
				Version:    version,
			}).Execute(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func buildBOMCommand(configFile *string) *cobra.Command {
	var (
		format       string
		handle, unit string
		order        entities.Order
	)

	cmd := &cobra.Command{
		Use:     "bom",
		Short:   "Compute the bill of materials for one order",
		Example: `  bagplan bom --name "Shopper 32" --quantity 1000 --width 320 --gusset 160 --height 380 --gsm 90 --handle flat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			order.HandleType = entities.ParseHandleType(handle)
			order.Unit = entities.ParseUnit(unit)
			return NewBOMCommand(BOMConfig{
				Order:      order,
				ConfigFile: *configFile,
				Format:     format,
			}).Execute(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&order.BagName, "name", "", "bag name")
	cmd.Flags().Int64Var(&order.Quantity, "quantity", 0, "order quantity")
	cmd.Flags().StringVar(&unit, "unit", "bags", "quantity unit: bags or cartons")
	cmd.Flags().Int64Var(&order.BagsPerCarton, "bags-per-carton", 0, "packing size (default: configured)")
	cmd.Flags().Float64Var(&order.Width, "width", 0, "width in mm")
	cmd.Flags().Float64Var(&order.Gusset, "gusset", 0, "gusset in mm")
	cmd.Flags().Float64Var(&order.Height, "height", 0, "height in mm")
	cmd.Flags().Float64Var(&order.GSM, "gsm", 0, "paper weight in g/m²")
	cmd.Flags().StringVar(&handle, "handle", "flat", "handle type: flat, twisted or none")
	cmd.Flags().StringVar(&order.PaperGrade, "grade", "BROWN KRAFT", "paper grade")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func buildFleetCommand() *cobra.Command {
	var cfg FleetConfig

	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Print the machine fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewFleetCommand(cfg).Execute(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&cfg.FleetFile, "fleet", "", "fleet catalog YAML (default: built-in fleet)")
	cmd.Flags().StringVarP(&cfg.Format, "format", "f", "text", "output format: text, yaml or json")
	return cmd
}

func buildGenerateCommand() *cobra.Command {
	var cfg GenerateConfig

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate a synthetic scenario directory",
		Example: `  bagplan generate --orders 200 --inventory 0.8 --output scenarios/tight --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewGenerateCommand(cfg).Execute(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&cfg.Orders, "orders", 50, "number of orders")
	cmd.Flags().Float64Var(&cfg.Inventory, "inventory", 1.0, "stock as a multiple of total demand")
	cmd.Flags().Int64Var(&cfg.BagsPerCarton, "bags-per-carton", 250, "packing size for carton orders")
	cmd.Flags().StringVarP(&cfg.OutputDir, "output", "o", "scenario", "output directory")
	cmd.Flags().StringVarP(&cfg.Format, "format", "f", "csv", "orders file format: csv or xlsx")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 0, "random seed (default: time-based)")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "verbose output")
	return cmd
}
