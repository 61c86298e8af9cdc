package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	config "bi-decision-engine/configs"
	"bi-decision-engine/pkg/app"
	"bi-decision-engine/pkg/models"
	"bi-decision-engine/pkg/services"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	seed        int64
	catalogPath string
	noNarrative bool
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "insightctl",
		Short:         "Run the BI decision models offline and print JSON",
		Long:          `insightctl runs the demand, pricing, customer, fraud and inventory models against the configured catalog without starting the HTTP server. Output is JSON on stdout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().Int64Var(&opts.seed, "seed", 0, "random seed (0 = time seeded)")
	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "catalog YAML path (default: embedded catalog or CATALOG_PATH)")
	root.PersistentFlags().BoolVar(&opts.noNarrative, "no-narrative", false, "skip the narrative generator and use fallback text")

	root.AddCommand(
		newInsightsCmd(opts),
		newForecastCmd(opts),
		newPricingCmd(opts),
		newFraudCmd(opts),
		newPredictCmd(opts),
		newCustomersCmd(opts),
		newInventoryCmd(opts),
		newSettingsCmd(opts),
	)
	return root
}

// buildService 環境変数の設定にフラグの値を上書きしてサービスを組み立てる
func buildService(opts *globalOptions) (*services.InsightService, func(), error) {
	cfg := config.LoadConfig()
	if opts.seed != 0 {
		cfg.RandomSeed = opts.seed
	}
	if opts.catalogPath != "" {
		cfg.CatalogPath = opts.catalogPath
	}
	if opts.noNarrative {
		cfg.NarrativeEnabled = false
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return application.Insights, func() { application.Close() }, nil
}

func run(opts *globalOptions, out io.Writer, fn func(ctx context.Context, svc *services.InsightService) (interface{}, error)) error {
	svc, closeFn, err := buildService(opts)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := fn(context.Background(), svc)
	if err != nil {
		return err
	}
	return writeJSON(out, result)
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newInsightsCmd(opts *globalOptions) *cobra.Command {
	var timeframe string
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Curated cross-model insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, svc *services.InsightService) (interface{}, error) {
				return svc.GetInsights(ctx, timeframe)
			})
		},
	}
	cmd.Flags().StringVar(&timeframe, "timeframe", services.DefaultTimeframe, "timeframe label, e.g. 7d, 12w, 3m")
	return cmd
}

func newForecastCmd(opts *globalOptions) *cobra.Command {
	var timeframe string
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Demand forecast for tracked products",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, svc *services.InsightService) (interface{}, error) {
				return svc.GetDemandForecast(ctx, timeframe)
			})
		},
	}
	cmd.Flags().StringVar(&timeframe, "timeframe", services.DefaultTimeframe, "timeframe label, e.g. 7d, 12w, 3m")
	return cmd
}

func newPricingCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pricing",
		Short: "Price recommendations for tracked products",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, svc *services.InsightService) (interface{}, error) {
				return svc.GetPricingRecommendations(ctx)
			})
		},
	}
}

func newFraudCmd(opts *globalOptions) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "fraud",
		Short: "Generate risk-scored fraud alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, svc *services.InsightService) (interface{}, error) {
				return svc.GetFraudAlerts(ctx, count)
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, fmt.Sprintf("number of alerts (0 = configured default, max %d)", services.MaxFraudAlertCount))
	return cmd
}

func newPredictCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "predict <customerId>",
		Short: "Predict behavior for one customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, svc *services.InsightService) (interface{}, error) {
				return svc.GetCustomerPrediction(ctx, args[0])
			})
		},
	}
}

func newCustomersCmd(opts *globalOptions) *cobra.Command {
	var synthetic int
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Customer segment analytics",
		Long:  "Summarize a customer base. Without --synthetic the illustrative demo snapshot is printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if synthetic < 0 {
				return fmt.Errorf("--synthetic must not be negative")
			}
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, svc *services.InsightService) (interface{}, error) {
				var base []models.CustomerRecord
				if synthetic > 0 {
					base = GenerateCustomers(synthetic, opts.seed, time.Now())
				}
				return svc.GetCustomerAnalytics(ctx, base)
			})
		},
	}
	cmd.Flags().IntVar(&synthetic, "synthetic", 0, "generate N synthetic customers instead of using the demo snapshot")
	return cmd
}

func newInventoryCmd(opts *globalOptions) *cobra.Command {
	var (
		file      string
		maxBudget string
	)
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Optimize stock levels from an .xlsx or .csv file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open inventory file: %w", err)
			}
			defer f.Close()

			items, err := services.ParseInventoryFile(file, f)
			if err != nil {
				return err
			}

			var constraints models.InventoryConstraints
			if maxBudget != "" {
				budget, err := decimal.NewFromString(maxBudget)
				if err != nil {
					return fmt.Errorf("--max-budget must be a number: %w", err)
				}
				constraints.MaxBudget = decimal.NewNullDecimal(budget)
			}

			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, svc *services.InsightService) (interface{}, error) {
				return svc.OptimizeInventory(ctx, items, constraints)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "inventory file (.xlsx or .csv)")
	cmd.Flags().StringVar(&maxBudget, "max-budget", "", "optional budget for stock increases")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSettingsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Print category settings and defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, svc *services.InsightService) (interface{}, error) {
				return svc.Settings(), nil
			})
		},
	}
}
