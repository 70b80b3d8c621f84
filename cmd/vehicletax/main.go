package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/autolytiq/vehicletax/internal/calculation"
	"github.com/autolytiq/vehicletax/internal/config"
	"github.com/autolytiq/vehicletax/internal/domain"
	"github.com/autolytiq/vehicletax/internal/output"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newLogger builds the sugared zap logger the engine consumes. Every run
// gets a correlation id in the log fields; the id never touches the
// calculation result, which stays deterministic.
func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar().With("run_id", uuid.NewString()), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "vehicletax %s (commit %s, built %s)\n", version, commit, date)
			if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
				fmt.Fprintln(os.Stdout, bi.Main.Path)
			}
		},
	}
}

var rootCmd = &cobra.Command{
	Use:   "vehicletax",
	Short: "Motor-vehicle sales/use tax calculator",
	Long:  "Rules-driven motor-vehicle sales and lease tax calculator for dealership quoting",
}

var calculateCmd = &cobra.Command{
	Use:   "calculate [deal-file]",
	Short: "Calculate tax for a deal",
	Long:  "Calculate sales or lease tax for one deal against a loaded rules bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rulesFile, _ := cmd.Flags().GetString("rules")
		format, _ := cmd.Flags().GetString("format")
		showDebug, _ := cmd.Flags().GetBool("debug")
		verbose, _ := cmd.Flags().GetBool("verbose")

		logger, err := newLogger(verbose)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		store, err := config.NewRulesParser().LoadFromFile(rulesFile)
		if err != nil {
			logger.Errorw("failed to load rules bundle", "file", rulesFile, "error", err)
			return err
		}
		logger.Infow("rules bundle loaded", "file", rulesFile, "states", store.States())

		input, err := loadDeal(args[0])
		if err != nil {
			logger.Errorw("failed to load deal", "file", args[0], "error", err)
			return err
		}

		rules, err := store.Resolve(input.StateCode, input.RulesVersion)
		if err != nil {
			logger.Errorw("ruleset lookup failed", "state", input.StateCode, "version", input.RulesVersion, "error", err)
			return err
		}

		engine := calculation.NewEngineWithDirectory(store)
		engine.SetLogger(logger)
		result, err := engine.Calculate(rules, input)
		if err != nil {
			logger.Errorw("calculation failed", "error", err)
			return err
		}

		report, err := output.NewReportGenerator().Generate(result, format, showDebug)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, report)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [rules-file]",
	Short: "Statically validate a rules bundle",
	Long:  "Run every static check on a rules bundle, including cross-state mutual-credit cycle detection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		var bundle config.RulesBundle
		if err := yaml.Unmarshal(data, &bundle); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
		errs := config.ValidateBundle(bundle.Jurisdictions)
		if len(errs) == 0 {
			fmt.Fprintf(os.Stdout, "OK: %d jurisdiction(s) valid\n", len(bundle.Jurisdictions))
			return nil
		}
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "INVALID: %s\n", e.Error())
		}
		return fmt.Errorf("%w: %d validation failure(s)", domain.ErrConfigurationInvalid, len(errs))
	},
}

// loadDeal parses a deal input file (YAML or JSON; YAML is a superset).
func loadDeal(filename string) (*domain.TaxCalculationInput, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	var input domain.TaxCalculationInput
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse deal file: %w", err)
	}
	return &input, nil
}

func main() {
	calculateCmd.Flags().String("rules", "rules.yaml", "Path to the rules bundle")
	calculateCmd.Flags().String("format", "console", "Output format (console or json)")
	calculateCmd.Flags().Bool("debug", false, "Include the decision debug trail in the report")
	calculateCmd.Flags().Bool("verbose", false, "Verbose logging")

	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
