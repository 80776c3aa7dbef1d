/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ssargent/aerobonkers/pkg/aerobiz"
	"github.com/ssargent/aerobonkers/pkg/config"
	"github.com/ssargent/aerobonkers/pkg/di"
	"github.com/ssargent/aerobonkers/pkg/engine"
	"github.com/ssargent/aerobonkers/pkg/ledger"
	"github.com/ssargent/aerobonkers/pkg/rom"
)

const usageMessage = "Please supply the filename of an Aerobiz Supersonic ROM."

var (
	container *di.Container
	settings  *config.Config

	errNoContainer = stderrors.New("dependency container not initialized")
)

// SetContainer injects the dependency container
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aerobonkers [flags] <rom>",
	Short: "Aerobiz Supersonic randomizer",
	Long: `aerobonkers randomizes the airline names and plane data of an
Aerobiz Supersonic ROM. The same ROM, flags and seed always give the same
output.

Examples:
  aerobonkers aerobiz.sfc
  aerobonkers --no-names --seed 1234 -o bonkers.sfc aerobiz.sfc
  aerobonkers --crazy --ledger-dir ./runs aerobiz.sfc`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			cmd.PrintErrln(usageMessage)
			return fmt.Errorf("expected one ROM path, got %d arguments", len(args))
		}
		return nil
	},
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if container != nil {
			_ = container.GetLogger().Sync()
		}
	},
	RunE: runRandomize,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML run configuration (default ~/.config/aerobonkers/config.yaml when present)")
	rootCmd.PersistentFlags().String("ledger-dir", "", "Directory of the run ledger (disabled when empty)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write run metrics to this Prometheus textfile")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.Flags().Bool("no-data", false, "Do not randomize plane data")
	rootCmd.Flags().Bool("no-names", false, "Do not randomize airline names")
	rootCmd.Flags().Bool("crazy", false, "Widen plane data randomization")
	rootCmd.Flags().StringP("output", "o", "aerobonkers-output.sfc", "Output file name")
	rootCmd.Flags().Int64("seed", 0, "Random seed (random when 0)")
}

// setup loads the configuration (--config, else the default path when it
// exists), applies persistent flag overrides and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	if container == nil {
		return errNoContainer
	}

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" && config.ConfigExists(config.GetDefaultConfigPath()) {
		configPath = config.GetDefaultConfigPath()
	}
	cfg := config.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(configPath); err != nil {
			return err
		}
	}

	if cmd.Flags().Changed("ledger-dir") {
		cfg.Ledger.Dir, _ = cmd.Flags().GetString("ledger-dir")
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.Metrics.File, _ = cmd.Flags().GetString("metrics-file")
	}
	verbose, _ := cmd.Flags().GetBool("verbose")

	logger, err := newLogger(cfg.Logging.Level, verbose)
	if err != nil {
		return err
	}
	container.SetLogger(logger)
	settings = cfg
	return nil
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// applyRunFlags overrides the configuration with flags given on the command line
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if cfg.Flags == nil {
		cfg.Flags = map[string]bool{}
	}
	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if noData, _ := flags.GetBool("no-data"); noData {
		cfg.Flags[aerobiz.FlagData] = false
	}
	if noNames, _ := flags.GetBool("no-names"); noNames {
		cfg.Flags[aerobiz.FlagNames] = false
	}
	if crazy, _ := flags.GetBool("crazy"); crazy {
		cfg.Flags[aerobiz.FlagCrazy] = true
	}
}

func runRandomize(cmd *cobra.Command, args []string) error {
	cfg := settings
	applyRunFlags(cmd, cfg)
	logger := container.GetLogger()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Rom found.")
	image, err := os.ReadFile(args[0])
	if err != nil {
		cmd.PrintErrln("Error when reading file.")
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	patches, err := cfg.EnginePatches(rom.LoROM)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	res, err := aerobiz.Execute(aerobiz.Options{
		ROM:          image,
		Flags:        cfg.Flags,
		Seed:         cfg.Seed,
		RandomDegree: cfg.RandomDegree,
		Patches:      patches,
		Hooks: engine.Hooks{
			Message: func(s string) { fmt.Fprintln(out, s) },
			Error:   func(s string) { cmd.PrintErrln(s) },
		},
		Logger:   logger,
		Recorder: container.GetMetrics(),
	})
	if metricsErr := writeMetrics(cfg); metricsErr != nil {
		logger.Warn("metrics not written", zap.Error(metricsErr))
	}
	if err != nil {
		return fmt.Errorf("randomization failed: %w", err)
	}

	if err := os.WriteFile(cfg.Output, res.Image, 0644); err != nil {
		cmd.PrintErrln("Error when writing file.")
		return fmt.Errorf("failed to write output: %w", err)
	}

	if cfg.Ledger.Dir != "" {
		if err := recordRun(res, cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "Run %s recorded.\n", res.RunID)
	}

	fmt.Fprintf(out, "Seed: %d\n", res.Seed)
	fmt.Fprintf(out, "Randomization successful. Saved to %s\n", cfg.Output)
	return nil
}

func recordRun(res *engine.Result, cfg *config.Config) error {
	l, err := container.OpenLedger(cfg.Ledger.Dir)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.Save(ledger.NewRunRecord(res, cfg.Flags)); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func writeMetrics(cfg *config.Config) error {
	if cfg.Metrics.File == "" {
		return nil
	}
	return container.GetMetrics().WriteTextfile(cfg.Metrics.File)
}
