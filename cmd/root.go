package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"faultline/internal/banner"
	"faultline/internal/cli"
	"faultline/internal/dummy"
	"faultline/internal/runner"
	"faultline/internal/scenario"
	"faultline/internal/stats"
	"faultline/internal/storage"
	"faultline/internal/target"
	"faultline/internal/tui"
)

var (
	cfgFile string

	// Flags
	baseURL     string
	timeoutSec  int
	graceSec    int
	seed        int64
	force       bool
	targetsFile string
	outPrefix   string
	useTUI      bool
	noHistory   bool
)

var rootCmd = &cobra.Command{
	Use:   "faultline",
	Short: "Faultline - Synthetic Traffic & Fault Generator",
	Long: `
Faultline generates synthetic HTTP traffic against an observability demo
target, with weighted endpoint selection and configurable error/delay
injection.

Scenarios:
  quick               30s smoke run at low concurrency
  sustained [secs]    steady load for a fixed duration (default 60)
  errors [secs]       error-injection run against /error (default 30)
  ramp                gradual climb to peak concurrency and back
  spike               sudden burst and recovery
  full                quick + ramp + spike in sequence

Individual request failures are data, not tool failures: a run that observes
errors still exits 0.`,
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.faultline.yaml)")
	rootCmd.PersistentFlags().StringVarP(&baseURL, "base-url", "u", "http://localhost:3001", "Target base URL")
	rootCmd.PersistentFlags().IntVar(&timeoutSec, "timeout", 10, "Per-request timeout in seconds")
	rootCmd.PersistentFlags().IntVar(&graceSec, "grace", 10, "Drain grace period in seconds")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "RNG seed for reproducible selection/injection (0 = time-based)")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "Skip the pre-flight health check")
	rootCmd.PersistentFlags().StringVarP(&targetsFile, "targets", "t", "", "YAML file defining a custom target set")
	rootCmd.PersistentFlags().StringVarP(&outPrefix, "out", "o", "", "Output filename prefix for the summary report")
	rootCmd.PersistentFlags().BoolVar(&useTUI, "tui", false, "Show a live TUI instead of the progress line")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Do not persist the run to history")

	viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("grace", rootCmd.PersistentFlags().Lookup("grace"))

	rootCmd.AddCommand(quickCmd, sustainedCmd, errorsCmd, rampCmd, spikeCmd, fullCmd)
	rootCmd.AddCommand(targetCmd, historyCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".faultline")
		}
	}
	viper.SetEnvPrefix("FAULTLINE")
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

// --- Scenario commands ---

var quickCmd = &cobra.Command{
	Use:   "quick",
	Short: "Short smoke run: 30s at low concurrency",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenario(scenario.Quick(), nil)
	},
}

var sustainedCmd = &cobra.Command{
	Use:   "sustained [seconds]",
	Short: "Steady load for a fixed duration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := durationArg(args, 60)
		if err != nil {
			return err
		}
		return runScenario(scenario.Sustained(d), nil)
	},
}

var errorsCmd = &cobra.Command{
	Use:   "errors [seconds]",
	Short: "Error-injection run against the /error endpoint",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := durationArg(args, 30)
		if err != nil {
			return err
		}
		return runScenario(scenario.Errors(d), target.ErrorMix())
	},
}

var rampCmd = &cobra.Command{
	Use:   "ramp",
	Short: "Gradual climb to peak concurrency and back down",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenario(scenario.Ramp(), nil)
	},
}

var spikeCmd = &cobra.Command{
	Use:   "spike",
	Short: "Sudden concurrency burst and recovery",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenario(scenario.Spike(), nil)
	},
}

var fullCmd = &cobra.Command{
	Use:   "full",
	Short: "Run quick, ramp and spike back to back",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScenario(scenario.Full(), nil)
	},
}

func durationArg(args []string, defaultSecs int) (time.Duration, error) {
	secs := defaultSecs
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid duration %q: want a positive number of seconds", args[0])
		}
		secs = n
	}
	return time.Duration(secs) * time.Second, nil
}

// runScenario wires targets, runner and presentation for one scenario run.
// Configuration errors and failed pre-flight checks return an error (nonzero
// exit); completed runs return nil no matter how many requests failed.
func runScenario(sc scenario.Scenario, targets []target.Descriptor) error {
	if targets == nil {
		if targetsFile != "" {
			loaded, err := target.LoadFile(targetsFile)
			if err != nil {
				return err
			}
			targets = loaded
		} else {
			targets = target.Defaults()
		}
	}

	cfg := runner.Config{
		BaseURL: viper.GetString("base_url"),
		Timeout: time.Duration(viper.GetInt("timeout")) * time.Second,
		Grace:   time.Duration(viper.GetInt("grace")) * time.Second,
		Seed:    seed,
		Force:   force,
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	updates := make(chan stats.Snapshot, 100)

	r, err := runner.New(cfg, sc, targets, updates, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.Force {
		if err := r.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%w (use --force to run anyway)", err)
		}
	}

	opts := cli.Options{OutPrefix: outPrefix, SaveHistory: !noHistory}
	if useTUI {
		sum, err := tui.Run(ctx, r)
		if err != nil {
			return err
		}
		if opts.OutPrefix != "" {
			if err := cli.ExportSummary(sum, opts.OutPrefix); err != nil {
				return err
			}
		}
		if opts.SaveHistory {
			cli.SaveHistory(sum)
		}
		return nil
	}

	_, err = cli.Start(ctx, r, opts)
	return err
}

// --- Demo target subcommand ---

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Run the built-in demo target server",
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		dummy.Start(dummy.ServerConfig{Port: port})
		select {}
	},
}

func init() {
	targetCmd.Flags().IntP("port", "p", 3001, "Port to run the demo target on")
}

// --- History subcommand ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewStore()
		if err != nil {
			return err
		}
		defer store.Close()

		items := store.List()
		if len(items) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-10s  %8s  %8s  %8s\n",
			"RUN ID", "STARTED", "SCENARIO", "REQS", "OK", "P95(ms)")
		for _, it := range items {
			fmt.Printf("%-36s  %-19s  %-10s  %8d  %8d  %8.1f\n",
				it.ID,
				it.Timestamp.Format("2006-01-02 15:04:05"),
				it.Scenario,
				it.Summary.TotalRequests,
				it.Summary.Success,
				it.Summary.P95Ms,
			)
		}
		return nil
	},
}
