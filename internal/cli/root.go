package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/intelbench/internal/logging"
	"github.com/ppiankov/intelbench/internal/model"
	"github.com/ppiankov/intelbench/internal/store"
	"github.com/ppiankov/intelbench/internal/workbench"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time via -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
	logger  = slog.Default()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "intelbench",
	Short: "intelbench - structured analytic techniques for intelligence analysts",
	Long: `intelbench is a local workbench for intelligence analysis.

It supports Analysis of Competing Hypotheses (ACH) matrices scored by
weighted inconsistency, cognitive bias checklists, and extraction of
indicators of compromise (IOCs) from threat reports, with defang/refang
handling for safe sharing.

Projects are kept in a local database and can be imported and exported
as JSON, Markdown, HTML or XLSX.

Scores rank hypotheses; they do not prove any of them.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.Init(logging.Options{Verbose: verbose})
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of intelbench.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("intelbench %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.intelbench/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// A missing .env is normal
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".intelbench"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// INTELBENCH_CACHE_ENABLED maps to cache.enabled
	viper.SetEnvPrefix("INTELBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(model.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env variables resolve through Unmarshal
func setDefaults(cfg *model.Config) {
	viper.SetDefault("store.path", cfg.Store.Path)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)
	viper.SetDefault("extraction.strip_html", cfg.Extraction.StripHTML)
	viper.SetDefault("extraction.max_input_bytes", cfg.Extraction.MaxInputBytes)
	viper.SetDefault("output.defanged", cfg.Output.Defanged)
	viper.SetDefault("output.verbose", cfg.Output.Verbose)
	viper.SetDefault("output.include_footer", cfg.Output.IncludeFooter)
	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
}

// loadConfig returns the effective configuration: defaults, file, env, flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = 1
	}
	return cfg, nil
}

// withService opens the project store for the duration of fn
func withService(ctx context.Context, fn func(ctx context.Context, svc *workbench.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open project store: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("close project store", "error", cerr)
		}
	}()

	logger.Debug("project store opened", "path", cfg.Store.Path)
	return fn(ctx, workbench.NewService(st, logger))
}
