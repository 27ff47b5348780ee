// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/assessment-export/internal/config"
	"github.com/xkilldash9x/assessment-export/internal/credentials"
	"github.com/xkilldash9x/assessment-export/internal/observability"
)

const envPrefix = "OSTRICH"

type contextKey string

// configKey is the context key for the validated configuration.
const configKey contextKey = "config"

// osExit allows mocking os.Exit in tests.
var osExit = os.Exit

// Execute builds the command tree and runs it. Fatal errors are logged and
// the process exits with status 1.
func Execute(ctx context.Context) {
	if code := run(ctx, os.Args[1:]); code != 0 {
		osExit(code)
	}
}

// run executes the command tree with args and returns the exit status.
func run(ctx context.Context, args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		observability.GetLogger().Error("Export failed", zap.Error(err))
	}
	observability.Sync()
	if err != nil {
		return 1
	}
	return 0
}

// newRootCmd returns a fresh root command. The export is its default action.
func newRootCmd() *cobra.Command {
	var cfgFile string
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "assessment-export",
		Short:         "Exports Ostrich cyber-risk assessment status to a report file.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, cfgFile)
			if err != nil {
				return err
			}
			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting assessment-export", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
		RunE: runExport,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	addReportFlags(rootCmd)
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// addReportFlags registers the flags that override report and logger settings.
func addReportFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringP("output", "o", "", "report destination, \"stdout\" for standard output (default OstrichAssessmentReport.csv)")
	flags.StringP("format", "f", "", "report format: "+strings.Join(config.SupportedFormats, ", "))
	flags.Bool("status-only", false, "emit only per-sub rows of the summary score")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig resolves configuration with the precedence flags > env > dotenv
// files > config file > defaults.
func loadConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) (*config.Config, error) {
	config.SetDefaults(v)
	if err := initializeConfig(v, cfgFile); err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}
	if err := bindFlags(cmd, v); err != nil {
		return nil, err
	}

	// Dotenv files feed the environment, so they must load before viper
	// resolves env-backed keys.
	envFiles := v.GetStringSlice("credentials.env_files")
	for i, f := range envFiles {
		if expanded, err := homedir.Expand(f); err == nil {
			envFiles[i] = expanded
		}
	}
	if _, err := credentials.LoadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load or validate config: %w", err)
	}

	if f := cmd.Flags().Lookup("status-only"); f != nil && f.Changed {
		statusOnly, _ := cmd.Flags().GetBool("status-only")
		cfg.SetReportIncludeItemRows(!statusOnly)
	}
	return cfg, nil
}

// initializeConfig reads in config file and ENV variables if set.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return err
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	bindings := map[string]string{
		"report.output": "output",
		"report.format": "format",
		"logger.level":  "log-level",
	}
	for key, name := range bindings {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// configFromContext returns the configuration stored by PersistentPreRunE.
func configFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
