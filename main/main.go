package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phil-mansfield/gosam/io"
	"github.com/phil-mansfield/gosam/stats"
)

var (
	verbose bool
	logFile string
	configFile string

	logger = zap.NewNop()
	runID = uuid.NewString()
)

var rootCmd = &cobra.Command{
	Use: "gosam",
	Short: "Satellite stripping and orphan tracking for semi-analytic models",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger(logFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var exampleConfigCmd = &cobra.Command{
	Use: "example-config",
	Short: "Print an example run configuration file to stdout",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(io.ExampleRunFile)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "Log at debug level in console format.",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFile, "log-file", "", "Also write logs to this file. Overrides LogFile.",
	)
	rootCmd.PersistentFlags().StringVarP(
		&configFile, "config", "c", "", "Run configuration file. See example-config.",
	)

	rootCmd.AddCommand(exampleConfigCmd, orphansCmd, stripProfileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

// initLogger (re)builds the global logger, writing to path as well as
// stderr if path is non-empty.
func initLogger(path string) error {
	config := zap.NewProductionConfig()
	if verbose {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if path != "" {
		config.OutputPaths = append(config.OutputPaths, path)
		config.ErrorOutputPaths = append(config.ErrorOutputPaths, path)
	}

	l, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	_ = logger.Sync()
	logger = l.With(zap.String("run", runID))
	return nil
}

// loadRun reads the --config file and switches logging over to its LogFile
// unless --log-file was given.
func loadRun(cmd *cobra.Command) (*io.RunConfig, error) {
	if configFile == "" {
		return nil, fmt.Errorf("%s needs a --config file", cmd.Name())
	}
	con, err := io.ReadRunConfig(configFile)
	if err != nil { return nil, err }

	if logFile == "" && con.ValidLogFile() {
		if err := initLogger(con.LogFile); err != nil { return nil, err }
	}
	logger.Info("read run configuration",
		zap.String("command", cmd.Name()), zap.String("config", configFile),
	)
	return con, nil
}

// abortOnPanic turns a panic from the core into a fatal log entry, which
// exits non-zero. It must be deferred.
func abortOnPanic() {
	if x := recover(); x != nil {
		logger.Fatal("run aborted", zap.Any("panic", x))
	}
}

func writeMetrics(con *io.RunConfig, rec *stats.Recorder) {
	if !con.ValidMetricsFile() { return }
	if err := rec.WriteTextfile(con.MetricsFile); err != nil {
		logger.Error("could not write metrics",
			zap.String("path", con.MetricsFile), zap.Error(err),
		)
		return
	}
	logger.Info("wrote metrics", zap.String("path", con.MetricsFile))
}
