// Package cmd provides the command-line interface for worksim.
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	envLogLevel = "WORKSIM_LOG_LEVEL"
	envTraceDB  = "WORKSIM_TRACE_DB"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "worksim",
	Short: "Worksim evaluates assignments of tasks to workers by simulation.",
	Long: `Worksim runs a discrete-event simulation of workers processing ` +
		`their task queues and reports the time at which the last task ` +
		`completes. Settings can also come from the environment or a .env ` +
		`file (` + envLogLevel + `, ` + envTraceDB + `).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnv(); err != nil {
			return err
		}

		logger, err := newLogger(os.Getenv(envLogLevel))
		if err != nil {
			return err
		}

		zap.ReplaceGlobals(logger)

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()

	_ = zap.L().Sync()

	if err != nil {
		atexit.Exit(1)
	}
}

func loadEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// newLogger builds a console logger writing to stderr. An empty level means
// warn.
func newLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.WarnLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}

		lvl = parsed
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.DisableStacktrace = true

	return config.Build()
}
