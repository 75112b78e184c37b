// Package cmd provides the command-line interface for awcheck.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables that supply flag defaults. They may also be set in a
// .env file in the working directory.
const (
	envDB          = "AWCHECK_DB"
	envCSV         = "AWCHECK_CSV"
	envClickHouse  = "AWCHECK_CLICKHOUSE"
	envMonitorPort = "AWCHECK_MONITOR_PORT"
)

// errViolationsFound makes the process exit with status 1.
var errViolationsFound = errors.New("violations found")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "awcheck",
	Short: "awcheck checks write channel traces against the bus protocol.",
	Long: `awcheck replays a recorded trace of the write address and write ` +
		`data channels edge by edge and reports every violation of the ` +
		`handshake, alignment, stall stability and last-beat rules.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		noColor, _ := cmd.Flags().GetBool("no-color")
		if noColor {
			color.NoColor = true
		}

		return loadEnvFile(".env")
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("no-color", false,
		"Disable colored output.")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It exits with status 1 if violations were found and the
// caller asked to fail on them, and with status 2 on any other error.
func Execute() {
	err := rootCmd.Execute()

	switch {
	case err == nil:
		atexit.Exit(0)
	case errors.Is(err, errViolationsFound):
		atexit.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(2)
	}
}

func loadEnvFile(path string) error {
	_, err := os.Stat(path)
	if err != nil {
		return nil
	}

	return godotenv.Load(path)
}

func stringFlagOrEnv(cmd *cobra.Command, name, env string) string {
	value, _ := cmd.Flags().GetString(name)
	if cmd.Flags().Changed(name) {
		return value
	}

	if envValue, ok := os.LookupEnv(env); ok {
		return envValue
	}

	return value
}

func intFlagOrEnv(cmd *cobra.Command, name, env string) (int, error) {
	value, _ := cmd.Flags().GetInt(name)
	if cmd.Flags().Changed(name) {
		return value, nil
	}

	envValue, ok := os.LookupEnv(env)
	if !ok {
		return value, nil
	}

	n, err := strconv.Atoi(envValue)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", env, err)
	}

	return n, nil
}
