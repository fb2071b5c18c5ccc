package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mcpcmd "productivity-agent/cmd/mcp"
	"productivity-agent/cmd/server"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "productivity-agent",
	Short: "Tool backend for the personal productivity agent system",
	Long: `Tool backend for a multi-agent personal productivity system.

The agent layer talks to this backend through a JSON tool-call protocol.
It provides:
- task_store: JSON/SQLite-backed task persistence with reports and exports
- date_calculator: deadline urgency, date arithmetic, conflict detection
- workflow_optimizer: completion logging, pattern analysis, recommendations
- prioritize_tasks: Eisenhower-style scoring and quadrant assignment

Serve the tools over MCP (stdio or SSE) with "mcp serve", or over HTTP
with "serve".`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.productivity-agent.yaml)")

	// Storage flags
	rootCmd.PersistentFlags().String("storage", "json", "storage backend (json, sqlite, memory)")
	rootCmd.PersistentFlags().String("data-dir", "data", "data directory")
	rootCmd.PersistentFlags().String("tasks-file", "", "tasks file path (default <data-dir>/tasks.json)")
	rootCmd.PersistentFlags().String("history-file", "", "workflow history file path (default <data-dir>/workflow_history.json)")
	rootCmd.PersistentFlags().Int("min-history-entries", 5, "minimum completion entries required for pattern analysis")

	// Logging flags
	rootCmd.PersistentFlags().String("log-file", "", "log file path (optional)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	viper.BindPFlag("storage", rootCmd.PersistentFlags().Lookup("storage"))
	viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("tasks-file", rootCmd.PersistentFlags().Lookup("tasks-file"))
	viper.BindPFlag("history-file", rootCmd.PersistentFlags().Lookup("history-file"))
	viper.BindPFlag("min-history-entries", rootCmd.PersistentFlags().Lookup("min-history-entries"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(mcpcmd.MCPCmd)
	rootCmd.AddCommand(server.ServerCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Load .env if present; system environment wins otherwise.
	if err := godotenv.Load(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using system environment variables")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".productivity-agent")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
