package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ironsheep/color-replace-mcp/internal/logging"
	"github.com/ironsheep/color-replace-mcp/internal/pipeline"
	"github.com/ironsheep/color-replace-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "color-replace-mcp",
	Short: "MCP server for rule-based image color replacement",
	Long: `color-replace-mcp communicates via MCP protocol over stdin/stdout.
Configure it in your MCP client (e.g., Claude Desktop).

Environment variables:
  COLOR_MCP_LOG_LEVEL   debug, info, warn or error (default info)
  COLOR_MCP_WORKERS     concurrent image transforms (default: CPU count)`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	RunE:              runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("color-replace-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", os.Getenv("COLOR_MCP_LOG_LEVEL"), "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Int("workers", envInt("COLOR_MCP_WORKERS"), "Concurrent image transforms (0 = CPU count)")
	rootCmd.Version = Version
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging sends structured logs to stderr; stdout is for MCP protocol.
func setupLogging(cmd *cobra.Command, args []string) error {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logging.SetLogger(logger)
	return nil
}

// pipelineOptions applies the --workers flag to the default options.
func pipelineOptions(cmd *cobra.Command) pipeline.Options {
	opts := pipeline.DefaultOptions()
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		opts.Workers = workers
	}
	return opts
}

func runServer(cmd *cobra.Command, args []string) error {
	opts := pipelineOptions(cmd)
	logging.Logger().Info("starting server",
		"version", Version, "built", BuildTime, "commit", GitCommit, "workers", opts.Workers)

	srv := server.New(opts)
	defer srv.Close()

	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func envInt(key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return n
}
