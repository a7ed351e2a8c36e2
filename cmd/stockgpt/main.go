package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	flagAPIKey   string
	flagProvider string
)

var rootCmd = &cobra.Command{
	Use:   "stockgpt",
	Short: "A CLI for AI-assisted stock analysis",
	Long: `stockgpt fetches market data, computes technical indicators,
aggregates recent news, and asks an LLM provider for an investment
narrative. Multiple symbols can be ranked and correlated with --compare.`,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key for the selected LLM provider (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "LLM provider: openai, anthropic or gemini (overrides config)")

	rootCmd.AddCommand(analyzeCmd, compareCmd, serveCmd, watchCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
