// Command distress analyzes property addresses from the command line.
//
// Usage:
//
//	distress score "4520 PGA Blvd, Palm Beach Gardens, FL 33418"
//	distress variants "100 Ocean Dr Apt 5, Jupiter, FL 33458"
//	distress batch --input addresses.csv --output analyses.jsonl
//	distress cache clear
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/property-distress-service/internal/app"
	"github.com/couchcryptid/property-distress-service/internal/config"
	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/couchcryptid/property-distress-service/internal/observability"
	"github.com/couchcryptid/property-distress-service/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "distress",
		Short:         "Property distress scoring",
		Long:          `Resolves addresses against property data providers and scores distress signals.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(createScoreCmd())
	root.AddCommand(createVariantsCmd())
	root.AddCommand(createBatchCmd())
	root.AddCommand(createCacheCmd())
	return root
}

// buildService loads configuration and assembles the analyzer. Logs go to
// stderr so stdout stays machine-readable.
func buildService(cmd *cobra.Command) (*app.Service, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel, "text")
	svc, err := app.Build(cfg, logger, observability.NewMetricsForTesting())
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func createScoreCmd() *cobra.Command {
	var caseFile string

	cmd := &cobra.Command{
		Use:   "score [address]",
		Short: "Resolve and score one address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := pipeline.AddressRequest{ID: "cli", Address: strings.Join(args, " ")}
			if caseFile != "" {
				facts, err := readCaseFacts(caseFile)
				if err != nil {
					return err
				}
				req.Case = &facts
			}

			svc, _, err := buildService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			a, err := svc.Analyzer.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeIndented(cmd.OutOrStdout(), a)
		},
	}
	cmd.Flags().StringVar(&caseFile, "case", "", "JSON file with case facts")
	return cmd
}

func createVariantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants [address]",
		Short: "Print the normalized address and the variants tried during resolution",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := domain.ParseRawAddress(strings.Join(args, " "))
			if err := raw.Validate(); err != nil {
				return err
			}
			addr := domain.Normalize(raw)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "normalized: %s\n", addr)
			for i, v := range domain.GenerateVariants(addr) {
				fmt.Fprintf(out, "%2d  %-40s %s\n", i+1, v.Street, v.Transform)
			}
			return nil
		},
	}
}

func createCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the resolution cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached resolution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cfg, err := buildService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.Cache.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s cache\n", cfg.CacheBackend)
			return nil
		},
	})
	return cacheCmd
}

func readCaseFacts(path string) (domain.CaseFacts, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.CaseFacts{}, fmt.Errorf("read case file: %w", err)
	}
	var facts domain.CaseFacts
	if err := json.Unmarshal(b, &facts); err != nil {
		return domain.CaseFacts{}, fmt.Errorf("decode case file: %w", err)
	}
	return facts, nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
