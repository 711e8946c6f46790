package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cuentas-cli",
		Short:         "Cuentas CLI tool",
		Long:          `A command line interface for previewing and browsing movimientos through the cuentas API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the cuentas API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(cotizacionCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(movimientosCmd())

	return rootCmd
}
