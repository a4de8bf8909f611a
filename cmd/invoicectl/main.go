package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"invoiceledger/internal/config"
	"invoiceledger/internal/logger"
)

var (
	logLevel string
	rootCmd  = &cobra.Command{
		Use:   "invoicectl",
		Short: "Inspect supplier invoices offline",
		Long: `invoicectl runs the invoice parser on a local PDF or text file and prints
the result, without touching any project ledger.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.Setup(config.LogConfig{Level: logLevel, Format: "console"})
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(extractCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
