// Package cli implements the cadencio command line.
// Every command except serve opens the store directly; no daemon is needed.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cadencio-app/cadencio/internal/daemon"
	"github.com/cadencio-app/cadencio/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cadencio",
	Short: "Personal money ledger with obligation planning",
	Long: `Cadencio keeps a local ledger of income, spending and transfers between
zones, plans repayments for what you owe, and shows how the month is going.
Data lives in $CADENCIO_HOME (default ~/.cadencio).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("home", "", "Data directory (default $CADENCIO_HOME or ~/.cadencio)")
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logger.Close()
	return rootCmd.ExecuteContext(ctx)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func homeDir(cmd *cobra.Command) string {
	if h, _ := cmd.Flags().GetString("home"); h != "" {
		return h
	}
	return daemon.Home()
}

func loadConfig(cmd *cobra.Command) (daemon.Config, error) {
	return daemon.LoadConfig(homeDir(cmd))
}

// openApp loads the config and opens the store. Callers must Close it.
func openApp(cmd *cobra.Command) (*daemon.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return daemon.Open(cmd.Context(), cfg)
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit prints v as JSON when --json is set, otherwise calls text.
func emit(cmd *cobra.Command, v interface{}, text func(io.Writer)) error {
	if wantJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), v)
	}
	text(cmd.OutOrStdout())
	return nil
}

// money formats whole units with thousands separators.
func money(v int64) string { return humanize.Comma(v) }
