package cli

import (
	"github.com/spf13/cobra"

	"github.com/cadencio-app/cadencio/internal/daemon"
	"github.com/cadencio-app/cadencio/internal/logger"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Listen host (overrides [api].host)")
	serveCmd.Flags().Int("port", 0, "Listen port (overrides [api].port)")
	serveCmd.Flags().Bool("no-sweep", false, "Skip the startup missed-cycle sweep")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API",
	Long: `Run the Cadencio daemon on loopback. It serves the JSON API, a live
dashboard feed at /api/dashboard/live and Prometheus metrics at /metrics.
Stops cleanly on Ctrl+C.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.API.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.API.Port = port
	}
	if noSweep, _ := cmd.Flags().GetBool("no-sweep"); noSweep {
		cfg.Ledger.SweepOnStartup = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.GetLogger().Named("daemon").Infow("starting", "home", homeDir(cmd))
	return daemon.Run(cmd.Context(), cfg)
}
