package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/zfogg/sidechain/reels/internal/devserver"
	"github.com/zfogg/sidechain/reels/pkg/config"
	"github.com/zfogg/sidechain/reels/pkg/logger"
)

var devserverAddr string

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local reels backend with generated content",
	Long: `Run a local reels backend serving a generated catalogue, comment
threads, animated clips, live counters, and Prometheus metrics. Point
api.base_url at it to try the player without a real backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		logger.SetOutput(os.Stdout, level)

		addr := devserverAddr
		if addr == "" {
			addr = config.GetString("devserver.addr")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return devserver.New(devserver.OptionsFromConfig()).Run(ctx, addr)
	},
}

func init() {
	devserverCmd.Flags().StringVar(&devserverAddr, "addr", "", "Listen address (default: devserver.addr)")
}
