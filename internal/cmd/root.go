package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zfogg/sidechain/reels/pkg/client"
	"github.com/zfogg/sidechain/reels/pkg/config"
	"github.com/zfogg/sidechain/reels/pkg/logger"
	"github.com/zfogg/sidechain/reels/pkg/output"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
)

var rootCmd = &cobra.Command{
	Use:   "reels",
	Short: "Sidechain Reels - vertical short-video feed in the terminal",
	Long: `Sidechain Reels is a terminal client for the Sidechain reels feed.
Swipe through clips, like and save them, and read or join the
conversation, from an interactive player or one-shot commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		logger.Init(verbose)
		client.Init()

		if !output.ValidateOutputFormat(outputFmt) {
			return fmt.Errorf("invalid output format %q: use text, json, or table", outputFmt)
		}
		_ = config.SetString("output.format", outputFmt)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/sidechain/reels/config.toml)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "output", "text", "Output format: text, json, table")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(likeCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(personalizeCmd)
	rootCmd.AddCommand(devserverCmd)
	rootCmd.AddCommand(versionCmd)
}
