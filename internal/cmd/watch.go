package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/zfogg/sidechain/reels/internal/tui"
	"github.com/zfogg/sidechain/reels/pkg/api"
	"github.com/zfogg/sidechain/reels/pkg/client"
	"github.com/zfogg/sidechain/reels/pkg/config"
	"github.com/zfogg/sidechain/reels/pkg/logger"
	"github.com/zfogg/sidechain/reels/pkg/prefs"
	"github.com/zfogg/sidechain/reels/pkg/reels"
	"github.com/zfogg/sidechain/reels/pkg/render"
	"github.com/zfogg/sidechain/reels/pkg/websocket"
	"golang.org/x/term"
)

var (
	watchCategory string
	watchMuted    bool
	watchNoLive   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the interactive reels player",
	Long: `Open the full-screen reels player. One reel fills the screen and
plays while it is active; scroll or use j/k to move between reels.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("watch needs an interactive terminal; use 'reels feed' instead")
		}

		store, err := prefs.Default()
		if err != nil {
			return fmt.Errorf("failed to open preferences: %w", err)
		}

		http := client.GetClient()
		c := api.New(http, config.GetInt("feed.page_size"))
		session := reels.NewSession(reels.Deps{
			Source:       c,
			Interactions: c,
			Comments:     c,
			Prefs:        store,
			NewPlayer:    render.NewFactory(render.NewLoader(http)),
		}, sessionOptions())

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		deps := tui.Deps{
			Session:    session,
			Category:   watchCategory,
			Categories: config.GetStringSlice("feed.categories"),
		}
		if !watchNoLive {
			deps.Live = websocket.NewClient(websocket.FromConfig())
		}

		logger.Info("Starting reels player", "base_url", config.GetString("api.base_url"))
		p := tea.NewProgram(tui.NewApp(ctx, deps), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
		_, err = p.Run()
		return err
	},
}

func sessionOptions() reels.Options {
	opts := reels.DefaultOptions()
	if d := config.GetDuration("playback.grace"); d > 0 {
		opts.Grace = d
	}
	opts.Preload = config.GetInt("playback.preload")
	opts.PrefetchDistance = config.GetInt("feed.prefetch_distance")
	opts.CommentPageSize = config.GetInt("comments.page_size")
	opts.Muted = watchMuted || config.GetBool("playback.muted")
	return opts
}

func init() {
	watchCmd.Flags().StringVar(&watchCategory, "category", "", "Only show reels in this category")
	watchCmd.Flags().BoolVar(&watchMuted, "muted", false, "Start muted")
	watchCmd.Flags().BoolVar(&watchNoLive, "no-live", false, "Do not subscribe to live counter updates")
}
