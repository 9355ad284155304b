package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zfogg/sidechain/reels/pkg/service"
)

var (
	feedCategory string
	feedCursor   string
	feedLatest   bool
	feedForYou   bool
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print one page of the reels feed",
	Long: `Print one page of the reels feed. Without --latest or --for-you the
stored personalization preference picks the feed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reelsService, err := service.NewReelsService()
		if err != nil {
			return err
		}
		var personalized *bool
		switch {
		case feedLatest:
			off := false
			personalized = &off
		case feedForYou:
			on := true
			personalized = &on
		}
		return reelsService.ViewFeed(cmd.Context(), feedCategory, personalized, feedCursor)
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <reel-id>",
	Short: "Like or unlike a reel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reelsService, err := service.NewReelsService()
		if err != nil {
			return err
		}
		return reelsService.ToggleLike(cmd.Context(), args[0])
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <reel-id>",
	Short: "Save or unsave a reel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reelsService, err := service.NewReelsService()
		if err != nil {
			return err
		}
		return reelsService.ToggleSave(cmd.Context(), args[0])
	},
}

func init() {
	feedCmd.Flags().StringVar(&feedCategory, "category", "", "Only show reels in this category")
	feedCmd.Flags().StringVar(&feedCursor, "cursor", "", "Continue from a cursor printed by a previous page")
	feedCmd.Flags().BoolVar(&feedLatest, "latest", false, "Show the latest feed")
	feedCmd.Flags().BoolVar(&feedForYou, "for-you", false, "Show the personalized feed")
	feedCmd.MarkFlagsMutuallyExclusive("latest", "for-you")
}
