package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/zfogg/sidechain/reels/pkg/service"
)

var (
	commentCursor  string
	commentLimit   int
	commentReplyTo string
)

var commentCmd = &cobra.Command{
	Use:     "comments",
	Aliases: []string{"comment"},
	Short:   "Comment commands",
	Long:    "Read and write comments on reels",
}

var commentListCmd = &cobra.Command{
	Use:   "list <reel-id>",
	Short: "List comments on a reel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommentService().List(cmd.Context(), args[0], commentCursor, commentLimit)
	},
}

var commentRepliesCmd = &cobra.Command{
	Use:   "replies <comment-id>",
	Short: "List replies to a comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommentService().Replies(cmd.Context(), args[0])
	},
}

var commentPostCmd = &cobra.Command{
	Use:   "post <reel-id> <text>...",
	Short: "Post a comment or reply",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := strings.Join(args[1:], " ")
		return service.NewCommentService().Post(cmd.Context(), args[0], body, commentReplyTo)
	},
}

var commentLikeCmd = &cobra.Command{
	Use:   "like <comment-id>",
	Short: "Like or unlike a comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewCommentService().ToggleLike(cmd.Context(), args[0])
	},
}

func init() {
	commentListCmd.Flags().StringVar(&commentCursor, "cursor", "", "Continue from a cursor printed by a previous page")
	commentListCmd.Flags().IntVar(&commentLimit, "limit", 0, "Comments per page (default: comments.page_size)")
	commentPostCmd.Flags().StringVar(&commentReplyTo, "reply-to", "", "Comment ID to reply to")

	commentCmd.AddCommand(commentListCmd)
	commentCmd.AddCommand(commentRepliesCmd)
	commentCmd.AddCommand(commentPostCmd)
	commentCmd.AddCommand(commentLikeCmd)
}
