package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/zfogg/sidechain/reels/pkg/api"
	"github.com/zfogg/sidechain/reels/pkg/client"
	"github.com/zfogg/sidechain/reels/pkg/config"
	"github.com/zfogg/sidechain/reels/pkg/logger"
	"github.com/zfogg/sidechain/reels/pkg/output"
	"github.com/zfogg/sidechain/reels/pkg/prefs"
	"github.com/zfogg/sidechain/reels/pkg/reels"
	"github.com/zfogg/sidechain/reels/pkg/render"
)

// ReelsService provides feed operations for one-shot commands
type ReelsService struct {
	api   *api.Client
	prefs reels.PreferenceStore
}

// NewReelsService creates a reels service from configuration
func NewReelsService() (*ReelsService, error) {
	store, err := prefs.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	return NewReelsServiceWith(api.New(client.GetClient(), config.GetInt("feed.page_size")), store), nil
}

// NewReelsServiceWith creates a reels service over explicit collaborators
func NewReelsServiceWith(c *api.Client, store reels.PreferenceStore) *ReelsService {
	return &ReelsService{api: c, prefs: store}
}

// Personalized returns the stored personalization preference. It defaults
// to on.
func (rs *ReelsService) Personalized() bool {
	if v, ok := rs.prefs.GetBool(reels.PersonalizedPref); ok {
		return v
	}
	return true
}

// SetPersonalized stores the personalization preference
func (rs *ReelsService) SetPersonalized(on bool) error {
	logger.Debug("Setting personalization", "on", on)
	if err := rs.prefs.SetBool(reels.PersonalizedPref, on); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	if on {
		output.PrintSuccess("Personalized feed on")
	} else {
		output.PrintSuccess("Personalized feed off, showing latest")
	}
	return nil
}

// ViewFeed prints one page of the feed. A nil personalized uses the stored
// preference; an empty cursor starts from the top.
func (rs *ReelsService) ViewFeed(ctx context.Context, category string, personalized *bool, cursor string) error {
	key := reels.FeedKey{Personalized: rs.Personalized(), Category: category}
	if personalized != nil {
		key.Personalized = *personalized
	}
	logger.Debug("Viewing reels", "key", key.String(), "cursor", cursor)

	var cur *string
	if cursor != "" {
		cur = &cursor
	}
	page, err := rs.api.FetchPage(ctx, key, cur)
	if err != nil {
		return fmt.Errorf("failed to fetch reels: %w", err)
	}

	if len(page.Items) == 0 && output.GetOutputFormat() != output.FormatJSON {
		output.PrintInfo("No reels in %s.", key.String())
		return nil
	}

	rows := make([][]string, 0, len(page.Items))
	for _, it := range page.Items {
		rows = append(rows, []string{
			it.ID,
			it.Author.Handle(),
			it.Category,
			render.CompactCount(it.LikeCount),
			render.CompactCount(it.CommentCount),
			render.CompactCount(it.SaveCount),
			marks(it.Liked, it.Saved),
			truncate(it.Caption, 40),
		})
	}
	title := "Reels: " + key.String()
	if err := output.PrintList(title, page.Items, []string{"ID", "AUTHOR", "CATEGORY", "LIKES", "COMMENTS", "SAVES", "YOU", "CAPTION"}, rows); err != nil {
		return err
	}
	if page.NextCursor != nil && output.GetOutputFormat() != output.FormatJSON {
		output.PrintInfo("More: --cursor %s", *page.NextCursor)
	}
	return nil
}

// ToggleLike flips the like on a reel
func (rs *ReelsService) ToggleLike(ctx context.Context, itemID string) error {
	res, err := rs.api.ToggleLike(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to toggle like: %w", err)
	}
	return printToggle("Liked", "Unliked", itemID, res)
}

// ToggleSave flips the save on a reel
func (rs *ReelsService) ToggleSave(ctx context.Context, itemID string) error {
	res, err := rs.api.ToggleSave(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to toggle save: %w", err)
	}
	return printToggle("Saved", "Unsaved", itemID, res)
}

func printToggle(on, off, id string, res reels.ToggleResult) error {
	if output.GetOutputFormat() == output.FormatJSON {
		return output.PrintRecord("", map[string]interface{}{"id": id, "active": res.Active, "count": res.Count}, nil)
	}
	verb := off
	if res.Active {
		verb = on
	}
	output.PrintSuccess("%s %s (%d)", verb, id, res.Count)
	return nil
}

func marks(liked, saved bool) string {
	var m []string
	if liked {
		m = append(m, "♥")
	}
	if saved {
		m = append(m, "■")
	}
	return strings.Join(m, " ")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
