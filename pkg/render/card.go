package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/zfogg/sidechain/reels/pkg/reels"
)

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1)

var activeCardStyle = cardStyle.BorderForeground(lipgloss.Color("212"))

var (
	authorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	captionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	hashtagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("204"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	placeholder  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// Card is everything needed to draw one feed item.
type Card struct {
	Item   *reels.FeedItem
	State  reels.PlaybackState
	Handle reels.PlaybackHandle
	Frame  string
	Sound  *Sound
	Active bool
	Width  int
}

// View renders the card.
func (c Card) View() string {
	width := c.Width
	if width <= 0 {
		width = 52
	}
	inner := width - 4

	var b strings.Builder
	b.WriteString(c.media(inner))
	b.WriteString("\n\n")

	b.WriteString(authorStyle.Render(c.Item.Author.Handle()))
	if name := c.Item.Author.DisplayName; name != "" {
		b.WriteString(" " + dimStyle.Render(name))
	}
	b.WriteString("\n")

	if c.Item.Caption != "" {
		b.WriteString(captionStyle.Width(inner).Render(c.Item.Caption))
		b.WriteString("\n")
	}
	if len(c.Item.Hashtags) > 0 {
		tags := make([]string, len(c.Item.Hashtags))
		for i, t := range c.Item.Hashtags {
			tags[i] = "#" + strings.TrimPrefix(t, "#")
		}
		b.WriteString(hashtagStyle.Width(inner).Render(strings.Join(tags, " ")))
		b.WriteString("\n")
	}
	if s := c.Sound.String(); s != "" {
		b.WriteString(dimStyle.Render("♫ " + s))
		b.WriteString("\n")
	}
	b.WriteString(c.counters())

	style := cardStyle
	if c.Active {
		style = activeCardStyle
	}
	return style.Width(width - 2).Render(b.String())
}

func (c Card) media(width int) string {
	if c.Frame != "" {
		return c.Frame + "\n" + c.status()
	}
	var label string
	switch c.State {
	case reels.Failed:
		label = errorStyle.Render("media unavailable")
	case reels.Priming:
		label = dimStyle.Render("loading…")
	default:
		label = placeholder.Render("▒▒▒")
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, label)
}

func (c Card) status() string {
	var parts []string
	switch c.State {
	case reels.Playing:
		parts = append(parts, "▶")
	case reels.Paused:
		parts = append(parts, "⏸")
	}
	if c.Handle.Muted {
		parts = append(parts, "muted")
	}
	return dimStyle.Render(strings.Join(parts, " "))
}

func (c Card) counters() string {
	like := "♡ " + CompactCount(c.Item.LikeCount)
	if c.Item.Liked {
		like = activeStyle.Render("♥ " + CompactCount(c.Item.LikeCount))
	}
	save := "☐ " + CompactCount(c.Item.SaveCount)
	if c.Item.Saved {
		save = activeStyle.Render("■ " + CompactCount(c.Item.SaveCount))
	}
	comments := "✎ " + CompactCount(c.Item.CommentCount)
	return strings.Join([]string{like, comments, save}, "   ")
}

// CompactCount formats n as 999, 1.2K, 3.4M.
func CompactCount(n int) string {
	switch {
	case n < 1000:
		return fmt.Sprintf("%d", n)
	case n < 1_000_000:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/1000)) + "K"
	default:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/1_000_000)) + "M"
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
