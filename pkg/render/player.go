package render

import (
	"context"
	"fmt"
	"time"

	"github.com/zfogg/sidechain/reels/pkg/reels"
)

// FramePlayer plays decoded ANSI frames for one feed item.
type FramePlayer struct {
	loader    *Loader
	mediaURL  string
	posterURL string

	media   *Media
	frame   int
	playing bool
	muted   bool
}

var _ reels.Player = (*FramePlayer)(nil)

// NewFactory returns a player factory backed by loader.
func NewFactory(loader *Loader) reels.PlayerFactory {
	return func(item *reels.FeedItem) reels.Player {
		return NewFramePlayer(loader, item)
	}
}

// NewFramePlayer copies the media URLs so Load never reads the shared item.
func NewFramePlayer(loader *Loader, item *reels.FeedItem) *FramePlayer {
	return &FramePlayer{loader: loader, mediaURL: item.MediaURL, posterURL: item.PosterURL}
}

func (p *FramePlayer) Load(ctx context.Context) (interface{}, error) {
	return p.loader.Load(ctx, p.mediaURL, p.posterURL)
}

func (p *FramePlayer) Attach(payload interface{}) error {
	media, ok := payload.(*Media)
	if !ok || media == nil || len(media.Frames) == 0 {
		return fmt.Errorf("no frames to attach")
	}
	p.media = media
	p.frame = 0
	return nil
}

func (p *FramePlayer) Play()               { p.playing = p.media != nil }
func (p *FramePlayer) Pause()              { p.playing = false }
func (p *FramePlayer) SetMuted(muted bool) { p.muted = muted }

// Advance steps one frame and reports the end of the clip. The position
// rewinds so a later Play starts over.
func (p *FramePlayer) Advance() bool {
	if p.media == nil || p.media.Static() {
		return false
	}
	p.frame++
	if p.frame >= len(p.media.Frames) {
		p.frame = 0
		return true
	}
	return false
}

func (p *FramePlayer) Interval() time.Duration {
	if p.media == nil || p.media.Static() {
		return 0
	}
	return p.media.Interval
}

func (p *FramePlayer) Release() {
	p.media = nil
	p.frame = 0
	p.playing = false
}

func (p *FramePlayer) Handle() reels.PlaybackHandle {
	return reels.PlaybackHandle{Ready: p.media != nil, Playing: p.playing, Muted: p.muted}
}

// Frame returns the frame to draw, or "" before the media is attached.
func (p *FramePlayer) Frame() string {
	if p.media == nil {
		return ""
	}
	return p.media.Frames[p.frame]
}

// Sound returns the clip's audio attribution, if any.
func (p *FramePlayer) Sound() *Sound {
	if p.media == nil {
		return nil
	}
	return p.media.Sound
}
