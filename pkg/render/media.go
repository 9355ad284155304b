package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zfogg/sidechain/reels/pkg/config"
	"github.com/zfogg/sidechain/reels/pkg/logger"
)

const (
	maxMediaBytes   = 16 << 20
	defaultMaxRows  = 24
	defaultFrames   = 24
	defaultInterval = 120 * time.Millisecond
	ffmpegTimeout   = 20 * time.Second
)

// Media is a decoded, ready-to-draw item.
type Media struct {
	Frames   []string
	Interval time.Duration
	Sound    *Sound
	// Poster is set when the media itself could not be decoded and the
	// still poster image stands in for it.
	Poster bool
}

// Static reports whether the media is a single still frame.
func (m *Media) Static() bool { return len(m.Frames) <= 1 }

// Loader downloads media and turns it into ANSI frames. Animated GIFs and
// stills decode in-process; anything else goes through ffmpeg when it is
// installed.
type Loader struct {
	HTTP      *resty.Client
	FFmpeg    string
	Cols      int
	MaxRows   int
	MaxFrames int
	Interval  time.Duration

	ffmpegOnce sync.Once
	ffmpegPath string
}

// NewLoader builds a loader from the render.* and playback.* config keys.
func NewLoader(http *resty.Client) *Loader {
	return &Loader{
		HTTP:      http,
		FFmpeg:    config.GetString("render.ffmpeg"),
		Cols:      config.GetInt("render.width"),
		MaxRows:   defaultMaxRows,
		MaxFrames: defaultFrames,
		Interval:  config.GetDuration("playback.frame_interval"),
	}
}

// Load fetches and decodes mediaURL, falling back to posterURL as a still.
func (l *Loader) Load(ctx context.Context, mediaURL, posterURL string) (*Media, error) {
	media, err := l.loadMedia(ctx, mediaURL)
	if err == nil {
		return media, nil
	}
	if posterURL == "" || ctx.Err() != nil {
		return nil, err
	}
	logger.Debug("Media undecodable, using poster", "url", mediaURL, "error", err)
	data, perr := l.fetch(ctx, posterURL)
	if perr != nil {
		return nil, err
	}
	frame, perr := frameFromImage(data, l.cols(), l.MaxRows)
	if perr != nil {
		return nil, err
	}
	return &Media{Frames: []string{frame}, Poster: true}, nil
}

func (l *Loader) loadMedia(ctx context.Context, mediaURL string) (*Media, error) {
	if mediaURL == "" {
		return nil, fmt.Errorf("no media url")
	}
	data, err := l.fetch(ctx, mediaURL)
	if err != nil {
		return nil, err
	}
	frames, err := l.decode(ctx, data)
	if err != nil {
		return nil, err
	}
	return &Media{Frames: frames, Interval: l.interval(), Sound: ReadSound(data)}, nil
}

func (l *Loader) decode(ctx context.Context, data []byte) ([]string, error) {
	if isGIF(data) {
		return framesFromGIF(data, l.cols(), l.MaxRows, l.MaxFrames)
	}
	if frame, err := frameFromImage(data, l.cols(), l.MaxRows); err == nil {
		return []string{frame}, nil
	}
	gifData, err := l.transcode(ctx, data)
	if err != nil {
		return nil, err
	}
	return framesFromGIF(gifData, l.cols(), l.MaxRows, l.MaxFrames)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := l.HTTP.R().
		SetContext(ctx).
		SetResponseBodyLimit(maxMediaBytes).
		Get(url)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("media status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// transcode pipes video bytes through ffmpeg and returns a small GIF.
func (l *Loader) transcode(ctx context.Context, data []byte) ([]byte, error) {
	bin := l.ffmpeg()
	if bin == "" {
		return nil, fmt.Errorf("unsupported media and ffmpeg unavailable")
	}
	ctx, cancel := context.WithTimeout(ctx, ffmpegTimeout)
	defer cancel()

	fps := float64(time.Second) / float64(l.interval())
	filter := fmt.Sprintf("fps=%.2f,scale=%d:-2:flags=lanczos", fps, l.cols()*2)
	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-vf", filter,
		"-frames:v", fmt.Sprintf("%d", l.MaxFrames),
		"-f", "gif",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out, nil
}

func (l *Loader) ffmpeg() string {
	l.ffmpegOnce.Do(func() {
		name := l.FFmpeg
		if name == "" {
			name = "ffmpeg"
		}
		if path, err := exec.LookPath(name); err == nil {
			l.ffmpegPath = path
		}
	})
	return l.ffmpegPath
}

func (l *Loader) cols() int {
	if l.Cols <= 0 {
		return 24
	}
	// two terminal columns per pixel
	return l.Cols / 2
}

func (l *Loader) interval() time.Duration {
	if l.Interval <= 0 {
		return defaultInterval
	}
	return l.Interval
}
