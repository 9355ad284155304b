package render

import (
	"bytes"

	"github.com/dhowden/tag"
	"github.com/zfogg/sidechain/reels/pkg/logger"
)

// Sound is the audio attribution embedded in a media file.
type Sound struct {
	Title  string
	Artist string
}

// String formats the attribution the way the card shows it.
func (s *Sound) String() string {
	switch {
	case s == nil:
		return ""
	case s.Artist == "":
		return s.Title
	case s.Title == "":
		return s.Artist
	default:
		return s.Title + " · " + s.Artist
	}
}

// ReadSound reads title and artist tags from media bytes. Files without
// readable tags have no attribution.
func ReadSound(data []byte) *Sound {
	if len(data) < 11 {
		return nil
	}
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		logger.Debug("No sound metadata", "error", err.Error())
		return nil
	}
	s := &Sound{Title: m.Title(), Artist: m.Artist()}
	if s.Title == "" && s.Artist == "" {
		return nil
	}
	return s
}
