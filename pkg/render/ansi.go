package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// Thumbnail renders img as rows of truecolor half-blocks, two columns per
// sampled pixel. cols is the output width in pixels; the height follows
// the image's aspect ratio, capped at maxRows.
func Thumbnail(img image.Image, cols, maxRows int) string {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return ""
	}
	if cols < 4 {
		cols = 4
	}
	rows := cols * b.Dy() / b.Dx()
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}
	if rows < 2 {
		rows = 2
	}

	var out strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			sx := b.Min.X + x*b.Dx()/cols
			sy := b.Min.Y + y*b.Dy()/rows
			c := color.NRGBAModel.Convert(img.At(sx, sy)).(color.NRGBA)
			fmt.Fprintf(&out, "\x1b[48;2;%d;%d;%dm  \x1b[0m", c.R, c.G, c.B)
		}
		if y < rows-1 {
			out.WriteByte('\n')
		}
	}
	return out.String()
}

// framesFromGIF renders up to maxFrames frames of an animated GIF.
func framesFromGIF(data []byte, cols, maxRows, maxFrames int) ([]string, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif has no frames")
	}
	n := len(g.Image)
	if maxFrames > 0 && n > maxFrames {
		n = maxFrames
	}
	frames := make([]string, 0, n)
	for i := range n {
		frames = append(frames, Thumbnail(g.Image[i], cols, maxRows))
	}
	return frames, nil
}

// frameFromImage renders a single still.
func frameFromImage(data []byte, cols, maxRows int) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return Thumbnail(img, cols, maxRows), nil
}

func isGIF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))
}
