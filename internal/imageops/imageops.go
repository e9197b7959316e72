package imageops

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MaxDimension      = 4096
	maxInputDimension = 8192
	DefaultMaxBytes   = 8 << 20
	EmojiSize         = 128
	StickerSize       = 320
)

var (
	ErrTooLarge      = errors.New("image is too large")
	ErrBadDimensions = fmt.Errorf("dimensions must be between 1 and %d pixels", MaxDimension)
	ErrUnsupported   = errors.New("unsupported image format, use png, jpeg, gif or webp")
)

type Mode string

const (
	Fit     Mode = "fit"
	Fill    Mode = "fill"
	Stretch Mode = "stretch"
)

type Options struct {
	Width, Height int
	Mode          Mode
	Pixelated     bool
}

// Decode reads at most maxBytes of r and decodes the first frame.
func Decode(r io.Reader, maxBytes int64) (image.Image, string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxBytes {
		return nil, "", ErrTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, "", ErrUnsupported
	} else if err != nil {
		return nil, "", err
	}
	if cfg.Width > maxInputDimension || cfg.Height > maxInputDimension {
		return nil, "", ErrTooLarge
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	return img, format, nil
}

func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func scaler(pixelated bool) draw.Scaler {
	if pixelated {
		return draw.NearestNeighbor
	}
	return draw.CatmullRom
}

func validDimension(n int) bool {
	return n >= 1 && n <= MaxDimension
}

func Resize(src image.Image, opts Options) (image.Image, error) {
	if !validDimension(opts.Width) || !validDimension(opts.Height) {
		return nil, ErrBadDimensions
	}
	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	if sw == 0 || sh == 0 {
		return nil, ErrBadDimensions
	}
	w, h := opts.Width, opts.Height
	sr := sb

	switch opts.Mode {
	case Fit, "":
		scale := math.Min(float64(w)/sw, float64(h)/sh)
		w = max(1, int(math.Round(sw*scale)))
		h = max(1, int(math.Round(sh*scale)))
	case Fill:
		target := float64(w) / float64(h)
		if sw/sh > target {
			cw := int(math.Round(sh * target))
			x0 := sb.Min.X + (sb.Dx()-cw)/2
			sr = image.Rect(x0, sb.Min.Y, x0+cw, sb.Max.Y)
		} else {
			ch := int(math.Round(sw / target))
			y0 := sb.Min.Y + (sb.Dy()-ch)/2
			sr = image.Rect(sb.Min.X, y0, sb.Max.X, y0+ch)
		}
	case Stretch:
	default:
		return nil, fmt.Errorf("unknown resize mode %q", opts.Mode)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	scaler(opts.Pixelated).Scale(dst, dst.Bounds(), src, sr, draw.Src, nil)
	return dst, nil
}

// Scale resizes by percent, keeping the aspect ratio.
func Scale(src image.Image, percent int, pixelated bool) (image.Image, error) {
	if percent <= 0 {
		return nil, ErrBadDimensions
	}
	b := src.Bounds()
	w := int(math.Round(float64(b.Dx()) * float64(percent) / 100))
	h := int(math.Round(float64(b.Dy()) * float64(percent) / 100))
	return Resize(src, Options{Width: max(w, 1), Height: max(h, 1), Mode: Stretch, Pixelated: pixelated})
}

// Emoji fits src inside the square Discord uses for custom emoji.
func Emoji(src image.Image) (image.Image, error) {
	return Resize(src, Options{Width: EmojiSize, Height: EmojiSize, Mode: Fit})
}

// Sticker fits src inside the square Discord uses for stickers.
func Sticker(src image.Image) (image.Image, error) {
	return Resize(src, Options{Width: StickerSize, Height: StickerSize, Mode: Fit})
}
