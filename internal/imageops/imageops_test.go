package imageops

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.NRGBA{255, 0, 0, 255}
	blue = color.NRGBA{0, 0, 255, 255}
)

// halves returns an image whose left half is red and right half is blue.
func halves(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if x < w/2 {
				img.SetNRGBA(x, y, red)
			} else {
				img.SetNRGBA(x, y, blue)
			}
		}
	}
	return img
}

func encoded(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	data := encoded(t, halves(4, 2))

	img, format, err := Decode(bytes.NewReader(data), 0)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())

	_, _, err = Decode(bytes.NewReader(data), int64(len(data)-1))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, _, err = Decode(strings.NewReader("definitely not an image"), 0)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestResizeModes(t *testing.T) {
	src := halves(400, 200)

	fit, err := Resize(src, Options{Width: 100, Height: 100, Mode: Fit})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), fit.Bounds())

	stretch, err := Resize(src, Options{Width: 100, Height: 100, Mode: Stretch})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), stretch.Bounds())

	fill, err := Resize(src, Options{Width: 100, Height: 100, Mode: Fill})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), fill.Bounds())
}

func TestFillCropsCentre(t *testing.T) {
	fill, err := Resize(halves(4, 2), Options{Width: 2, Height: 2, Mode: Fill, Pixelated: true})
	require.NoError(t, err)

	dst := fill.(*image.NRGBA)
	assert.Equal(t, red, dst.NRGBAAt(0, 0))
	assert.Equal(t, blue, dst.NRGBAAt(1, 0))
	assert.Equal(t, blue, dst.NRGBAAt(1, 1))
}

func TestPixelatedKeepsHardEdges(t *testing.T) {
	up, err := Resize(halves(2, 1), Options{Width: 8, Height: 4, Mode: Stretch, Pixelated: true})
	require.NoError(t, err)

	dst := up.(*image.NRGBA)
	for x := range 8 {
		want := blue
		if x < 4 {
			want = red
		}
		assert.Equal(t, want, dst.NRGBAAt(x, 2), "x=%d", x)
	}
}

func TestBadDimensions(t *testing.T) {
	src := halves(10, 10)
	for _, opts := range []Options{
		{Width: 0, Height: 10},
		{Width: 10, Height: MaxDimension + 1},
	} {
		_, err := Resize(src, opts)
		assert.ErrorIs(t, err, ErrBadDimensions)
	}
	_, err := Resize(src, Options{Width: 10, Height: 10, Mode: "squish"})
	assert.Error(t, err)

	_, err = Scale(src, 0, false)
	assert.ErrorIs(t, err, ErrBadDimensions)
	_, err = Scale(src, 100000, false)
	assert.ErrorIs(t, err, ErrBadDimensions)
}

func TestScaleEmojiSticker(t *testing.T) {
	src := halves(1000, 500)

	half, err := Scale(src, 50, false)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 500, 250), half.Bounds())

	emoji, err := Emoji(src)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 128, 64), emoji.Bounds())

	sticker, err := Sticker(src)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 160), sticker.Bounds())
}
