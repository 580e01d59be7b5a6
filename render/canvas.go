package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	colorBlack     = color.RGBA{0, 0, 0, 255}
	colorWhite     = color.RGBA{255, 255, 255, 255}
	colorLightGrey = color.RGBA{211, 211, 211, 255}
	colorLightBlue = color.RGBA{173, 216, 230, 255}
	colorOrange    = color.RGBA{255, 165, 0, 255}
	colorPurple    = color.RGBA{128, 0, 128, 255}

	baseColors = map[byte]color.RGBA{
		'a': {0, 191, 0, 255},
		'c': {71, 71, 255, 255},
		'g': {255, 165, 0, 255},
		't': {246, 71, 71, 255},
	}
)

// baseColor returns the color for a lowercase base letter.
func baseColor(b byte) color.RGBA {
	if c, ok := baseColors[b]; ok {
		return c
	}

	return colorBlack
}

// contrastColor returns black or white, whichever reads better on the
// color of base b. Unknown letters get white.
func contrastColor(b byte) color.RGBA {
	c, ok := baseColors[b]
	if !ok {
		return colorWhite
	}
	// white text needs a contrast ratio of at least 3:1
	if 1.05/(luminance(c)+0.05) >= 3 {
		return colorWhite
	}

	return colorBlack
}

func luminance(c color.RGBA) float64 {
	lin := func(v uint8) float64 {
		s := float64(v) / 255
		if s <= 0.03928 {
			return s / 12.92
		}

		return math.Pow((s+0.055)/1.055, 2.4)
	}

	return 0.2126*lin(c.R) + 0.7152*lin(c.G) + 0.0722*lin(c.B)
}

// canvas draws on an RGBA image with fractional pixel coordinates.
type canvas struct {
	img   *image.RGBA
	width float64
	face  font.Face
}

func newCanvas(img *image.RGBA, width float64) *canvas {
	return &canvas{img: img, width: width, face: basicfont.Face7x13}
}

// pixelSpan rounds [v, v+size) to whole pixels, at least one wide.
func pixelSpan(v, size float64) (int, int) {
	lo := int(math.Round(v))
	hi := int(math.Round(v + size))
	if hi <= lo {
		hi = lo + 1
	}

	return lo, hi
}

// fillRect fills a rectangle, skipping ones entirely outside the canvas width.
func (c *canvas) fillRect(x, y, w, h float64, col color.RGBA) {
	if x > c.width || x+w < 0 {
		return
	}
	x0, x1 := pixelSpan(x, w)
	y0, y1 := pixelSpan(y, h)
	r := image.Rect(x0, y0, x1, y1).Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// hline draws a one pixel line from x0 to x1 on row y.
func (c *canvas) hline(x0, x1, y float64, col color.RGBA) {
	row := int(math.Floor(y))
	c.fillRect(x0, float64(row), x1-x0, 1, col)
}

// charWidth returns the glyph advance in pixels.
func (c *canvas) charWidth() float64 {
	return float64(font.MeasureString(c.face, "M").Ceil())
}

// charHeight returns the glyph line height in pixels.
func (c *canvas) charHeight() float64 {
	return float64(c.face.Metrics().Height.Ceil())
}

func (c *canvas) measure(s string) float64 {
	return float64(font.MeasureString(c.face, s).Ceil())
}

// text draws s with its baseline origin at (x, y).
func (c *canvas) text(s string, x, y float64, col color.RGBA) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(s)
}
