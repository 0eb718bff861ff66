// Package chart draws the political compass as a PNG image.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/butecodosdevs/buteco-linebot-go/internal/compass"
	"github.com/butecodosdevs/buteco-linebot-go/internal/stringutil"
)

// Image geometry in pixels.
const (
	Size        = 800
	margin      = 60
	pointRadius = 5
	maxLabelLen = 18
)

var (
	colorBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorGrid       = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
	colorAxis       = color.RGBA{0x33, 0x33, 0x33, 0xff}
	colorPoint      = color.RGBA{0x1a, 0x1a, 0x1a, 0xff}
	colorText       = color.RGBA{0x22, 0x22, 0x22, 0xff}

	quadrantFill = map[compass.Quadrant]color.RGBA{
		compass.AuthoritarianLeft:  {0xf8, 0xc4, 0xc4, 0xff},
		compass.AuthoritarianRight: {0xc4, 0xd8, 0xf8, 0xff},
		compass.LibertarianLeft:    {0xc8, 0xf0, 0xc8, 0xff},
		compass.LibertarianRight:   {0xf8, 0xf0, 0xb8, 0xff},
	}
)

// canvas maps compass coordinates onto the image.
type canvas struct {
	img  *image.RGBA
	face font.Face
}

func (c *canvas) px(x float64) int {
	span := float64(Size - 2*margin)
	return margin + int(math.Round((x-compass.Min)/(compass.Max-compass.Min)*span))
}

func (c *canvas) py(y float64) int {
	span := float64(Size - 2*margin)
	return margin + int(math.Round((compass.Max-y)/(compass.Max-compass.Min)*span))
}

func (c *canvas) fill(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r, &image.Uniform{C: col}, image.Point{}, draw.Src)
}

func (c *canvas) text(x, y int, s string) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(colorText),
		Face: c.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (c *canvas) textWidth(s string) int {
	return font.MeasureString(c.face, s).Ceil()
}

func (c *canvas) disc(cx, cy, r int, col color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				c.img.Set(cx+dx, cy+dy, col)
			}
		}
	}
}

// Render draws the compass with one labelled dot per point and returns
// the PNG bytes. Labels are reduced to ASCII, since the built-in face has
// no accented glyphs.
func Render(points []compass.Point) ([]byte, error) {
	c := &canvas{
		img:  image.NewRGBA(image.Rect(0, 0, Size, Size)),
		face: basicfont.Face7x13,
	}
	c.fill(c.img.Bounds(), colorBackground)

	mid := c.px(0)
	lo, hi := c.px(compass.Min), c.px(compass.Max)
	c.fill(image.Rect(lo, lo, mid, mid), quadrantFill[compass.AuthoritarianLeft])
	c.fill(image.Rect(mid, lo, hi, mid), quadrantFill[compass.AuthoritarianRight])
	c.fill(image.Rect(lo, mid, mid, hi), quadrantFill[compass.LibertarianLeft])
	c.fill(image.Rect(mid, mid, hi, hi), quadrantFill[compass.LibertarianRight])

	for v := compass.Min; v <= compass.Max; v++ {
		x, y := c.px(v), c.py(v)
		c.fill(image.Rect(x, lo, x+1, hi), colorGrid)
		c.fill(image.Rect(lo, y, hi, y+1), colorGrid)
	}
	c.fill(image.Rect(mid-1, lo, mid+1, hi), colorAxis)
	c.fill(image.Rect(lo, mid-1, hi, mid+1), colorAxis)

	c.text(mid-c.textWidth("Autoritario")/2, lo-12, "Autoritario")
	c.text(mid-c.textWidth("Libertario")/2, hi+24, "Libertario")
	c.text(lo-c.textWidth("Esq")-6, mid+4, "Esq")
	c.text(hi+6, mid+4, "Dir")

	for _, p := range compass.LayoutLabels(points) {
		c.disc(c.px(p.X), c.py(p.Y), pointRadius, colorPoint)
		label := stringutil.ToASCII(p.Label, '?')
		if r := []rune(label); len(r) > maxLabelLen {
			label = string(r[:maxLabelLen-1]) + "~"
		}
		c.text(c.px(p.LabelX)+pointRadius+3, c.py(p.LabelY)+4, label)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("chart: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
