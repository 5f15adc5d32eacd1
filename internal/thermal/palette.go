package thermal

import (
	"image/color"
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// PaletteSize is the number of entries in a Palette.
const PaletteSize = 256

// Palette maps an 8-bit normalized intensity to an overlay color.
type Palette [PaletteSize]color.RGBA

// anchor is a fixed color stop of the thermal ramp.
type anchor struct {
	pos   float64
	color colorful.Color
}

// anchors runs navy -> sky blue -> cyan -> yellow -> red.
var anchors = []anchor{
	{0.0, rgb(0, 0, 64)},
	{0.25, rgb(0, 128, 255)},
	{0.5, rgb(0, 255, 255)},
	{0.75, rgb(255, 255, 0)},
	{1.0, rgb(255, 0, 0)},
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// DefaultPalette returns the shared thermal palette. The table is built on
// first use and must be treated as read-only.
var DefaultPalette = sync.OnceValue(BuildPalette)

// BuildPalette interpolates the anchor colors at PaletteSize equally spaced
// positions t = i/255. Each channel is interpolated linearly between the two
// anchors bracketing t and rounded to the nearest integer.
func BuildPalette() *Palette {
	var p Palette
	for i := range p {
		t := float64(i) / float64(PaletteSize-1)
		for k := 0; k < len(anchors)-1; k++ {
			a, b := anchors[k], anchors[k+1]
			if t < a.pos || t > b.pos {
				continue
			}
			local := 0.0
			if b.pos > a.pos {
				local = (t - a.pos) / (b.pos - a.pos)
			}
			r, g, bl := a.color.BlendRgb(b.color, local).RGB255()
			p[i] = color.RGBA{R: r, G: g, B: bl, A: 255}
			break
		}
	}
	return &p
}

// Lookup returns the color for a normalized intensity v in [0,1]. Values
// outside the range are clamped.
func (p *Palette) Lookup(v float64) color.RGBA {
	return p[intensityIndex(v)]
}

// Hex returns entry i formatted as "#rrggbb".
func (p *Palette) Hex(i int) string {
	c, _ := colorful.MakeColor(p[i])
	return c.Hex()
}

// intensityIndex maps [0,1] to a palette index with round-half-up.
func intensityIndex(v float64) int {
	return int(clampUnit(v)*float64(PaletteSize-1) + 0.5)
}
