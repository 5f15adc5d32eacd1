package thermal

import (
	"image"
	"image/color"
	"math"
)

// Highlight is the color blended into hotspot pixels.
var Highlight = color.RGBA{R: 255, G: 0, B: 0, A: 255}

// highlightWeight is the share of Highlight in a blended hotspot pixel.
const highlightWeight = 0.6

// Compose renders the normalized surface through the palette and blends
// Highlight into every pixel set in mask:
//
//	out = round(0.4*base + 0.6*highlight)
//
// The ratio is fixed. s and mask must have the same dimensions.
func Compose(s *Surface, mask *Mask, p *Palette) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for i, v := range s.Pix {
		c := p.Lookup(v)
		if mask.Pix[i] {
			c = blend(c, Highlight)
		}
		o := i * 4
		out.Pix[o] = c.R
		out.Pix[o+1] = c.G
		out.Pix[o+2] = c.B
		out.Pix[o+3] = 255
	}
	return out
}

func blend(base, hi color.RGBA) color.RGBA {
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round((1-highlightWeight)*float64(a) + highlightWeight*float64(b)))
	}
	return color.RGBA{R: mix(base.R, hi.R), G: mix(base.G, hi.G), B: mix(base.B, hi.B), A: 255}
}
