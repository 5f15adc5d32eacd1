package thermal

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

var (
	// ErrUnsupportedFormat is returned when an image cannot be reduced to a
	// two-dimensional intensity surface.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrDegenerateInput is returned when a surface holds no finite values.
	ErrDegenerateInput = errors.New("surface contains no finite values")
)

// flatEpsilon is the smallest intensity span used as a divisor during
// normalization.
const flatEpsilon = 1e-6

// Surface is a row-major grid of intensity values.
//
// After Normalize every value lies in [0,1]. A surface produced by a pipeline
// run is never modified afterwards.
type Surface struct {
	Width  int
	Height int
	Pix    []float64
}

// NewSurface wraps pix as a width x height surface.
//
// Returns ErrUnsupportedFormat if either dimension is not positive or if
// len(pix) does not equal width*height.
func NewSurface(width, height int, pix []float64) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: surface must be two-dimensional, got %dx%d", ErrUnsupportedFormat, width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("%w: %d values for a %dx%d surface", ErrUnsupportedFormat, len(pix), width, height)
	}
	return &Surface{Width: width, Height: height, Pix: pix}, nil
}

// At returns the value at (x, y).
func (s *Surface) At(x, y int) float64 {
	return s.Pix[y*s.Width+x]
}

// Extract converts a decoded image into a single-channel intensity surface.
//
// Single-channel inputs keep their native sample values:
//   - *image.Gray: 8-bit samples (0-255)
//   - *image.Gray16: 16-bit samples (0-65535), as written by radiometric
//     cameras that export raw counts
//   - *image.YCbCr: the Y plane, which JFIF defines as ITU-R BT.601 luma
//
// Every other color model is converted to luminance using ITU-R BT.601
// weights over straight (non-premultiplied) 8-bit channels, so alpha does not
// darken the result:
//
//	Y = 0.299*R + 0.587*G + 0.114*B
//
// An image with an empty bounds rectangle does not describe a surface and
// yields ErrUnsupportedFormat.
func Extract(img image.Image) (*Surface, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrUnsupportedFormat)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image bounds %v are empty", ErrUnsupportedFormat, bounds)
	}

	pix := make([]float64, width*height)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+width]
			for x, v := range row {
				pix[y*width+x] = float64(v)
			}
		}
	case *image.Gray16:
		for y := 0; y < height; y++ {
			off := y * src.Stride
			for x := 0; x < width; x++ {
				v := uint16(src.Pix[off+2*x])<<8 | uint16(src.Pix[off+2*x+1])
				pix[y*width+x] = float64(v)
			}
		}
	case *image.YCbCr:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				pix[y*width+x] = float64(src.Y[src.YOffset(x+bounds.Min.X, y+bounds.Min.Y)])
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.NRGBAModel.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.NRGBA)
				pix[y*width+x] = 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			}
		}
	}

	return &Surface{Width: width, Height: height, Pix: pix}, nil
}

// Normalize rescales s to [0,1] using the minimum and maximum of its finite
// values and returns the result as a new surface.
//
// The divisor is max(max-min, 1e-6), so a uniform surface normalizes to all
// zeros instead of dividing by zero. Non-finite samples map to 0. The second
// return value reports whether the surface was flat (max-min below 1e-6),
// i.e. whether it carries any contrast at all.
//
// Returns ErrDegenerateInput if s has no finite values.
func Normalize(s *Surface) (*Surface, bool, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range s.Pix {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if math.IsInf(lo, 1) {
		return nil, false, ErrDegenerateInput
	}

	span := math.Max(hi-lo, flatEpsilon)
	out := make([]float64, len(s.Pix))
	for i, v := range s.Pix {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = clampUnit((v - lo) / span)
	}

	return &Surface{Width: s.Width, Height: s.Height, Pix: out}, hi-lo < flatEpsilon, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
