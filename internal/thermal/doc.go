// Package thermal implements the hotspot analysis steps applied to a single
// thermal image.
//
// The package works on two plain grid types: Surface, a row-major grid of
// float64 intensities, and Mask, a row-major grid of booleans of the same
// dimensions. Every function is a pure transformation of its inputs, so the
// steps can run concurrently on different images. The only shared value is
// the color Palette, which is built once and never written afterwards.
//
// # Pipeline Steps
//
//  1. Extract: image.Image -> Surface (single channel, BT.601 luminance for
//     color inputs)
//  2. Normalize: rescale the surface to [0,1] using its own min/max
//  3. Percentile + ThresholdMask: keep pixels at or above the requested
//     percentile of the normalized values
//  4. Open then Close: binary morphology with a square structuring element
//  5. RemoveSmallComponents: drop 8-connected regions below a pixel count
//  6. Compose: false-color overlay with hotspot pixels blended toward red
//
// # Coordinate System
//
// Grids are indexed from (0,0) at the top-left corner. X increases rightward
// and Y increases downward. Index i of Pix corresponds to (i%Width, i/Width).
//
// # Boundary Convention
//
// Morphology treats every pixel outside the grid as background. Erosion
// therefore always removes foreground touching the image edge when the
// structuring element reaches past it.
package thermal
