package thermal

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Bounds is an axis-aligned bounding box in pixel coordinates.
//
// (X1, Y1) is the top-left corner (inclusive) and (X2, Y2) the bottom-right
// corner (exclusive), so Width = X2 - X1.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Region describes one connected hotspot that survived filtering.
type Region struct {
	// Label is the 1-based component number in raster-scan order of each
	// component's first pixel.
	Label int `json:"label"`

	// Area is the number of pixels in the component.
	Area int `json:"area"`

	// Bounds encloses every pixel of the component.
	Bounds Bounds `json:"bounds"`

	// CentroidX and CentroidY are the mean pixel coordinates.
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`

	// MeanIntensity and PeakIntensity are taken from the normalized surface.
	MeanIntensity float64 `json:"mean_intensity"`
	PeakIntensity float64 `json:"peak_intensity"`
}

// point is a pixel coordinate on the flood-fill stack.
type point struct{ x, y int }

// labeler walks 8-connected foreground components of a mask. The stack and
// component buffers are reused between components.
type labeler struct {
	mask      *Mask
	visited   []bool
	stack     []point
	component []point
}

func newLabeler(m *Mask) *labeler {
	return &labeler{
		mask:    m,
		visited: make([]bool, len(m.Pix)),
	}
}

// each calls fn once per connected component, in raster order of the first
// pixel found. The slice passed to fn is only valid during the call.
func (l *labeler) each(fn func(component []point)) {
	m := l.mask
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := y*m.Width + x
			if !m.Pix[i] || l.visited[i] {
				continue
			}
			l.fill(x, y)
			fn(l.component)
		}
	}
}

// fill collects the component containing (x, y) without recursion.
func (l *labeler) fill(x, y int) {
	m := l.mask
	l.component = l.component[:0]
	l.stack = append(l.stack[:0], point{x, y})
	l.visited[y*m.Width+x] = true

	for len(l.stack) > 0 {
		p := l.stack[len(l.stack)-1]
		l.stack = l.stack[:len(l.stack)-1]
		l.component = append(l.component, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.x+dx, p.y+dy
				if nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
					continue
				}
				ni := ny*m.Width + nx
				if m.Pix[ni] && !l.visited[ni] {
					l.visited[ni] = true
					l.stack = append(l.stack, point{nx, ny})
				}
			}
		}
	}
}

// RemoveSmallComponents clears, in place, every 8-connected foreground
// component of m with fewer than minSize pixels. A component of exactly
// minSize pixels is kept.
//
// With minSize <= 1 every non-empty component qualifies, so the mask is left
// untouched without being scanned. The result does not depend on visitation
// order. It returns m for chaining.
func RemoveSmallComponents(m *Mask, minSize int) *Mask {
	if minSize <= 1 {
		return m
	}

	l := newLabeler(m)
	l.each(func(component []point) {
		if len(component) >= minSize {
			return
		}
		for _, p := range component {
			m.Pix[p.y*m.Width+p.x] = false
		}
	})
	return m
}

// Regions labels the 8-connected components of m and summarizes each one,
// reading intensities from s. The result is sorted by area, largest first,
// with ties broken by label.
func Regions(m *Mask, s *Surface) []Region {
	var regions []Region
	var values []float64

	l := newLabeler(m)
	l.each(func(component []point) {
		r := Region{
			Label:  len(regions) + 1,
			Area:   len(component),
			Bounds: Bounds{X1: component[0].x, Y1: component[0].y, X2: component[0].x + 1, Y2: component[0].y + 1},
		}

		values = values[:0]
		var sumX, sumY float64
		for _, p := range component {
			sumX += float64(p.x)
			sumY += float64(p.y)
			r.Bounds.X1 = min(r.Bounds.X1, p.x)
			r.Bounds.Y1 = min(r.Bounds.Y1, p.y)
			r.Bounds.X2 = max(r.Bounds.X2, p.x+1)
			r.Bounds.Y2 = max(r.Bounds.Y2, p.y+1)

			v := s.At(p.x, p.y)
			values = append(values, v)
			if v > r.PeakIntensity {
				r.PeakIntensity = v
			}
		}
		r.CentroidX = sumX / float64(r.Area)
		r.CentroidY = sumY / float64(r.Area)
		r.MeanIntensity = stat.Mean(values, nil)

		regions = append(regions, r)
	})

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Area > regions[j].Area
	})
	return regions
}
