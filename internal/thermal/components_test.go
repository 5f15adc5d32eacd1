package thermal

import (
	"math"
	"testing"
)

func TestRemoveSmallComponents_SinglePixel(t *testing.T) {
	tests := []struct {
		name    string
		minSize int
		want    int
	}{
		{"min 2 removes", 2, 0},
		{"min 1 keeps", 1, 1},
		{"min 0 keeps", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMask(5, 5)
			m.Set(2, 2, true)
			if got := RemoveSmallComponents(m, tt.minSize).Count(); got != tt.want {
				t.Errorf("got %d pixels, want %d", got, tt.want)
			}
		})
	}
}

func TestRemoveSmallComponents_BoundaryInclusive(t *testing.T) {
	m := maskFromRows(
		"##......",
		"##....#.",
		"......#.",
		"........",
	)

	RemoveSmallComponents(m, 4)

	want := maskFromRows(
		"##......",
		"##......",
		"........",
		"........",
	)
	if !m.Equal(want) {
		t.Error("component of exactly min size should be kept, smaller one removed")
	}
}

func TestRemoveSmallComponents_DiagonalConnectivity(t *testing.T) {
	m := maskFromRows(
		"#....",
		".#...",
		"..#..",
		".....",
	)

	if got := RemoveSmallComponents(m, 3).Count(); got != 3 {
		t.Errorf("diagonal chain should form one component of 3, got %d pixels", got)
	}
}

func TestRemoveSmallComponents_LargeComponentNoRecursion(t *testing.T) {
	m := NewMask(1000, 1000)
	for i := range m.Pix {
		m.Pix[i] = true
	}
	if got := RemoveSmallComponents(m, 1_000_000).Count(); got != 1_000_000 {
		t.Errorf("got %d pixels, want 1000000", got)
	}
	if got := RemoveSmallComponents(m, 1_000_001).Count(); got != 0 {
		t.Errorf("got %d pixels, want 0", got)
	}
}

func TestRemoveSmallComponents_OrderIndependent(t *testing.T) {
	m := randomMask(60, 40, 0.35, 3)
	filtered := RemoveSmallComponents(m.Clone(), 5)

	// Transposing the mask changes the visiting order but not the components.
	tr := NewMask(m.Height, m.Width)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			tr.Set(y, x, m.At(x, y))
		}
	}
	RemoveSmallComponents(tr, 5)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if filtered.At(x, y) != tr.At(y, x) {
				t.Fatalf("result differs at (%d,%d)", x, y)
			}
		}
	}
}

func TestRegions_Statistics(t *testing.T) {
	m := maskFromRows(
		"##....",
		"##...#",
		"......",
	)
	pix := make([]float64, 18)
	pix[0], pix[1], pix[6], pix[7] = 0.5, 0.7, 0.9, 0.9
	pix[11] = 1
	s, _ := NewSurface(6, 3, pix)

	regions := Regions(m, s)
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(regions))
	}

	big := regions[0]
	if big.Area != 4 || big.Label != 1 {
		t.Errorf("largest region: got area %d label %d, want area 4 label 1", big.Area, big.Label)
	}
	if big.Bounds != (Bounds{X1: 0, Y1: 0, X2: 2, Y2: 2}) {
		t.Errorf("bounds: got %+v", big.Bounds)
	}
	if big.CentroidX != 0.5 || big.CentroidY != 0.5 {
		t.Errorf("centroid: got (%v,%v), want (0.5,0.5)", big.CentroidX, big.CentroidY)
	}
	if math.Abs(big.MeanIntensity-0.75) > 1e-9 {
		t.Errorf("mean intensity: got %v, want 0.75", big.MeanIntensity)
	}
	if big.PeakIntensity != 0.9 {
		t.Errorf("peak intensity: got %v, want 0.9", big.PeakIntensity)
	}

	small := regions[1]
	if small.Area != 1 || small.Bounds != (Bounds{X1: 5, Y1: 1, X2: 6, Y2: 2}) {
		t.Errorf("small region: got %+v", small)
	}
}

func TestRegions_Empty(t *testing.T) {
	s, _ := NewSurface(3, 3, make([]float64, 9))
	if got := Regions(NewMask(3, 3), s); len(got) != 0 {
		t.Errorf("got %d regions, want 0", len(got))
	}
}
