package thermal

import (
	"math/rand"
	"testing"
)

// maskFromRows builds a mask from strings where '#' is foreground.
func maskFromRows(rows ...string) *Mask {
	m := NewMask(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			m.Set(x, y, c == '#')
		}
	}
	return m
}

// randomMask returns a reproducible mask with roughly density foreground.
func randomMask(width, height int, density float64, seed int64) *Mask {
	rng := rand.New(rand.NewSource(seed))
	m := NewMask(width, height)
	for i := range m.Pix {
		m.Pix[i] = rng.Float64() < density
	}
	return m
}

func TestErode_CornerPixelRemoved(t *testing.T) {
	m := NewMask(5, 5)
	m.Set(0, 0, true)

	if got := Erode(m, 3).Count(); got != 0 {
		t.Errorf("corner pixel survived erosion: %d pixels remain", got)
	}
}

func TestErode_BorderTreatedAsBackground(t *testing.T) {
	m := NewMask(4, 4)
	for i := range m.Pix {
		m.Pix[i] = true
	}

	want := maskFromRows(
		"....",
		".##.",
		".##.",
		"....",
	)
	if got := Erode(m, 3); !got.Equal(want) {
		t.Errorf("full mask erosion should strip the border ring, got %v", got.Pix)
	}
}

func TestErode_KeepsInterior(t *testing.T) {
	m := maskFromRows(
		".......",
		".#####.",
		".#####.",
		".#####.",
		".#####.",
		".#####.",
		".......",
	)
	want := maskFromRows(
		".......",
		".......",
		"..###..",
		"..###..",
		"..###..",
		".......",
		".......",
	)
	if got := Erode(m, 3); !got.Equal(want) {
		t.Error("unexpected erosion result")
	}
}

func TestErode_LargerKernel(t *testing.T) {
	m := maskFromRows(
		".......",
		".#####.",
		".#####.",
		".#####.",
		".#####.",
		".#####.",
		".......",
	)
	got := Erode(m, 5)
	if got.Count() != 1 || !got.At(3, 3) {
		t.Errorf("5x5 erosion of a 5x5 block should leave only its center, got %d pixels", got.Count())
	}
}

func TestDilate_GrowsAndClipsAtBorder(t *testing.T) {
	m := NewMask(3, 3)
	m.Set(0, 0, true)

	want := maskFromRows(
		"##.",
		"##.",
		"...",
	)
	if got := Dilate(m, 3); !got.Equal(want) {
		t.Error("unexpected dilation result")
	}
}

func TestOpen_ZeroIterationsUnchanged(t *testing.T) {
	m := randomMask(20, 15, 0.4, 1)
	got := Open(m, 0, 3)

	if !got.Equal(m) {
		t.Error("Open with 0 iterations changed the mask")
	}
	if &got.Pix[0] == &m.Pix[0] {
		t.Error("Open should return a copy")
	}
}

func TestClose_ZeroIterationsUnchanged(t *testing.T) {
	m := randomMask(20, 15, 0.4, 2)
	if !Close(m, 0, 5).Equal(m) {
		t.Error("Close with 0 iterations changed the mask")
	}
}

func TestOpen_RemovesSpeck(t *testing.T) {
	m := maskFromRows(
		"........",
		".###....",
		".###..#.",
		".###....",
		"........",
	)
	want := maskFromRows(
		"........",
		".###....",
		".###....",
		".###....",
		"........",
	)
	if got := Open(m, 1, 3); !got.Equal(want) {
		t.Error("opening should remove the isolated pixel and restore the block")
	}
}

func TestClose_FillsHole(t *testing.T) {
	m := maskFromRows(
		".......",
		".#####.",
		".##.##.",
		".#####.",
		".......",
	)
	got := Close(m, 1, 3)
	if !got.At(3, 2) {
		t.Error("closing should fill the single-pixel hole")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		for _, k := range []int{3, 5} {
			once := Open(randomMask(40, 30, 0.55, seed), 1, k)
			twice := Open(once, 1, k)
			if !twice.Equal(once) {
				t.Errorf("seed %d kernel %d: opening an opened mask changed it", seed, k)
			}
		}
	}
}

func TestMorphology_DoesNotMutateInput(t *testing.T) {
	m := randomMask(10, 10, 0.5, 9)
	before := m.Clone()

	Erode(m, 3)
	Dilate(m, 3)
	Open(m, 2, 3)
	Close(m, 2, 3)

	if !m.Equal(before) {
		t.Error("morphology mutated its input mask")
	}
}
