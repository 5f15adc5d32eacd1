package thermal

// Erode returns the erosion of m by a kernelSize x kernelSize square.
//
// A pixel stays foreground only when every pixel under the structuring
// element is foreground. Pixels outside the mask count as background, so any
// foreground within kernelSize/2 of the border is removed.
func Erode(m *Mask, kernelSize int) *Mask {
	return morph(m, kernelSize, true)
}

// Dilate returns the dilation of m by a kernelSize x kernelSize square.
//
// A pixel becomes foreground when any pixel under the structuring element is
// foreground. Pixels outside the mask count as background.
func Dilate(m *Mask, kernelSize int) *Mask {
	return morph(m, kernelSize, false)
}

// Open applies iterations rounds of erosion followed by the same number of
// dilations. Small specks and thin protrusions that vanish during erosion are
// not restored. With iterations <= 0 an unchanged copy is returned.
func Open(m *Mask, iterations, kernelSize int) *Mask {
	out := m.Clone()
	for i := 0; i < iterations; i++ {
		out = Erode(out, kernelSize)
	}
	for i := 0; i < iterations; i++ {
		out = Dilate(out, kernelSize)
	}
	return out
}

// Close applies iterations rounds of dilation followed by the same number of
// erosions, filling small gaps and holes. With iterations <= 0 an unchanged
// copy is returned.
func Close(m *Mask, iterations, kernelSize int) *Mask {
	out := m.Clone()
	for i := 0; i < iterations; i++ {
		out = Dilate(out, kernelSize)
	}
	for i := 0; i < iterations; i++ {
		out = Erode(out, kernelSize)
	}
	return out
}

// morph evaluates every kernel cell for every pixel: O(w*h*k^2).
// erode selects the all-on rule, otherwise the any-on rule applies.
func morph(m *Mask, kernelSize int, erode bool) *Mask {
	if kernelSize < 1 {
		kernelSize = 1
	}
	pad := kernelSize / 2
	out := NewMask(m.Width, m.Height)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			hit := erode
		kernel:
			for ky := -pad; ky <= pad; ky++ {
				for kx := -pad; kx <= pad; kx++ {
					on := m.At(x+kx, y+ky)
					if erode && !on {
						hit = false
						break kernel
					}
					if !erode && on {
						hit = true
						break kernel
					}
				}
			}
			out.Pix[y*m.Width+x] = hit
		}
	}
	return out
}
