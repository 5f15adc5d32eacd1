package imaging

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
)

// OverlayQuality is the JPEG quality used for saved overlays.
const OverlayQuality = 95

// SaveOverlay encodes img as JPEG and writes it to dest, reattaching exif
// verbatim when it is non-empty.
func SaveOverlay(img image.Image, dest string, exif []byte) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(OverlayQuality)); err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}

	data, err := InjectExif(buf.Bytes(), exif)
	if err != nil {
		return fmt.Errorf("failed to attach exif: %w", err)
	}

	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write overlay: %w", err)
	}
	return nil
}

// SaveMask writes a mask image to dest as PNG.
func SaveMask(mask image.Image, dest string) error {
	if err := imgio.Save(dest, mask, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to write mask: %w", err)
	}
	return nil
}

// OutputPaths returns where the overlay and mask for src are written inside
// outDir: <stem>_processed.jpg and <stem>_mask.png.
func OutputPaths(outDir, src string) (overlay, mask string) {
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, stem+"_processed.jpg"), filepath.Join(outDir, stem+"_mask.png")
}
