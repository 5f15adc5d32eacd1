package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// PreviewResult contains a downscaled rendering encoded as base64 PNG
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Preview fits img inside a maxDim x maxDim box, preserving aspect ratio, and
// returns it as base64 PNG. Images already small enough, or maxDim <= 0, are
// encoded at their original size.
func Preview(img image.Image, maxDim int) (*PreviewResult, error) {
	b := img.Bounds()
	out := img
	if maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
		out = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
