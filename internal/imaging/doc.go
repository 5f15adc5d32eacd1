// Package imaging handles the file side of thermal analysis: decoding input
// images, carrying their Exif block through untouched, and writing results.
//
// # Supported Inputs
//
// JPEG (including radiometric .rjpg files, which are JPEG containers) and
// TIFF are registered with image.Decode. 16-bit grayscale TIFFs decode to
// *image.Gray16 and keep their full sample range.
//
// # Metadata
//
// Exif is treated as an opaque blob. ExtractExif copies the APP1 payload out
// of a JPEG header and InjectExif writes it back into an encoded overlay.
// Nothing in between parses or edits it. TIFF inputs carry no blob.
//
// # Outputs
//
//   - SaveOverlay: JPEG at quality 95 with the source Exif reattached
//   - SaveMask: PNG of the final hotspot mask
//   - Preview: downscaled base64 PNG for protocol responses
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless.
package imaging
