package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	markerPrefix = 0xFF
	markerSOI    = 0xD8
	markerEOI    = 0xD9
	markerSOS    = 0xDA
	markerAPP0   = 0xE0
	markerAPP1   = 0xE1

	// maxSegmentPayload is the largest payload a JPEG segment length can
	// describe (65535 minus the two length bytes).
	maxSegmentPayload = 0xFFFF - 2
)

var exifHeader = []byte("Exif\x00\x00")

// ErrExifTooLarge is returned when an Exif payload does not fit in a single
// APP1 segment.
var ErrExifTooLarge = errors.New("exif payload exceeds one APP1 segment")

// ErrNotJPEG is returned when Exif injection is attempted on non-JPEG data.
var ErrNotJPEG = errors.New("data is not a JPEG stream")

// segment is one marker segment of a JPEG header.
type segment struct {
	marker  byte
	end     int // offset just past the payload
	payload []byte
}

// jpegSegments walks the header segments of a JPEG stream up to the first
// scan, calling fn until it returns false. Iteration also stops at the first
// malformed segment. It reports whether data starts with a JPEG SOI marker.
func jpegSegments(data []byte, fn func(seg segment) bool) bool {
	if len(data) < 4 || data[0] != markerPrefix || data[1] != markerSOI {
		return false
	}

	i := 2
	for i+1 < len(data) {
		if data[i] != markerPrefix {
			return true
		}
		// Skip fill bytes.
		for i < len(data) && data[i] == markerPrefix {
			i++
		}
		if i >= len(data) {
			return true
		}
		marker := data[i]
		i++

		switch {
		case marker == markerSOS || marker == markerEOI:
			return true
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			continue
		}

		if i+2 > len(data) {
			return true
		}
		length := int(binary.BigEndian.Uint16(data[i : i+2]))
		if length < 2 || i+length > len(data) {
			return true
		}
		if !fn(segment{marker: marker, end: i + length, payload: data[i+2 : i+length]}) {
			return true
		}
		i += length
	}
	return true
}

// ExtractExif returns a copy of the APP1 Exif payload of a JPEG stream,
// including its "Exif\x00\x00" header. It returns nil for non-JPEG data or
// when no Exif segment precedes the first scan.
func ExtractExif(data []byte) []byte {
	var exif []byte
	jpegSegments(data, func(seg segment) bool {
		if seg.marker == markerAPP1 && bytes.HasPrefix(seg.payload, exifHeader) {
			exif = bytes.Clone(seg.payload)
			return false
		}
		return true
	})
	return exif
}

// InjectExif returns a copy of the JPEG stream with exif written as an APP1
// segment. The segment goes after SOI and any leading APP0 (JFIF) segment,
// as readers expect. Empty exif returns data unchanged.
func InjectExif(data, exif []byte) ([]byte, error) {
	if len(exif) == 0 {
		return data, nil
	}
	if len(exif) > maxSegmentPayload {
		return nil, ErrExifTooLarge
	}

	insertAt := 2
	ok := jpegSegments(data, func(seg segment) bool {
		if seg.marker != markerAPP0 {
			return false
		}
		insertAt = seg.end
		return true
	})
	if !ok {
		return nil, ErrNotJPEG
	}

	out := make([]byte, 0, len(data)+len(exif)+4)
	out = append(out, data[:insertAt]...)
	out = append(out, markerPrefix, markerAPP1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(exif)+2))
	out = append(out, exif...)
	out = append(out, data[insertAt:]...)
	return out, nil
}
