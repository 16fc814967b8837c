// Package jpegx walks JPEG marker segments.
package jpegx

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// Marker bytes.
const (
	MarkerStart = 0xFF
	MarkerSOI   = 0xD8
	MarkerEOI   = 0xD9
	MarkerSOS   = 0xDA
	MarkerAPP0  = 0xE0
	MarkerAPP15 = 0xEF
	MarkerCOM   = 0xFE
)

// ErrInvalidJPEG is returned for data that does not start with SOI.
var ErrInvalidJPEG = errors.New("invalid jpeg")

// IsMetadata reports whether a marker carries metadata (APPn or COM) rather than
// image data.
func IsMetadata(marker byte) bool {
	return marker == MarkerCOM || (marker >= MarkerAPP0 && marker <= MarkerAPP15)
}

// StripMetadata removes APP0-APP15 and COM segments (JFIF, EXIF, ICC, XMP, comments)
// from a JPEG, keeping everything from SOS onwards untouched.
func StripMetadata(jpegData []byte) ([]byte, error) {
	if len(jpegData) < 4 || jpegData[0] != MarkerStart || jpegData[1] != MarkerSOI {
		return nil, ErrInvalidJPEG
	}
	var out bytes.Buffer
	out.Grow(len(jpegData))
	out.WriteByte(MarkerStart)
	out.WriteByte(MarkerSOI)
	pos := 2
	for pos+3 < len(jpegData) {
		if jpegData[pos] != MarkerStart {
			return nil, errors.New("marker expected")
		}
		for pos < len(jpegData) && jpegData[pos] == MarkerStart {
			pos++
		}
		if pos >= len(jpegData) {
			break
		}
		marker := jpegData[pos]
		pos++
		if marker == MarkerSOS || marker == MarkerEOI {
			out.WriteByte(MarkerStart)
			out.WriteByte(marker)
			out.Write(jpegData[pos:])
			return out.Bytes(), nil
		}
		if marker >= 0xD0 && marker <= 0xD7 {
			out.WriteByte(MarkerStart)
			out.WriteByte(marker)
			continue
		}
		if pos+1 >= len(jpegData) {
			return nil, errors.New("truncated marker")
		}
		segLen := int(binary.BigEndian.Uint16(jpegData[pos:]))
		if segLen < 2 || pos+segLen > len(jpegData) {
			return nil, errors.New("invalid segment length")
		}
		segEnd := pos + segLen
		if !IsMetadata(marker) {
			out.WriteByte(MarkerStart)
			out.WriteByte(marker)
			out.Write(jpegData[pos:segEnd])
		}
		pos = segEnd
	}
	return nil, errors.New("no SOS segment found")
}

// Markers lists the markers that precede the scan data, in file order.
func Markers(jpegData []byte) ([]byte, error) {
	if len(jpegData) < 4 || jpegData[0] != MarkerStart || jpegData[1] != MarkerSOI {
		return nil, ErrInvalidJPEG
	}
	var markers []byte
	pos := 2
	for pos+3 < len(jpegData) {
		if jpegData[pos] != MarkerStart {
			return nil, errors.New("marker expected")
		}
		for pos < len(jpegData) && jpegData[pos] == MarkerStart {
			pos++
		}
		if pos >= len(jpegData) {
			break
		}
		marker := jpegData[pos]
		pos++
		markers = append(markers, marker)
		if marker == MarkerSOS || marker == MarkerEOI {
			return markers, nil
		}
		if marker >= 0xD0 && marker <= 0xD7 {
			continue
		}
		if pos+1 >= len(jpegData) {
			return nil, errors.New("truncated marker")
		}
		segLen := int(binary.BigEndian.Uint16(jpegData[pos:]))
		if segLen < 2 || pos+segLen > len(jpegData) {
			return nil, errors.New("invalid segment length")
		}
		pos += segLen
	}
	return markers, nil
}
