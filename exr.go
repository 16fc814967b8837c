package stwarp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/klauspost/compress/zlib"
)

const exrMagic = 20000630

const (
	exrCompressionNone = 0
	exrCompressionRLE  = 1
	exrCompressionZips = 2
	exrCompressionZip  = 3
)

// Compressions listed in OpenEXR headers that the map loader cannot decode.
var exrCompressionNames = map[byte]string{
	4: "PIZ",
	5: "PXR24",
	6: "B44",
	7: "B44A",
	8: "DWAA",
	9: "DWAB",
}

const exrSupportedCompressions = "NONE, RLE, ZIPS, ZIP"

const (
	exrPixelUint  = 0
	exrPixelHalf  = 1
	exrPixelFloat = 2
)

const (
	exrChanOther = -2
	exrChanY     = -1
	exrChanR     = 0
	exrChanG     = 1
	exrChanB     = 2
)

// floatImage is a decoded multi-channel float image, interleaved R, G, B.
type floatImage struct {
	W, H int
	Pix  []float32
}

type exrChannel struct {
	name      string
	pixelType int32
	xSampling int32
	ySampling int32
	role      int
}

func isEXR(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == exrMagic
}

// decodeEXR decodes a single-part scanline OpenEXR file keeping full float precision.
// Channels are matched by name (layer prefixes are ignored); anything other than
// R, G, B or Y is skipped.
func decodeEXR(data []byte) (*floatImage, error) {
	r := bytes.NewReader(data)
	magic, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if magic != exrMagic {
		return nil, errors.New("not an OpenEXR file")
	}
	version, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if version&0xff != 2 {
		return nil, fmt.Errorf("unsupported OpenEXR version %d", version&0xff)
	}
	if version&0x00000200 != 0 {
		return nil, errors.New("tiled OpenEXR not supported")
	}
	if version&0x00000800 != 0 {
		return nil, errors.New("multipart OpenEXR not supported")
	}
	if version&0x00000400 != 0 {
		return nil, errors.New("deep OpenEXR not supported")
	}

	var channels []exrChannel
	var dataWindow [4]int32
	var hasDataWindow bool
	var compression byte = exrCompressionNone

	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		typ, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		size, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if size < 0 || int(size) > r.Len() {
			return nil, errors.New("invalid EXR attribute size")
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}

		switch name {
		case "channels":
			if typ != "chlist" {
				return nil, errors.New("unexpected channels attribute type")
			}
			ch, err := parseEXRChannels(payload)
			if err != nil {
				return nil, err
			}
			channels = ch
		case "dataWindow":
			if typ != "box2i" {
				return nil, errors.New("unexpected dataWindow attribute type")
			}
			if len(payload) != 16 {
				return nil, errors.New("invalid dataWindow payload")
			}
			for i := range dataWindow {
				dataWindow[i] = int32(binary.LittleEndian.Uint32(payload[i*4:]))
			}
			hasDataWindow = true
		case "compression":
			if typ != "compression" || len(payload) < 1 {
				return nil, errors.New("invalid compression attribute")
			}
			compression = payload[0]
		case "tiles":
			return nil, errors.New("tiled OpenEXR not supported")
		}
	}

	if len(channels) == 0 {
		return nil, errors.New("OpenEXR missing channels")
	}
	if !hasDataWindow {
		return nil, errors.New("OpenEXR missing dataWindow")
	}
	if !hasRGBOrY(channels) {
		return nil, errors.New("OpenEXR missing R/G/B or Y channels")
	}
	for _, ch := range channels {
		if ch.xSampling != 1 || ch.ySampling != 1 {
			return nil, errors.New("OpenEXR subsampled channels are not supported")
		}
	}
	switch compression {
	case exrCompressionNone, exrCompressionRLE, exrCompressionZips, exrCompressionZip:
	default:
		name, ok := exrCompressionNames[compression]
		if !ok {
			name = fmt.Sprintf("%d", compression)
		}
		return nil, fmt.Errorf("unsupported OpenEXR compression %s, supported: %s", name, exrSupportedCompressions)
	}

	width := int(dataWindow[2]-dataWindow[0]) + 1
	height := int(dataWindow[3]-dataWindow[1]) + 1
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid OpenEXR dimensions")
	}

	blockLines := 1
	if compression == exrCompressionZip {
		blockLines = 16
	}
	blockCount := (height + blockLines - 1) / blockLines
	if blockCount*8 > r.Len() {
		return nil, errors.New("OpenEXR offset table truncated")
	}
	offsets := make([]uint64, blockCount)
	for i := range offsets {
		v, err := readU64(r)
		if err != nil {
			return nil, err
		}
		offsets[i] = v
	}

	img := &floatImage{
		W:   width,
		H:   height,
		Pix: make([]float32, width*height*3),
	}

	baseY := int(dataWindow[1])
	for block := 0; block < blockCount; block++ {
		if offsets[block] == 0 {
			return nil, errors.New("incomplete OpenEXR file: missing scanline block")
		}
		if offsets[block] >= uint64(len(data)) {
			return nil, errors.New("OpenEXR block offset out of range")
		}
		if _, err := r.Seek(int64(offsets[block]), io.SeekStart); err != nil {
			return nil, err
		}
		y, err := readI32(r)
		if err != nil {
			return nil, err
		}
		dataSize, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if dataSize < 0 || int(dataSize) > r.Len() {
			return nil, errors.New("invalid OpenEXR block size")
		}
		raw := make([]byte, dataSize)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, err
		}

		startY := int(y) - baseY
		if startY < 0 || startY >= height {
			return nil, errors.New("OpenEXR scanline out of bounds")
		}
		lines := blockLines
		if startY+lines > height {
			lines = height - startY
		}

		expected := exrExpectedBlockBytes(width, lines, channels)
		unpacked, err := exrDecompress(compression, raw, expected)
		if err != nil {
			return nil, err
		}

		if err := exrDecodeBlock(img, channels, startY, width, lines, unpacked); err != nil {
			return nil, err
		}
	}

	return img, nil
}

func parseEXRChannels(data []byte) ([]exrChannel, error) {
	r := bytes.NewReader(data)
	var channels []exrChannel
	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		pixelType, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if pixelType != exrPixelHalf && pixelType != exrPixelFloat && pixelType != exrPixelUint {
			return nil, fmt.Errorf("unsupported OpenEXR pixel type %d", pixelType)
		}
		// pLinear + 3 reserved bytes.
		if _, err := r.Seek(4, io.SeekCurrent); err != nil {
			return nil, err
		}
		xSampling, err := readI32(r)
		if err != nil {
			return nil, err
		}
		ySampling, err := readI32(r)
		if err != nil {
			return nil, err
		}
		channels = append(channels, exrChannel{
			name:      name,
			pixelType: pixelType,
			xSampling: xSampling,
			ySampling: ySampling,
			role:      exrChannelRole(name),
		})
	}
	return channels, nil
}

func exrChannelRole(name string) int {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	switch strings.ToUpper(name) {
	case "R", "RED":
		return exrChanR
	case "G", "GREEN":
		return exrChanG
	case "B", "BLUE":
		return exrChanB
	case "Y":
		return exrChanY
	default:
		return exrChanOther
	}
}

func exrBytesPerPixel(pixelType int32) int {
	switch pixelType {
	case exrPixelHalf:
		return 2
	case exrPixelFloat, exrPixelUint:
		return 4
	default:
		return 0
	}
}

func exrExpectedBlockBytes(width, lines int, channels []exrChannel) int {
	total := 0
	for _, ch := range channels {
		total += width * lines * exrBytesPerPixel(ch.pixelType)
	}
	return total
}

func exrDecompress(compression byte, data []byte, expected int) ([]byte, error) {
	if compression == exrCompressionNone || len(data) == expected {
		// Blocks that do not shrink are stored raw regardless of compression.
		if len(data) != expected {
			return nil, errors.New("unexpected OpenEXR block size")
		}
		return data, nil
	}

	var uncompressed []byte
	switch compression {
	case exrCompressionRLE:
		out, err := rleDecode(data, expected)
		if err != nil {
			return nil, err
		}
		uncompressed = out
	case exrCompressionZips, exrCompressionZip:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		out, err := io.ReadAll(io.LimitReader(zr, int64(expected)+1))
		if err != nil {
			return nil, err
		}
		uncompressed = out
	default:
		return nil, errors.New("unsupported OpenEXR compression")
	}
	if len(uncompressed) != expected {
		return nil, errors.New("unexpected OpenEXR decompressed size")
	}
	undoPredictor(uncompressed)
	return unshuffleBytes(uncompressed), nil
}

// rleDecode expands OpenEXR run-length data: a negative count byte -n is followed
// by n literal bytes, a non-negative count n by one byte repeated n+1 times.
func rleDecode(data []byte, expected int) ([]byte, error) {
	out := make([]byte, 0, expected)
	for i := 0; i < len(data); {
		count := int(int8(data[i]))
		i++
		if count < 0 {
			n := -count
			if i+n > len(data) || len(out)+n > expected {
				return nil, errors.New("OpenEXR RLE literal overrun")
			}
			out = append(out, data[i:i+n]...)
			i += n
			continue
		}
		if i >= len(data) || len(out)+count+1 > expected {
			return nil, errors.New("OpenEXR RLE run overrun")
		}
		for j := 0; j <= count; j++ {
			out = append(out, data[i])
		}
		i++
	}
	return out, nil
}

func undoPredictor(data []byte) {
	for i := 1; i < len(data); i++ {
		data[i] = byte(int(data[i]) + int(data[i-1]) - 128)
	}
}

func unshuffleBytes(data []byte) []byte {
	half := (len(data) + 1) / 2
	out := make([]byte, len(data))
	for i := range out {
		if i%2 == 0 {
			out[i] = data[i/2]
		} else {
			out[i] = data[half+i/2]
		}
	}
	return out
}

func exrDecodeBlock(dst *floatImage, channels []exrChannel, startY, width, lines int, data []byte) error {
	offset := 0
	for row := 0; row < lines; row++ {
		y := startY + row
		for _, ch := range channels {
			bpp := exrBytesPerPixel(ch.pixelType)
			if bpp == 0 {
				return errors.New("unsupported OpenEXR channel pixel type")
			}
			lineBytes := width * bpp
			if offset+lineBytes > len(data) {
				return errors.New("OpenEXR block truncated")
			}
			line := data[offset : offset+lineBytes]
			offset += lineBytes

			if ch.role == exrChanOther {
				continue
			}
			exrApplyLine(dst, ch.role, y, width, ch.pixelType, line)
		}
	}
	return nil
}

func exrApplyLine(dst *floatImage, role int, y, width int, pixelType int32, line []byte) {
	for x := 0; x < width; x++ {
		var v float32
		switch pixelType {
		case exrPixelHalf:
			v = halfToFloat32(binary.LittleEndian.Uint16(line[x*2:]))
		case exrPixelFloat:
			v = math.Float32frombits(binary.LittleEndian.Uint32(line[x*4:]))
		case exrPixelUint:
			v = float32(binary.LittleEndian.Uint32(line[x*4:]))
		}
		idx := (y*dst.W + x) * 3
		switch role {
		case exrChanR, exrChanG, exrChanB:
			dst.Pix[idx+role] = v
		case exrChanY:
			dst.Pix[idx] = v
			dst.Pix[idx+1] = v
			dst.Pix[idx+2] = v
		}
	}
}

func hasRGBOrY(channels []exrChannel) bool {
	for _, ch := range channels {
		if ch.role != exrChanOther {
			return true
		}
	}
	return false
}

func readNullString(r *bytes.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func halfToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := int32(h>>10) & 0x1F
	mant := int32(h & 0x03FF)

	if exp == 0 {
		if mant == 0 {
			return math.Float32frombits(sign << 31)
		}
		for mant&0x0400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &= 0x03FF
	} else if exp == 31 {
		if mant == 0 {
			return math.Float32frombits((sign << 31) | 0x7F800000)
		}
		return math.Float32frombits((sign << 31) | 0x7F800000 | (uint32(mant) << 13))
	}

	exp = exp + (127 - 15)
	mant <<= 13
	bits := (sign << 31) | (uint32(exp) << 23) | uint32(mant)
	return math.Float32frombits(bits)
}
