package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// RLE Lossless is specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#chapter_G
const (
	rleHeaderSize  = 64
	rleMaxSegments = 15
)

var errRLEHeader = errors.New("invalid RLE header")

// decodeRLEFrame decodes one RLE Lossless frame into native little endian pixel data with
// interleaved samples.
func decodeRLEFrame(frame []byte, info ImageInfo) ([]byte, error) {
	if len(frame) < rleHeaderSize {
		return nil, fmt.Errorf("%w: frame of %d bytes", errRLEHeader, len(frame))
	}

	bytesPerSample := info.BytesPerSample()
	numSegments := int(binary.LittleEndian.Uint32(frame))
	if want := info.SamplesPerPixel * bytesPerSample; numSegments != want || numSegments > rleMaxSegments {
		return nil, fmt.Errorf("%w: got %d segments, want %d", errRLEHeader, numSegments, want)
	}

	offsets := make([]int, numSegments+1)
	for i := 0; i < numSegments; i++ {
		offsets[i] = int(binary.LittleEndian.Uint32(frame[4+i*4:]))
	}
	offsets[numSegments] = len(frame)

	// a PackBits replicate run turns 2 bytes into at most 128, so each segment bounds the image
	// size before anything is allocated for it
	pixels := info.Rows * info.Columns
	for s := 0; s < numSegments; s++ {
		start, end := offsets[s], offsets[s+1]
		if start < rleHeaderSize || end > len(frame) || start > end {
			return nil, fmt.Errorf("%w: segment %d spans [%d, %d)", errRLEHeader, s, start, end)
		}
		if limit := (end - start + 1) / 2 * 128; pixels > limit {
			return nil, fmt.Errorf("%w: segment %d of %d bytes cannot hold %d pixels", errRLEHeader, s, end-start, pixels)
		}
	}

	out := make([]byte, pixels*numSegments)
	for s := 0; s < numSegments; s++ {
		segment, err := unpackBits(frame[offsets[s]:offsets[s+1]], pixels)
		if err != nil {
			return nil, fmt.Errorf("decoding RLE segment %d: %w", s, err)
		}

		// segments are ordered by sample, then from the most to the least significant byte
		sample, byteIndex := s/bytesPerSample, bytesPerSample-1-s%bytesPerSample
		stride := numSegments
		for p, b := range segment {
			out[p*stride+sample*bytesPerSample+byteIndex] = b
		}
	}
	return out, nil
}

// unpackBits decodes a PackBits byte segment, stopping once size bytes are produced.
func unpackBits(src []byte, size int) ([]byte, error) {
	dst := make([]byte, 0, size)
	for i := 0; i < len(src) && len(dst) < size; {
		n := int(int8(src[i]))
		i++
		switch {
		case n >= 0:
			if i+n+1 > len(src) {
				return nil, fmt.Errorf("literal run of %d bytes overruns segment", n+1)
			}
			dst = append(dst, src[i:i+n+1]...)
			i += n + 1
		case n > -128:
			if i >= len(src) {
				return nil, errors.New("replicate run overruns segment")
			}
			for j := 0; j < 1-n; j++ {
				dst = append(dst, src[i])
			}
			i++
		}
	}
	if len(dst) < size {
		return nil, fmt.Errorf("decoded %d bytes, want %d", len(dst), size)
	}
	return dst[:size], nil
}
