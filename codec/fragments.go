package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/j-taylor87/dcmpress/dicom"
)

// itemHeaderSize is the size of the Item tag and length preceding every fragment.
const itemHeaderSize = 8

// EncapsulatedFrames returns the compressed bytes of every frame of the encapsulated Pixel Data in
// ds. Fragments are assigned to frames using, in order of preference, the Basic Offset Table, one
// fragment per frame, or the start-of-codestream markers of the fragments.
func EncapsulatedFrames(ds *dicom.DataSet, numberOfFrames int) ([][]byte, error) {
	elem, err := ds.Find(dicom.PixelDataTag)
	if err != nil {
		return nil, err
	}
	fragments, ok := elem.ValueField.([][]byte)
	if !ok {
		return nil, fmt.Errorf("pixel data is not encapsulated: got %T", elem.ValueField)
	}
	if len(fragments) < 2 {
		return nil, fmt.Errorf("encapsulated pixel data has no fragments")
	}
	offsetTable, fragments := fragments[0], fragments[1:]

	if len(offsetTable) > 0 {
		return framesFromOffsetTable(offsetTable, fragments, numberOfFrames)
	}
	if numberOfFrames <= 1 {
		return [][]byte{bytes.Join(fragments, nil)}, nil
	}
	if len(fragments) == numberOfFrames {
		return fragments, nil
	}
	if numberOfFrames > len(fragments) {
		return nil, fmt.Errorf("cannot split %d fragments into %d frames", len(fragments), numberOfFrames)
	}
	return framesFromMarkers(fragments, numberOfFrames)
}

func framesFromOffsetTable(offsetTable []byte, fragments [][]byte, numberOfFrames int) ([][]byte, error) {
	if len(offsetTable)%4 != 0 {
		return nil, fmt.Errorf("basic offset table length %d is not a multiple of 4", len(offsetTable))
	}
	offsets := make([]uint32, len(offsetTable)/4)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(offsetTable[i*4:])
	}
	if numberOfFrames > 0 && len(offsets) != numberOfFrames {
		return nil, fmt.Errorf("basic offset table has %d entries for %d frames", len(offsets), numberOfFrames)
	}

	// position of every fragment's item header relative to the first fragment
	starts := make(map[uint32]int, len(fragments))
	pos := uint32(0)
	for i, fragment := range fragments {
		starts[pos] = i
		pos += itemHeaderSize + uint32(len(fragment))
	}

	frames := make([][]byte, 0, len(offsets))
	for i, offset := range offsets {
		first, ok := starts[offset]
		if !ok {
			return nil, fmt.Errorf("frame %d offset %d does not point at a fragment", i, offset)
		}
		last := len(fragments)
		if i+1 < len(offsets) {
			next, ok := starts[offsets[i+1]]
			if !ok || next <= first {
				return nil, fmt.Errorf("frame %d offset %d does not point at a later fragment", i+1, offsets[i+1])
			}
			last = next
		}
		frames = append(frames, bytes.Join(fragments[first:last], nil))
	}
	return frames, nil
}

// framesFromMarkers starts a new frame at every fragment that begins a JPEG, JPEG-LS or JPEG 2000
// codestream.
func framesFromMarkers(fragments [][]byte, numberOfFrames int) ([][]byte, error) {
	frames := make([][]byte, 0, numberOfFrames)
	for _, fragment := range fragments {
		if len(frames) == 0 || startsCodestream(fragment) {
			frames = append(frames, append([]byte(nil), fragment...))
			continue
		}
		frames[len(frames)-1] = append(frames[len(frames)-1], fragment...)
	}
	if len(frames) != numberOfFrames {
		return nil, fmt.Errorf("cannot split %d fragments into %d frames", len(fragments), numberOfFrames)
	}
	return frames, nil
}

var codestreamMarkers = [][]byte{
	{0xFF, 0xD8, 0xFF},                   // JPEG and JPEG-LS SOI
	{0xFF, 0x4F, 0xFF, 0x51},             // JPEG 2000 codestream SOC + SIZ
	{0x00, 0x00, 0x00, 0x0C, 0x6A, 0x50}, // JP2 signature box
}

func startsCodestream(fragment []byte) bool {
	for _, marker := range codestreamMarkers {
		if bytes.HasPrefix(fragment, marker) {
			return true
		}
	}
	return false
}
