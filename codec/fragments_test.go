package codec

import (
	"encoding/binary"
	"testing"

	"github.com/j-taylor87/dcmpress/dicom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offsetTable(offsets ...uint32) []byte {
	table := make([]byte, 4*len(offsets))
	for i, o := range offsets {
		binary.LittleEndian.PutUint32(table[i*4:], o)
	}
	return table
}

func TestEncapsulatedFrames(t *testing.T) {
	jpegA := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	jpegB := []byte{0xFF, 0xD8, 0xFF, 0xDB}
	j2k := []byte{0xFF, 0x4F, 0xFF, 0x51}

	tests := []struct {
		name      string
		fragments [][]byte
		frames    int
		want      [][]byte
	}{
		{
			name:      "single frame spread over fragments",
			fragments: [][]byte{{}, {1, 2}, {3, 4}},
			frames:    1,
			want:      [][]byte{{1, 2, 3, 4}},
		},
		{
			name:      "one fragment per frame",
			fragments: [][]byte{{}, {1, 2}, {3, 4}},
			frames:    2,
			want:      [][]byte{{1, 2}, {3, 4}},
		},
		{
			name:      "basic offset table",
			fragments: [][]byte{offsetTable(0, 12), {1, 2, 3, 4}, {5, 6}, {7, 8}},
			frames:    2,
			want:      [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}},
		},
		{
			name:      "JPEG markers",
			fragments: [][]byte{{}, jpegA, {1, 2}, jpegB},
			frames:    2,
			want:      [][]byte{append(append([]byte{}, jpegA...), 1, 2), jpegB},
		},
		{
			name:      "JPEG 2000 markers",
			fragments: [][]byte{{}, j2k, j2k, {9, 9}},
			frames:    2,
			want:      [][]byte{j2k, append(append([]byte{}, j2k...), 9, 9)},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ds := imageDataSet(dicom.JPEGBaselineUID, mono8(1, 1))
			ds.Set(dicom.PixelDataTag, dicom.OBVR, tc.fragments)

			frames, err := EncapsulatedFrames(ds, tc.frames)
			require.NoError(t, err)
			assert.Equal(t, tc.want, frames)
		})
	}
}

func TestEncapsulatedFramesErrors(t *testing.T) {
	tests := []struct {
		name      string
		pixelData interface{}
		frames    int
	}{
		{name: "native pixel data", pixelData: []byte{1, 2}, frames: 1},
		{name: "no fragments", pixelData: [][]byte{{}}, frames: 1},
		{name: "misaligned offset table", pixelData: [][]byte{{0, 0, 0}, {1, 2}}, frames: 1},
		{name: "offset table entry count", pixelData: [][]byte{offsetTable(0), {1, 2}, {3, 4}}, frames: 2},
		{name: "offset inside a fragment", pixelData: [][]byte{offsetTable(0, 4), {1, 2, 3, 4}, {5, 6}}, frames: 2},
		{name: "unsplittable fragments", pixelData: [][]byte{{}, {1}, {2}, {3}}, frames: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ds := imageDataSet(dicom.JPEGBaselineUID, mono8(1, 1))
			ds.Set(dicom.PixelDataTag, dicom.OBVR, tc.pixelData)

			_, err := EncapsulatedFrames(ds, tc.frames)
			assert.Error(t, err)
		})
	}
}

func TestUnpackBits(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
		size int
		want []byte
	}{
		{name: "literal", src: []byte{2, 'a', 'b', 'c'}, size: 3, want: []byte("abc")},
		{name: "replicate", src: []byte{0xFD, 'x'}, size: 4, want: []byte("xxxx")},
		{name: "no-op byte", src: []byte{0x80, 0, 'z'}, size: 1, want: []byte("z")},
		{name: "mixed runs", src: []byte{0xFF, 'y', 1, 'a', 'b'}, size: 4, want: []byte("yyab")},
		{name: "trailing padding", src: []byte{0, 'q', 0}, size: 1, want: []byte("q")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := unpackBits(tc.src, tc.size)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := unpackBits([]byte{5, 'a'}, 6)
	assert.Error(t, err)
	_, err = unpackBits([]byte{0, 'a'}, 2)
	assert.Error(t, err)
}

func TestReadImageInfo(t *testing.T) {
	ds := imageDataSet(dicom.ExplicitVRLittleEndianUID, mono8(4, 3))
	delete(ds.Elements, dicom.BitsStoredTag)
	delete(ds.Elements, dicom.SamplesPerPixelTag)
	delete(ds.Elements, dicom.PhotometricInterpretationTag)

	info, err := ReadImageInfo(ds)
	require.NoError(t, err)
	assert.Equal(t, ImageInfo{
		Rows:                      4,
		Columns:                   3,
		SamplesPerPixel:           1,
		BitsAllocated:             8,
		BitsStored:                8,
		NumberOfFrames:            1,
		PhotometricInterpretation: "MONOCHROME2",
	}, info)
	assert.Equal(t, 12, info.FrameSize())

	delete(ds.Elements, dicom.ColumnsTag)
	_, err = ReadImageInfo(ds)
	assert.ErrorIs(t, err, dicom.ErrElementNotFound)
}
