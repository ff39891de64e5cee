package codec

import (
	"errors"
	"testing"

	"github.com/j-taylor87/dcmpress/dicom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"native", "cocosip", "auto", ""} {
		b, err := Lookup(name)
		require.NoError(t, err, name)
		if name == "" {
			name = DefaultBackend
		}
		assert.Equal(t, name, b.Name())
	}

	_, err := Lookup("gdcm")
	assert.ErrorIs(t, err, ErrUnknownBackend)
	assert.Equal(t, []string{"auto", "cocosip", "native"}, Names())
}

func TestCanDecode(t *testing.T) {
	tests := []struct {
		uid                   string
		native, cocosip, auto bool
	}{
		{dicom.RLELosslessUID, true, false, true},
		{dicom.JPEGBaselineUID, true, true, true},
		{dicom.JPEGLosslessSV1UID, false, true, true},
		{dicom.JPEG2000UID, false, true, true},
		{dicom.JPEGLSLosslessUID, false, true, true},
		{dicom.HEVCH265MainProfileUID, false, false, false},
	}
	auto, err := Lookup("auto")
	require.NoError(t, err)
	for _, tc := range tests {
		assert.Equal(t, tc.native, Native{}.CanDecode(tc.uid), "native %s", tc.uid)
		assert.Equal(t, tc.cocosip, Cocosip{}.CanDecode(tc.uid), "cocosip %s", tc.uid)
		assert.Equal(t, tc.auto, auto.CanDecode(tc.uid), "auto %s", tc.uid)
	}
}

func TestChainFallsBackOnUnsupported(t *testing.T) {
	ds := encapsulatedDataSet(dicom.JPEGExtendedUID, mono8(1, 2), []byte{0xFF, 0xD8})

	first := &fakeBackend{name: "first", uids: []string{dicom.JPEGExtendedUID}, err: ErrUnsupportedTransferSyntax}
	second := &fakeBackend{name: "second", uids: []string{dicom.JPEGExtendedUID}, frames: [][]byte{{5, 6}}}
	skipped := &fakeBackend{name: "skipped"}

	frames, err := Chain{skipped, first, second}.DecodeFrames(ds, ImageInfo{})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{5, 6}}, frames)
	assert.Equal(t, 0, skipped.calls)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestChainStopsOnDecodeError(t *testing.T) {
	ds := encapsulatedDataSet(dicom.JPEGExtendedUID, mono8(1, 2), []byte{0xFF, 0xD8})
	corrupt := errors.New("corrupt codestream")

	first := &fakeBackend{name: "first", uids: []string{dicom.JPEGExtendedUID}, err: corrupt}
	second := &fakeBackend{name: "second", uids: []string{dicom.JPEGExtendedUID}}

	_, err := Chain{first, second}.DecodeFrames(ds, ImageInfo{})
	assert.ErrorIs(t, err, corrupt)
	assert.Equal(t, 0, second.calls)
}

func TestChainWithoutCapableBackend(t *testing.T) {
	ds := encapsulatedDataSet(dicom.MPEG2MainProfileUID, mono8(1, 2), []byte{0})

	_, err := Chain{Native{}}.DecodeFrames(ds, ImageInfo{})
	assert.ErrorIs(t, err, ErrUnsupportedTransferSyntax)
}
