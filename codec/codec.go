// Package codec converts DICOM data sets with encapsulated (compressed) pixel data into the
// Explicit VR Little Endian transfer syntax with native pixel data.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/j-taylor87/dcmpress/dicom"
)

// ErrUnsupportedTransferSyntax is returned when no backend can decode the pixel data of a
// transfer syntax.
var ErrUnsupportedTransferSyntax = errors.New("unsupported transfer syntax")

// ErrFrameSize is returned when a decoded frame does not have the size described by the Image
// Pixel module.
var ErrFrameSize = errors.New("decoded frame size mismatch")

// ErrImageTooLarge is returned when the Image Pixel module describes more native pixel data than
// Decompress is allowed to produce, or more frames than the encapsulated data holds.
var ErrImageTooLarge = errors.New("image too large")

// DefaultMaxDecodedSize is the default bound on the native pixel data of one data set.
const DefaultMaxDecodedSize = 1 << 30

// Option configures Decompress.
type Option struct {
	maxDecodedSize int
}

// WithMaxDecodedSize bounds the native pixel data Decompress produces for one data set to n
// bytes. A value of 0 or less selects DefaultMaxDecodedSize.
func WithMaxDecodedSize(n int) Option {
	return Option{maxDecodedSize: n}
}

func maxDecodedSize(opts []Option) int {
	size := DefaultMaxDecodedSize
	for _, opt := range opts {
		if opt.maxDecodedSize > 0 {
			size = opt.maxDecodedSize
		}
	}
	return size
}

// Backend decodes the encapsulated pixel data of a data set.
type Backend interface {
	// Name identifies the backend in configuration and logs.
	Name() string

	// CanDecode reports whether the backend supports the transfer syntax.
	CanDecode(transferSyntaxUID string) bool

	// DecodeFrames returns the native little endian pixel data of every frame of ds with
	// interleaved samples. It returns an error wrapping ErrUnsupportedTransferSyntax when the
	// image parameters are outside what the backend handles.
	DecodeFrames(ds *dicom.DataSet, info ImageInfo) ([][]byte, error)
}

// Decompress returns a copy of ds in the Explicit VR Little Endian transfer syntax. Native pixel
// data is kept as is; encapsulated pixel data is decoded by b. ds is not modified.
func Decompress(ds *dicom.DataSet, b Backend, opts ...Option) (*dicom.DataSet, error) {
	uid, err := ds.TransferSyntaxUID()
	if err != nil {
		return nil, fmt.Errorf("reading transfer syntax: %w", err)
	}

	out := ds.Clone()
	out.Set(dicom.TransferSyntaxUIDTag, dicom.UIVR, []string{dicom.ExplicitVRLittleEndianUID})

	pixelData, ok := ds.Elements[dicom.PixelDataTag]
	if !ok {
		return out, nil
	}
	if _, encapsulated := pixelData.ValueField.([][]byte); !encapsulated && !dicom.IsEncapsulated(uid) {
		return out, nil
	}

	if b == nil || !b.CanDecode(uid) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransferSyntax, dicom.TransferSyntaxName(uid))
	}

	info, err := ReadImageInfo(ds)
	if err != nil {
		return nil, err
	}
	if err := checkImageSize(pixelData, info, maxDecodedSize(opts)); err != nil {
		return nil, err
	}

	frames, err := b.DecodeFrames(ds, info)
	if err != nil {
		return nil, fmt.Errorf("decoding %s with %s backend: %w", dicom.TransferSyntaxName(uid), b.Name(), err)
	}
	if len(frames) != info.NumberOfFrames {
		return nil, fmt.Errorf("%w: got %d frames, want %d", ErrFrameSize, len(frames), info.NumberOfFrames)
	}

	frameSize := info.FrameSize()
	for i, frame := range frames {
		if len(frame) != frameSize {
			return nil, fmt.Errorf("%w: frame %d has %d bytes, want %d", ErrFrameSize, i, len(frame), frameSize)
		}
	}
	native := make([]byte, 0, frameSize*len(frames)+1)
	for _, frame := range frames {
		native = append(native, frame...)
	}
	if len(native)%2 != 0 {
		native = append(native, 0)
	}

	vr := dicom.OWVR
	if info.BitsAllocated <= 8 {
		vr = dicom.OBVR
	}
	out.Set(dicom.PixelDataTag, vr, native)

	if pi := decodedPhotometricInterpretation(uid, info); pi != info.PhotometricInterpretation {
		out.Set(dicom.PhotometricInterpretationTag, dicom.CSVR, []string{pi})
	}
	if info.SamplesPerPixel > 1 {
		out.Set(dicom.PlanarConfigurationTag, dicom.USVR, []uint16{0})
	}
	return out, nil
}

// checkImageSize rejects images whose declared size cannot be backed by the encapsulated data
// before any backend allocates for them. Every frame starts in its own fragment.
func checkImageSize(pixelData *dicom.DataElement, info ImageInfo, limit int) error {
	if fragments, ok := pixelData.ValueField.([][]byte); ok && len(fragments) > 0 && info.NumberOfFrames > len(fragments)-1 {
		return fmt.Errorf("%w: %d frames in %d fragments", ErrImageTooLarge, info.NumberOfFrames, len(fragments)-1)
	}
	frameSize := info.FrameSize()
	if frameSize > limit || info.NumberOfFrames > limit/frameSize {
		return fmt.Errorf("%w: %d frames of %d bytes exceed %d bytes", ErrImageTooLarge, info.NumberOfFrames, frameSize, limit)
	}
	return nil
}

// decodedPhotometricInterpretation returns the photometric interpretation of decoded pixel data.
// JPEG and JPEG 2000 decoders convert YCbCr colour to RGB.
func decodedPhotometricInterpretation(uid string, info ImageInfo) string {
	if info.SamplesPerPixel != 3 || !strings.HasPrefix(info.PhotometricInterpretation, "YBR") {
		return info.PhotometricInterpretation
	}
	switch uid {
	case dicom.JPEGBaselineUID, dicom.JPEGExtendedUID,
		dicom.JPEG2000LosslessUID, dicom.JPEG2000UID,
		dicom.JPEG2000Part2LosslessUID, dicom.JPEG2000Part2UID:
		return "RGB"
	}
	return info.PhotometricInterpretation
}
