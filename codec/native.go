package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/j-taylor87/dcmpress/dicom"
)

// Native decodes RLE Lossless and 8 bit JPEG Baseline/Extended pixel data without any external
// codec library.
type Native struct{}

// Name implements Backend.
func (Native) Name() string { return "native" }

// CanDecode implements Backend.
func (Native) CanDecode(uid string) bool {
	switch uid {
	case dicom.RLELosslessUID, dicom.JPEGBaselineUID, dicom.JPEGExtendedUID:
		return true
	}
	return false
}

// DecodeFrames implements Backend.
func (n Native) DecodeFrames(ds *dicom.DataSet, info ImageInfo) ([][]byte, error) {
	uid, err := ds.TransferSyntaxUID()
	if err != nil {
		return nil, err
	}
	if !n.CanDecode(uid) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransferSyntax, dicom.TransferSyntaxName(uid))
	}

	decode := decodeRLEFrame
	if uid != dicom.RLELosslessUID {
		if info.BitsAllocated != 8 {
			return nil, fmt.Errorf("%w: %d bit JPEG", ErrUnsupportedTransferSyntax, info.BitsAllocated)
		}
		decode = decodeJPEGFrame
	}

	frames, err := EncapsulatedFrames(ds, info.NumberOfFrames)
	if err != nil {
		return nil, err
	}
	decoded := make([][]byte, len(frames))
	for i, frame := range frames {
		if decoded[i], err = decode(frame, info); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return decoded, nil
}

// decodeJPEGFrame decodes an 8 bit JPEG frame into interleaved grayscale or RGB samples.
func decodeJPEGFrame(frame []byte, info ImageInfo) ([]byte, error) {
	// the header size must match before the decoder allocates for it
	if cfg, err := jpeg.DecodeConfig(bytes.NewReader(frame)); err == nil && (cfg.Width != info.Columns || cfg.Height != info.Rows) {
		return nil, fmt.Errorf("%w: JPEG is %dx%d, want %dx%d", ErrFrameSize, cfg.Width, cfg.Height, info.Columns, info.Rows)
	}
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if unsupported, ok := err.(jpeg.UnsupportedError); ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedTransferSyntax, unsupported)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding JPEG: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != info.Columns || b.Dy() != info.Rows {
		return nil, fmt.Errorf("%w: JPEG is %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), info.Columns, info.Rows)
	}

	switch info.SamplesPerPixel {
	case 1:
		out := make([]byte, 0, b.Dx()*b.Dy())
		switch m := img.(type) {
		case *image.Gray:
			for y := b.Min.Y; y < b.Max.Y; y++ {
				off := m.PixOffset(b.Min.X, y)
				out = append(out, m.Pix[off:off+b.Dx()]...)
			}
		case *image.YCbCr:
			for y := b.Min.Y; y < b.Max.Y; y++ {
				off := m.YOffset(b.Min.X, y)
				out = append(out, m.Y[off:off+b.Dx()]...)
			}
		default:
			return nil, fmt.Errorf("%w: %T for a single sample image", ErrUnsupportedTransferSyntax, img)
		}
		return out, nil
	case 3:
		out := make([]byte, 0, b.Dx()*b.Dy()*3)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8))
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %d samples per pixel", ErrUnsupportedTransferSyntax, info.SamplesPerPixel)
}
