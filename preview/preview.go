// Package preview renders the first frame of native DICOM pixel data as a PNG thumbnail.
package preview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"

	"golang.org/x/image/draw"

	"github.com/j-taylor87/dcmpress/codec"
	"github.com/j-taylor87/dcmpress/dicom"
)

// DefaultMaxSize is the default length in pixels of the longest side of a preview.
const DefaultMaxSize = 256

var (
	// ErrNoPixelData is returned for data sets without Pixel Data.
	ErrNoPixelData = errors.New("no pixel data")
	// ErrUnsupported is returned for pixel data that cannot be rendered.
	ErrUnsupported = errors.New("unsupported pixel data")
)

// Render returns the first frame of the native pixel data of ds as a PNG image, scaled down so
// that its longest side is at most maxSize pixels. A maxSize of 0 or less keeps the original size.
func Render(ds *dicom.DataSet, maxSize int) ([]byte, error) {
	elem, ok := ds.Elements[dicom.PixelDataTag]
	if !ok {
		return nil, ErrNoPixelData
	}
	pixels, ok := elem.ValueField.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: pixel data of type %T", ErrUnsupported, elem.ValueField)
	}
	if len(pixels) == 0 {
		return nil, ErrNoPixelData
	}

	info, err := codec.ReadImageInfo(ds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	frameSize := info.FrameSize()
	if len(pixels) < frameSize {
		return nil, fmt.Errorf("%w: %d bytes of pixel data, want at least %d", ErrUnsupported, len(pixels), frameSize)
	}
	frame := pixels[:frameSize]

	var img image.Image
	switch pi := info.PhotometricInterpretation; {
	case pi == "MONOCHROME1" || pi == "MONOCHROME2":
		img, err = renderMonochrome(ds, frame, info)
	case pi == "RGB" || strings.HasPrefix(pi, "YBR_FULL"):
		img, err = renderColour(frame, info)
	default:
		err = fmt.Errorf("%w: photometric interpretation %s", ErrUnsupported, pi)
	}
	if err != nil {
		return nil, err
	}

	img = scale(img, maxSize)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func renderMonochrome(ds *dicom.DataSet, frame []byte, info codec.ImageInfo) (image.Image, error) {
	if info.SamplesPerPixel != 1 {
		return nil, fmt.Errorf("%w: %d samples per pixel", ErrUnsupported, info.SamplesPerPixel)
	}
	if info.BitsAllocated != 8 && info.BitsAllocated != 16 {
		return nil, fmt.Errorf("%w: %d bits allocated", ErrUnsupported, info.BitsAllocated)
	}

	slope, intercept := 1.0, 0.0
	if v, err := firstFloat(ds, dicom.RescaleSlopeTag); err == nil && v != 0 {
		slope = v
	}
	if v, err := firstFloat(ds, dicom.RescaleInterceptTag); err == nil {
		intercept = v
	}

	n := info.Rows * info.Columns
	values := make([]float64, n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range values {
		var raw uint32
		if info.BitsAllocated == 8 {
			raw = uint32(frame[i])
		} else {
			raw = uint32(binary.LittleEndian.Uint16(frame[2*i:]))
		}
		v := float64(storedValue(raw, info))*slope + intercept
		values[i] = v
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	center, width := (lo+hi)/2, hi-lo
	if c, err := firstFloat(ds, dicom.WindowCenterTag); err == nil {
		if w, err := firstFloat(ds, dicom.WindowWidthTag); err == nil && w > 0 {
			center, width = c, w
		}
	}

	invert := info.PhotometricInterpretation == "MONOCHROME1"
	img := image.NewGray(image.Rect(0, 0, info.Columns, info.Rows))
	for i, v := range values {
		g := window(v, center, width)
		if invert {
			g = 255 - g
		}
		img.Pix[(i/info.Columns)*img.Stride+i%info.Columns] = g
	}
	return img, nil
}

// storedValue masks raw to Bits Stored and sign-extends it for signed pixel representations.
func storedValue(raw uint32, info codec.ImageInfo) int32 {
	bits := info.BitsStored
	if bits <= 0 || bits > info.BitsAllocated {
		bits = info.BitsAllocated
	}
	raw &= 1<<uint(bits) - 1
	if info.PixelRepresentation == 1 && raw&(1<<uint(bits-1)) != 0 {
		return int32(raw) - 1<<uint(bits)
	}
	return int32(raw)
}

// window maps v linearly to [0, 255] over the window [center - width/2, center + width/2].
func window(v, center, width float64) uint8 {
	if width <= 0 {
		if v < center {
			return 0
		}
		return 255
	}
	g := (v - (center - width/2)) / width * 255
	switch {
	case g <= 0:
		return 0
	case g >= 255:
		return 255
	}
	return uint8(math.Round(g))
}

func renderColour(frame []byte, info codec.ImageInfo) (image.Image, error) {
	if info.SamplesPerPixel != 3 || info.BitsAllocated != 8 {
		return nil, fmt.Errorf("%w: %d samples of %d bits for %s", ErrUnsupported,
			info.SamplesPerPixel, info.BitsAllocated, info.PhotometricInterpretation)
	}

	n := info.Rows * info.Columns
	sample := func(p, s int) uint8 {
		if info.PlanarConfiguration == 1 {
			return frame[s*n+p]
		}
		return frame[p*3+s]
	}
	ybr := info.PhotometricInterpretation != "RGB"

	img := image.NewRGBA(image.Rect(0, 0, info.Columns, info.Rows))
	for p := 0; p < n; p++ {
		r, g, b := sample(p, 0), sample(p, 1), sample(p, 2)
		if ybr {
			r, g, b = color.YCbCrToRGB(r, g, b)
		}
		img.SetRGBA(p%info.Columns, p/info.Columns, color.RGBA{R: r, G: g, B: b, A: 0xFF})
	}
	return img, nil
}

func scale(src image.Image, maxSize int) image.Image {
	b := src.Bounds()
	longest := max(b.Dx(), b.Dy())
	if maxSize <= 0 || longest <= maxSize {
		return src
	}
	w := max(1, b.Dx()*maxSize/longest)
	h := max(1, b.Dy()*maxSize/longest)

	var dst draw.Image
	if _, gray := src.(*image.Gray); gray {
		dst = image.NewGray(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func firstFloat(ds *dicom.DataSet, tag dicom.DataElementTag) (float64, error) {
	elem, err := ds.Find(tag)
	if err != nil {
		return 0, err
	}
	values, err := elem.FloatValues()
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("%v has no values", tag)
	}
	return values[0], nil
}
