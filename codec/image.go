package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/j-taylor87/dcmpress/dicom"
)

// ImageInfo holds the Image Pixel module attributes needed to decode and render pixel data.
type ImageInfo struct {
	Rows                      int
	Columns                   int
	SamplesPerPixel           int
	BitsAllocated             int
	BitsStored                int
	PixelRepresentation       int
	PlanarConfiguration       int
	NumberOfFrames            int
	PhotometricInterpretation string
}

// ReadImageInfo reads the Image Pixel module of ds. Rows, Columns and Bits Allocated are required;
// a missing one returns an error wrapping dicom.ErrElementNotFound. Other attributes fall back to
// their usual defaults.
func ReadImageInfo(ds *dicom.DataSet) (ImageInfo, error) {
	var info ImageInfo
	required := []struct {
		tag  dicom.DataElementTag
		dest *int
	}{
		{dicom.RowsTag, &info.Rows},
		{dicom.ColumnsTag, &info.Columns},
		{dicom.BitsAllocatedTag, &info.BitsAllocated},
	}
	for _, r := range required {
		v, err := ds.Int(r.tag)
		if err != nil {
			return info, fmt.Errorf("reading image pixel module: %w", err)
		}
		*r.dest = int(v)
	}

	optional := []struct {
		tag  dicom.DataElementTag
		dest *int
		def  int
	}{
		{dicom.SamplesPerPixelTag, &info.SamplesPerPixel, 1},
		{dicom.BitsStoredTag, &info.BitsStored, info.BitsAllocated},
		{dicom.PixelRepresentationTag, &info.PixelRepresentation, 0},
		{dicom.PlanarConfigurationTag, &info.PlanarConfiguration, 0},
		{dicom.NumberOfFramesTag, &info.NumberOfFrames, 1},
	}
	for _, o := range optional {
		v, err := ds.Int(o.tag)
		switch {
		case errors.Is(err, dicom.ErrElementNotFound):
			*o.dest = o.def
		case err != nil:
			return info, fmt.Errorf("reading image pixel module: %w", err)
		default:
			*o.dest = int(v)
		}
	}

	info.PhotometricInterpretation = "MONOCHROME2"
	if pi, err := ds.Text(dicom.PhotometricInterpretationTag); err == nil && strings.TrimSpace(pi) != "" {
		info.PhotometricInterpretation = strings.TrimSpace(pi)
	}

	if info.Rows <= 0 || info.Columns <= 0 {
		return info, fmt.Errorf("invalid image size %dx%d", info.Columns, info.Rows)
	}
	if info.BitsAllocated <= 0 || (info.BitsAllocated%8 != 0 && info.BitsAllocated != 1) {
		return info, fmt.Errorf("unsupported bits allocated %d", info.BitsAllocated)
	}
	if info.SamplesPerPixel <= 0 {
		return info, fmt.Errorf("invalid samples per pixel %d", info.SamplesPerPixel)
	}
	if info.NumberOfFrames <= 0 {
		info.NumberOfFrames = 1
	}
	return info, nil
}

// BytesPerSample is the number of bytes used by a single sample.
func (i ImageInfo) BytesPerSample() int {
	return (i.BitsAllocated + 7) / 8
}

// FrameSize is the size in bytes of one native frame.
func (i ImageInfo) FrameSize() int {
	if i.BitsAllocated == 1 {
		return (i.Rows*i.Columns*i.SamplesPerPixel + 7) / 8
	}
	return i.Rows * i.Columns * i.SamplesPerPixel * i.BytesPerSample()
}
