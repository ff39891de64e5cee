package codec

import (
	"encoding/binary"
	"strconv"

	"github.com/j-taylor87/dcmpress/dicom"
)

type imageParams struct {
	rows, columns   int
	samplesPerPixel int
	bitsAllocated   int
	frames          int
	photometric     string
	planar          int
}

func mono8(rows, columns int) imageParams {
	return imageParams{rows: rows, columns: columns, samplesPerPixel: 1, bitsAllocated: 8, frames: 1, photometric: "MONOCHROME2"}
}

// encapsulatedDataSet returns a data set with the given image parameters and encapsulated pixel
// data made of an empty Basic Offset Table followed by fragments.
func encapsulatedDataSet(uid string, p imageParams, fragments ...[]byte) *dicom.DataSet {
	ds := imageDataSet(uid, p)
	ds.Set(dicom.PixelDataTag, dicom.OBVR, append([][]byte{{}}, fragments...))
	return ds
}

func imageDataSet(uid string, p imageParams) *dicom.DataSet {
	ds := dicom.NewDataSet(map[dicom.DataElementTag]interface{}{
		dicom.TransferSyntaxUIDTag:         []string{uid},
		dicom.SOPClassUIDTag:               []string{"1.2.840.10008.5.1.4.1.1.7"},
		dicom.SOPInstanceUIDTag:            []string{"1.2.826.0.1.3680043.2.1125.1"},
		dicom.SamplesPerPixelTag:           []uint16{uint16(p.samplesPerPixel)},
		dicom.PhotometricInterpretationTag: []string{p.photometric},
		dicom.RowsTag:                      []uint16{uint16(p.rows)},
		dicom.ColumnsTag:                   []uint16{uint16(p.columns)},
		dicom.BitsAllocatedTag:             []uint16{uint16(p.bitsAllocated)},
		dicom.BitsStoredTag:                []uint16{uint16(p.bitsAllocated)},
		dicom.PixelRepresentationTag:       []uint16{0},
	})
	if p.samplesPerPixel > 1 {
		ds.Set(dicom.PlanarConfigurationTag, dicom.USVR, []uint16{uint16(p.planar)})
	}
	if p.frames > 1 {
		ds.Set(dicom.NumberOfFramesTag, dicom.ISVR, []string{strconv.Itoa(p.frames)})
	}
	return ds
}

// rleFrame encodes segments as an RLE Lossless frame using literal runs only.
func rleFrame(segments ...[]byte) []byte {
	frame := make([]byte, rleHeaderSize)
	binary.LittleEndian.PutUint32(frame, uint32(len(segments)))
	for i, segment := range segments {
		binary.LittleEndian.PutUint32(frame[4+i*4:], uint32(len(frame)))
		for len(segment) > 0 {
			n := min(len(segment), 128)
			frame = append(frame, byte(n-1))
			frame = append(frame, segment[:n]...)
			segment = segment[n:]
		}
		if len(frame)%2 != 0 {
			frame = append(frame, 0)
		}
	}
	return frame
}

type fakeBackend struct {
	name   string
	uids   []string
	frames [][]byte
	err    error
	calls  int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) CanDecode(uid string) bool {
	for _, u := range f.uids {
		if u == uid {
			return true
		}
	}
	return false
}

func (f *fakeBackend) DecodeFrames(*dicom.DataSet, ImageInfo) ([][]byte, error) {
	f.calls++
	return f.frames, f.err
}
