package codec

import (
	"fmt"
	"os"

	"github.com/cocosip/go-dicom/pkg/dicom/parser"
	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	"github.com/cocosip/go-dicom/pkg/imaging"
	cocodec "github.com/cocosip/go-dicom/pkg/imaging/codec"
	"github.com/j-taylor87/dcmpress/dicom"

	// codecs register themselves with the imaging codec registry
	_ "github.com/cocosip/go-dicom-codec/jpeg/baseline"
	_ "github.com/cocosip/go-dicom-codec/jpeg/extended"
	_ "github.com/cocosip/go-dicom-codec/jpeg/lossless"
	_ "github.com/cocosip/go-dicom-codec/jpeg/lossless14sv1"
	_ "github.com/cocosip/go-dicom-codec/jpeg2000/lossless"
	_ "github.com/cocosip/go-dicom-codec/jpeg2000/lossy"
	_ "github.com/cocosip/go-dicom-codec/jpegls/lossless"
)

// Cocosip decodes JPEG, JPEG Lossless, JPEG-LS and JPEG 2000 pixel data with the pure Go codecs
// of github.com/cocosip/go-dicom-codec.
type Cocosip struct {
	// TempDir is where the data set is staged for the codec library. The default temporary
	// directory is used when empty.
	TempDir string
}

var cocosipSyntaxes = map[string]bool{
	dicom.JPEGBaselineUID:     true,
	dicom.JPEGExtendedUID:     true,
	dicom.JPEGLosslessUID:     true,
	dicom.JPEGLosslessSV1UID:  true,
	dicom.JPEGLSLosslessUID:   true,
	dicom.JPEG2000LosslessUID: true,
	dicom.JPEG2000UID:         true,
}

// Name implements Backend.
func (Cocosip) Name() string { return "cocosip" }

// CanDecode implements Backend.
func (Cocosip) CanDecode(uid string) bool { return cocosipSyntaxes[uid] }

// DecodeFrames implements Backend.
func (c Cocosip) DecodeFrames(ds *dicom.DataSet, info ImageInfo) ([][]byte, error) {
	uid, err := ds.TransferSyntaxUID()
	if err != nil {
		return nil, err
	}
	if !c.CanDecode(uid) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransferSyntax, dicom.TransferSyntaxName(uid))
	}

	f, err := os.CreateTemp(c.TempDir, "dcmpress-*.dcm")
	if err != nil {
		return nil, fmt.Errorf("staging data set: %w", err)
	}
	defer os.Remove(f.Name())
	if err := dicom.Write(f, ds); err != nil {
		f.Close()
		return nil, fmt.Errorf("staging data set: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("staging data set: %w", err)
	}

	res, err := parser.ParseFile(f.Name(), parser.WithReadOption(parser.ReadAll))
	if err != nil {
		return nil, fmt.Errorf("parsing staged data set: %w", err)
	}
	cds := res.Dataset
	if res.TransferSyntax != nil && res.TransferSyntax.IsEncapsulated() {
		tr := cocodec.NewTranscoder(res.TransferSyntax, transfer.ExplicitVRLittleEndian)
		if cds, err = tr.Transcode(cds); err != nil {
			return nil, fmt.Errorf("transcoding: %w", err)
		}
	}

	pd, err := imaging.CreatePixelData(cds)
	if err != nil {
		return nil, fmt.Errorf("reading decoded pixel data: %w", err)
	}
	frames := make([][]byte, 0, pd.FrameCount())
	for i := range pd.FrameCount() {
		frame, err := pd.GetFrame(i)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
