// Package pipeline runs the batch decompression of uploaded DICOM files: every file is parsed,
// decoded to Explicit VR Little Endian, re-encoded into a ZIP archive and previewed. A failure
// for one file never stops the others.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/j-taylor87/dcmpress/archive"
	"github.com/j-taylor87/dcmpress/codec"
	"github.com/j-taylor87/dcmpress/dicom"
	"github.com/j-taylor87/dcmpress/preview"
)

// NoPreviewWarning is reported for files whose pixel data cannot be rendered.
const NoPreviewWarning = "No image data available."

// Upload is one file of a batch.
type Upload struct {
	Name string
	Data []byte
}

// Outcome is the result of processing one Upload. Err is nil on success.
type Outcome struct {
	Name string
	// Before summarizes the parsed file. It is the zero Summary when parsing failed.
	Before Summary
	// After summarizes the decoded file. It is the zero Summary unless decoding succeeded.
	After Summary
	// EncodedSize is the size of the re-encoded file stored in the archive.
	EncodedSize int
	// Preview is a PNG rendering of the first frame, or nil with PreviewWarning set.
	Preview        []byte
	PreviewWarning string
	Err            error
}

// Succeeded reports whether the file was added to the archive.
func (o *Outcome) Succeeded() bool {
	return o.Err == nil
}

// Result holds the outcome of every upload in upload order and the archive of the successful
// ones.
type Result struct {
	Outcomes  []Outcome
	Succeeded int
	Archive   []byte
}

// Failed returns the number of files that were not added to the archive.
func (r *Result) Failed() int {
	return len(r.Outcomes) - r.Succeeded
}

// Pipeline converts batches of uploads.
type Pipeline struct {
	backend     codec.Backend
	previewSize int
	codecOpts   []codec.Option
}

// New returns a Pipeline decoding pixel data with backend and rendering previews of at most
// previewSize pixels. A previewSize of 0 or less disables previews. opts are passed to
// codec.Decompress for every file.
func New(backend codec.Backend, previewSize int, opts ...codec.Option) *Pipeline {
	return &Pipeline{backend: backend, previewSize: previewSize, codecOpts: opts}
}

// Process converts uploads sequentially in upload order. The returned error is only set when the
// archive itself cannot be built; per file failures are reported in the outcomes.
func (p *Pipeline) Process(ctx context.Context, uploads []Upload) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	zw := archive.NewWriter()
	res := &Result{Outcomes: make([]Outcome, 0, len(uploads))}

	for _, u := range uploads {
		outcome, encoded := p.processFile(ctx, u)
		if outcome.Err == nil {
			if err := zw.Add(u.Name, encoded); err != nil {
				outcome.Err = &FileError{File: u.Name, Kind: ErrCodec, Err: err}
			}
		}

		var event *zerolog.Event
		if outcome.Err != nil {
			event = logger.Warn().Err(outcome.Err)
		} else {
			res.Succeeded++
			event = logger.Info()
		}
		event.Str("file", u.Name).
			Str("from", outcome.Before.TransferSyntaxName).
			Str("to", outcome.After.TransferSyntaxName).
			Int("size", outcome.EncodedSize).
			Bool("preview", outcome.Preview != nil).
			Msg("processed file")

		res.Outcomes = append(res.Outcomes, outcome)
	}

	data, err := zw.Bytes()
	if err != nil {
		return nil, err
	}
	res.Archive = data
	logger.Info().Int("files", len(uploads)).Int("succeeded", res.Succeeded).Int("archive_size", len(data)).Msg("processed batch")
	return res, nil
}

func (p *Pipeline) processFile(ctx context.Context, u Upload) (Outcome, []byte) {
	outcome := Outcome{Name: u.Name}

	before, err := dicom.Parse(bytes.NewReader(u.Data), dicom.Lenient, dicom.DropGroupLengths)
	if err != nil {
		outcome.Err = &FileError{File: u.Name, Kind: ErrParse, Err: err}
		return outcome, nil
	}
	outcome.Before = Summarize(before)

	after, err := codec.Decompress(before, p.backend, p.codecOpts...)
	if err == nil {
		outcome.After = Summarize(after)
	}
	p.renderPreview(ctx, &outcome, before, after)
	if err != nil {
		outcome.Err = &FileError{File: u.Name, Kind: classify(err), Err: err}
		return outcome, nil
	}

	var buf bytes.Buffer
	if err := dicom.Write(&buf, after); err != nil {
		outcome.Err = &FileError{File: u.Name, Kind: ErrCodec, Err: fmt.Errorf("writing file: %w", err)}
		return outcome, nil
	}
	outcome.EncodedSize = buf.Len()
	return outcome, buf.Bytes()
}

// renderPreview renders the decoded data set, or the parsed one when decoding failed.
func (p *Pipeline) renderPreview(ctx context.Context, outcome *Outcome, before, after *dicom.DataSet) {
	if p.previewSize <= 0 {
		return
	}
	ds := after
	if ds == nil {
		ds = before
	}
	img, err := preview.Render(ds, p.previewSize)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("file", outcome.Name).Msg("no preview")
		outcome.PreviewWarning = NoPreviewWarning
		return
	}
	outcome.Preview = img
}

// classify reports missing required attributes as parse errors and everything else that went
// wrong while decoding as a codec error.
func classify(err error) error {
	if errors.Is(err, dicom.ErrElementNotFound) {
		return ErrParse
	}
	return ErrCodec
}
