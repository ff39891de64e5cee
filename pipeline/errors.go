package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrParse classifies files that are not interpretable as DICOM or lack a required attribute.
	ErrParse = errors.New("parse error")
	// ErrCodec classifies files whose pixel data could not be decoded or re-encoded.
	ErrCodec = errors.New("codec error")
)

// FileError is the error recorded for a file that was not added to the archive.
type FileError struct {
	File string
	// Kind is ErrParse or ErrCodec.
	Kind error
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("Error processing %s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
