// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dicom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// dcmReader reads the primitive values found in a DICOM stream and tracks how far into the
// stream it has read.
type dcmReader struct {
	cr *countReader
}

func newDcmReader(r io.Reader) *dcmReader {
	return &dcmReader{&countReader{r, 0}}
}

// Tag reads a (group, element) pair in the given byte order.
func (dr *dcmReader) Tag(order binary.ByteOrder) (DataElementTag, error) {
	group, err := dr.UInt16(order)
	if err != nil {
		return 0, err
	}
	element, err := dr.UInt16(order)
	if err == io.EOF {
		return 0, io.ErrUnexpectedEOF
	}
	if err != nil {
		return 0, err
	}

	return DataElementTag(uint32(group)<<16 | uint32(element)), nil
}

// Limit returns a reader that reads at most n more bytes from dr. The returned reader shares the
// position of dr.
func (dr *dcmReader) Limit(n int64) *dcmReader {
	return &dcmReader{limitCountReader(dr.cr, n)}
}

// Skip discards the next n bytes.
func (dr *dcmReader) Skip(n int64) error {
	skipped, err := io.CopyN(io.Discard, dr.cr, n)
	if err == io.EOF && skipped < n {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Position is the number of bytes consumed so far.
func (dr *dcmReader) Position() int64 {
	return dr.cr.bytesRead
}

func (dr *dcmReader) String(n int64) (string, error) {
	b, err := dr.Bytes(n)
	return string(b), err
}

// Bytes reads the next n bytes. The buffer grows with the bytes actually read, so a declared
// length larger than the remaining input fails with io.ErrUnexpectedEOF without allocating it.
func (dr *dcmReader) Bytes(n int64) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d", n)
	}
	var buf bytes.Buffer
	read, err := io.CopyN(&buf, dr.cr, n)
	if err == io.EOF && read < n {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (dr *dcmReader) UInt32(order binary.ByteOrder) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(dr.cr, b[:]); err != nil {
		return 0, err
	}
	return order.Uint32(b[:]), nil
}

func (dr *dcmReader) UInt16(order binary.ByteOrder) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(dr.cr, b[:]); err != nil {
		return 0, err
	}
	return order.Uint16(b[:]), nil
}

type countReader struct {
	r         io.Reader
	bytesRead int64 // number of bytes read
}

func (cr *countReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.bytesRead += int64(n)
	return n, err
}

func limitCountReader(cr *countReader, n int64) *countReader {
	return &countReader{io.LimitReader(cr, n), cr.bytesRead}
}
