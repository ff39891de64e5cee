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
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// ErrMissingSignature is returned in strict mode when the input does not start with a 128 byte
// preamble followed by "DICM".
var ErrMissingSignature = errors.New("missing DICOM preamble and signature")

// ErrMissingTransferSyntax is returned in strict mode when the file meta information does not
// contain a Transfer Syntax UID.
var ErrMissingTransferSyntax = errors.New("transfer syntax not found")

const (
	preambleLength = 128
	metaGroup      = 0x0002
)

// DataElementIterator represents an iterator over a DataSet's DataElements
type DataElementIterator interface {
	// NextElement returns the next DataElement in the DataSet. If there is no next DataElement, the
	// error io.EOF is returned. In Addition, if any previously returned DataElements contained
	// iterable objects like SequenceIterator, BulkDataIterator, these iterators are emptied.
	NextElement() (*DataElement, error)

	// Close discards all remaining DataElements in the iterator
	Close() error

	syntax() transferSyntax
	length() uint32
}

// NewDataElementIterator returns a DataElementIterator over the DICOM file in r. File meta
// elements are returned first followed by the elements of the data set. BulkData and Sequence
// values are returned as BulkDataIterator and SequenceIterator and are only valid until the next
// call to NextElement. Only the Lenient ParseOption is honoured.
func NewDataElementIterator(r io.Reader, opts ...ParseOption) (DataElementIterator, error) {
	return newFileIterator(r, isLenient(opts))
}

// fileIterator iterates over a Part 10 file: the buffered file meta elements followed by the
// data set elements read in the file's transfer syntax.
type fileIterator struct {
	meta      []*DataElement
	dataSet   *dataElementIterator
	syntaxUID string
	sniffed   bool
	inflater  io.ReadCloser
}

func newFileIterator(r io.Reader, lenient bool) (*fileIterator, error) {
	br := bufio.NewReader(r)
	offset, err := readDicomSignature(br, lenient)
	if err != nil {
		return nil, err
	}

	dr := &dcmReader{&countReader{br, offset}}
	meta, err := readMetaElements(br, dr, lenient)
	if err != nil {
		return nil, fmt.Errorf("reading file meta elements: %w", err)
	}

	it := &fileIterator{meta: meta}
	for _, elem := range meta {
		if elem.Tag == TransferSyntaxUIDTag {
			it.syntaxUID, _ = elem.StringValue()
		}
	}

	if it.syntaxUID == "" {
		if !lenient {
			return nil, ErrMissingTransferSyntax
		}
		it.syntaxUID = sniffTransferSyntax(br)
		it.sniffed = true
	}

	syntax := lookupTransferSyntax(it.syntaxUID)
	if syntax.isDeflated() {
		it.inflater = flate.NewReader(br)
		dr = newDcmReader(it.inflater)
	}
	it.dataSet = newDataElementIterator(dr, syntax, UndefinedLength)

	return it, nil
}

func (it *fileIterator) NextElement() (*DataElement, error) {
	if len(it.meta) > 0 {
		elem := it.meta[0]
		it.meta = it.meta[1:]
		return elem, nil
	}
	return it.dataSet.NextElement()
}

func (it *fileIterator) Close() error {
	it.meta = nil
	err := it.dataSet.Close()
	if it.inflater != nil {
		if closeErr := it.inflater.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

func (it *fileIterator) syntax() transferSyntax {
	return it.dataSet.syntax()
}

func (it *fileIterator) length() uint32 {
	return UndefinedLength
}

func newDataElementIterator(dr *dcmReader, syntax transferSyntax, length uint32) *dataElementIterator {
	return &dataElementIterator{dr: dr, transferSyntax: syntax, itemLength: length}
}

type dataElementIterator struct {
	dr             *dcmReader
	transferSyntax transferSyntax
	itemLength     uint32
	currentElement *DataElement
	empty          bool
}

func (it *dataElementIterator) NextElement() (*DataElement, error) {
	if it.empty {
		return nil, io.EOF
	}
	if err := it.closeCurrent(); err != nil {
		return nil, fmt.Errorf("closing: %w", err)
	}

	element, err := readDataElement(it.dr, it.transferSyntax)
	if err == io.EOF {
		it.empty = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("parsing element: %w", err)
	}

	it.currentElement = element

	return it.currentElement, nil
}

func (it *dataElementIterator) Close() error {
	for _, err := it.NextElement(); err != io.EOF; _, err = it.NextElement() {
		if err != nil {
			return fmt.Errorf("unexpected error closing iterator: %w", err)
		}
	}
	return nil
}

func (it *dataElementIterator) syntax() transferSyntax {
	return it.transferSyntax
}

func (it *dataElementIterator) length() uint32 {
	return it.itemLength
}

func (it *dataElementIterator) closeCurrent() error {
	if it.currentElement == nil {
		return nil
	}
	defer func() { it.currentElement = nil }()

	switch v := it.currentElement.ValueField.(type) {
	case BulkDataIterator:
		return v.Close()
	case SequenceIterator:
		return v.Close()
	}
	return nil
}

// readDicomSignature consumes the preamble and "DICM" magic. In lenient mode the preamble may be
// missing, and so may the signature.
func readDicomSignature(br *bufio.Reader, lenient bool) (int64, error) {
	header, err := br.Peek(preambleLength + 4)
	if err == nil && string(header[preambleLength:]) == "DICM" {
		n, err := br.Discard(preambleLength + 4)
		return int64(n), err
	}
	if !lenient {
		return 0, ErrMissingSignature
	}

	if magic, _ := br.Peek(4); string(magic) == "DICM" {
		n, err := br.Discard(4)
		return int64(n), err
	}
	return 0, nil
}

// readMetaElements reads elements while they belong to the file meta group. Meta elements are
// Explicit VR Little Endian; in lenient mode an element without a recognizable VR is read as
// Implicit VR Little Endian.
func readMetaElements(br *bufio.Reader, dr *dcmReader, lenient bool) ([]*DataElement, error) {
	meta := make([]*DataElement, 0)
	for {
		head, _ := br.Peek(tagSize + vrSize)
		if len(head) < 2 || binary.LittleEndian.Uint16(head) != metaGroup {
			return meta, nil
		}

		var syntax transferSyntax = explicitVRLittleEndian
		if lenient && (len(head) < tagSize+vrSize || !isKnownVR(head[tagSize:])) {
			syntax = implicitVRLittleEndian
		}

		elem, err := readDataElement(dr, syntax)
		if err != nil {
			return nil, err
		}
		elem, err = bufferValue(elem, binary.LittleEndian)
		if err != nil {
			return nil, err
		}
		meta = append(meta, elem)
	}
}

// sniffTransferSyntax guesses the transfer syntax of a data set without file meta information.
// A recognizable VR after the first tag means Explicit VR Little Endian.
func sniffTransferSyntax(br *bufio.Reader) string {
	head, _ := br.Peek(tagSize + vrSize)
	if len(head) == tagSize+vrSize && isKnownVR(head[tagSize:]) {
		return ExplicitVRLittleEndianUID
	}
	return ImplicitVRLittleEndianUID
}

// bufferValue replaces streamed values with their in-memory representation.
func bufferValue(elem *DataElement, order binary.ByteOrder) (*DataElement, error) {
	switch v := elem.ValueField.(type) {
	case BulkDataIterator:
		return bufferBulkData(elem, order)
	case SequenceIterator:
		seq, err := CollectSequence(v)
		if err != nil {
			return nil, fmt.Errorf("collecting sequence %v: %w", elem.Tag, err)
		}
		return &DataElement{elem.Tag, elem.VR, seq, elem.ValueLength}, nil
	}
	return elem, nil
}
