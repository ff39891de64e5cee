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
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// DataElementWriter writes DataElements to a DICOM file one at a time.
type DataElementWriter interface {
	// WriteElement writes element in the transfer syntax of the header. Elements must be written
	// in ascending tag order. Iterator values are buffered before writing.
	WriteElement(element *DataElement) error

	// Close flushes any buffered output. It does not close the underlying writer.
	Close() error
}

var errExpectedMetaHeader = errors.New("expected header to only contain file meta elements, " +
	"use DataSet.MetaElements to filter DataSet")

// NewDataElementWriter writes the preamble, signature and file meta elements in header to w and
// returns a DataElementWriter for the data set. The File Meta Information Group Length is
// recalculated.
func NewDataElementWriter(w io.Writer, header *DataSet) (DataElementWriter, error) {
	if !header.isMetaHeader() {
		return nil, errExpectedMetaHeader
	}

	uid, err := header.TransferSyntaxUID()
	if err != nil {
		return nil, fmt.Errorf("getting transfer syntax from header: %w", err)
	}
	syntax := lookupTransferSyntax(uid)

	dw := &dcmWriter{w}
	if err := writeDicomSignature(dw); err != nil {
		return nil, err
	}

	elements := make(map[DataElementTag]*DataElement, len(header.Elements)+1)
	for tag, element := range header.Elements {
		processed, err := processedElement(element)
		if err != nil {
			return nil, fmt.Errorf("processing meta element %v: %w", tag, err)
		}
		elements[tag] = processed
	}
	meta := &DataSet{Elements: elements, Length: UndefinedLength}
	meta.Elements[FileMetaInformationGroupLengthTag] = createMetaGroupLengthElement(meta)

	// Meta elements are always written in the Explicit VR Little Endian syntax in ascending order.
	for _, element := range meta.SortedElements() {
		if err := writeDataElement(dw, explicitVRLittleEndian, element); err != nil {
			return nil, fmt.Errorf("writing meta element: %w", err)
		}
	}

	dew := &dataElementWriter{dw: dw, syntax: syntax}
	if syntax.isDeflated() {
		fw, err := flate.NewWriter(w, flate.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("creating deflate writer: %w", err)
		}
		dew.dw = &dcmWriter{fw}
		dew.deflater = fw
	}
	return dew, nil
}

type dataElementWriter struct {
	dw       *dcmWriter
	syntax   transferSyntax
	deflater *flate.Writer
}

func (dew *dataElementWriter) WriteElement(element *DataElement) error {
	element, err := bufferValue(element, dew.syntax.byteOrder())
	if err != nil {
		return err
	}
	return writeDataElement(dew.dw, dew.syntax, element)
}

func (dew *dataElementWriter) Close() error {
	if dew.deflater != nil {
		return dew.deflater.Close()
	}
	return nil
}

// Write encodes ds as a DICOM Part 10 file in the transfer syntax named by its Transfer Syntax
// UID. Missing file meta elements are completed as described in CompleteMetaHeader; ds itself is
// not modified.
func Write(w io.Writer, ds *DataSet) error {
	header := CompleteMetaHeader(ds)

	dew, err := NewDataElementWriter(w, header)
	if err != nil {
		return err
	}
	for _, element := range ds.SortedElements() {
		if element.Tag.IsMetaElement() {
			continue
		}
		if err := dew.WriteElement(element); err != nil {
			return fmt.Errorf("writing data element: %w", err)
		}
	}
	return dew.Close()
}

func writeDicomSignature(dw *dcmWriter) error {
	if err := dw.Bytes(make([]byte, preambleLength)); err != nil {
		return fmt.Errorf("writing DICOM preamble: %w", err)
	}

	if err := dw.String("DICM"); err != nil {
		return fmt.Errorf("writing DICOM signature: %w", err)
	}

	return nil
}

// createMetaGroupLengthElement computes the byte count of the meta elements following the File
// Meta Information Group Length.
// http://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
func createMetaGroupLengthElement(header *DataSet) *DataElement {
	size := uint32(0)
	for _, element := range header.Elements {
		if element.Tag == FileMetaInformationGroupLengthTag {
			continue
		}
		size += explicitVRLittleEndian.elementSize(element.VR, element.ValueLength)
	}

	return &DataElement{
		Tag:         FileMetaInformationGroupLengthTag,
		VR:          ULVR,
		ValueField:  []uint32{size},
		ValueLength: 4,
	}
}
