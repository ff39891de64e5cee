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

// BulkDataReader is an io.Reader over the bytes of a single bulk data fragment.
type BulkDataReader struct {
	io.Reader

	// Offset is the number of bytes in the stream preceding the bulk data described by the
	// BulkDataReader
	Offset int64
}

// Close discards the unread bytes of the fragment.
func (r *BulkDataReader) Close() error {
	_, err := io.Copy(io.Discard, r)
	return err
}

// BulkDataIterator iterates over the fragments of a bulk data value. Native values consist of a
// single fragment. Encapsulated pixel data consists of the Basic Offset Table followed by the
// compressed fragments.
type BulkDataIterator interface {
	// Next returns the next BulkDataReader in the iterator and discards all bytes from all previous
	// BulkDataReaders returned from Next. If there are no remaining BulkDataReader in the iterator,
	// the error io.EOF is returned
	Next() (*BulkDataReader, error)

	// Close discards all remaining BulkDataReaders in the iterator. Any previously returned
	// BulkDataReaders from calls to Next are also emptied.
	Close() error
}

type oneShotIterator struct {
	dr     *dcmReader
	length uint32
	empty  bool
}

func newOneShotIterator(dr *dcmReader, length uint32) BulkDataIterator {
	return &oneShotIterator{dr, length, false}
}

func (it *oneShotIterator) Next() (*BulkDataReader, error) {
	if it.empty {
		return nil, io.EOF
	}

	it.empty = true

	return &BulkDataReader{it.dr.cr, it.dr.Position()}, nil
}

func (it *oneShotIterator) Close() error {
	if _, err := io.Copy(io.Discard, it.dr.cr); err != nil {
		return fmt.Errorf("closing bulk data: %w", err)
	}

	it.empty = true

	return nil
}

type encapsulatedFormatIterator struct {
	dr            *dcmReader
	currentReader *BulkDataReader
	empty         bool
}

func newEncapsulatedFormatIterator(dr *dcmReader) BulkDataIterator {
	return &encapsulatedFormatIterator{dr, nil, false}
}

func (it *encapsulatedFormatIterator) Next() (*BulkDataReader, error) {
	if it.empty {
		return nil, io.EOF
	}

	if it.currentReader != nil {
		if err := it.currentReader.Close(); err != nil {
			return nil, err
		}
	}

	tag, err := processItemTag(it.dr, binary.LittleEndian)
	if err == io.EOF {
		return nil, fmt.Errorf("unexpected EOF in encapsulated pixel data")
	}
	if err != nil {
		return nil, fmt.Errorf("reading tag in encapsulated format fragment: %w", err)
	}
	if tag == SequenceDelimitationItemTag {
		return nil, it.terminate()
	}

	length, err := it.dr.UInt32(binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	if length == UndefinedLength {
		return nil, fmt.Errorf("expected fragment to be of explicit length")
	}

	fragment := it.dr.Limit(int64(length))
	it.currentReader = &BulkDataReader{fragment.cr, fragment.Position()}

	return it.currentReader, nil
}

func (it *encapsulatedFormatIterator) Close() error {
	for r, err := it.Next(); err != io.EOF; r, err = it.Next() {
		if err != nil {
			return fmt.Errorf("reading next reader: %w", err)
		}
		if err := r.Close(); err != nil {
			return fmt.Errorf("discarding reader on Close: %w", err)
		}
	}

	return nil
}

func (it *encapsulatedFormatIterator) terminate() error {
	_, err := it.dr.UInt32(binary.LittleEndian)
	if err != nil {
		return fmt.Errorf("reading 32 bit length of sequence delimitation item: %w", err)
	}
	it.empty = true
	it.currentReader = nil
	return io.EOF
}

// CollectFragments reads every fragment of the iterator into memory.
func CollectFragments(iter BulkDataIterator) ([][]byte, error) {
	buff := make([][]byte, 0)
	for r, err := iter.Next(); err != io.EOF; r, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		fragment, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading fragment: %w", err)
		}
		buff = append(buff, fragment)
	}

	return buff, nil
}

// bufferBulkData replaces a BulkDataIterator value with the in-memory representation documented
// on DataElement.ValueField.
func bufferBulkData(element *DataElement, order binary.ByteOrder) (*DataElement, error) {
	iter, ok := element.ValueField.(BulkDataIterator)
	if !ok {
		return nil, fmt.Errorf("wrong type for element.ValueField: got %T, want BulkDataIterator", element.ValueField)
	}

	fragments, err := CollectFragments(iter)
	if err != nil {
		return nil, fmt.Errorf("buffering fragments of %v: %w", element.Tag, err)
	}

	if _, encapsulated := iter.(*encapsulatedFormatIterator); encapsulated {
		return &DataElement{element.Tag, element.VR, fragments, element.ValueLength}, nil
	}

	var buff []byte
	if len(fragments) == 1 {
		buff = fragments[0]
	}
	if oneShot, ok := iter.(*oneShotIterator); ok && uint32(len(buff)) != oneShot.length {
		return nil, fmt.Errorf("reading %v: got %d of %d bytes: %w", element.Tag, len(buff), oneShot.length, io.ErrUnexpectedEOF)
	}
	valueField, err := decodeBulkData(buff, order, element.VR)
	if err != nil {
		return nil, fmt.Errorf("decoding %v: %w", element.Tag, err)
	}

	return &DataElement{element.Tag, element.VR, valueField, element.ValueLength}, nil
}

func decodeBulkData(buff []byte, order binary.ByteOrder, vr *VR) (interface{}, error) {
	var valueField interface{}
	switch vr {
	case OBVR, UNVR:
		return buff, nil
	case OWVR:
		if order == binary.BigEndian {
			return swapWords(buff), nil
		}
		return buff, nil
	case UCVR, URVR, UTVR:
		return readText(newDcmReader(bytes.NewReader(buff)), uint32(len(buff)), vr, isSpacePadding)
	case OLVR:
		valueField = make([]uint32, len(buff)/4)
	case ODVR:
		valueField = make([]float64, len(buff)/8)
	case OFVR:
		valueField = make([]float32, len(buff)/4)
	default:
		return nil, fmt.Errorf("unexpected vr found for bulk data: %v", vr)
	}

	if err := binary.Read(bytes.NewReader(buff), order, valueField); err != nil {
		return nil, fmt.Errorf("reading to buffer: %w", err)
	}

	return valueField, nil
}

func isSpacePadding(r rune) bool {
	return r == ' '
}

// swapWords returns a copy of b with the bytes of every 16-bit word swapped.
func swapWords(b []byte) []byte {
	ret := make([]byte, len(b))
	copy(ret, b)
	for i := 0; i+1 < len(ret); i += 2 {
		ret[i], ret[i+1] = ret[i+1], ret[i]
	}
	return ret
}
