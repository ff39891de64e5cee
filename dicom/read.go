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
	"strings"
	"unicode"
)

func readDataElement(dr *dcmReader, syntax transferSyntax) (*DataElement, error) {
	tag, err := dr.Tag(syntax.byteOrder())
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag: %w", err)
	}

	if tag == ItemDelimitationItemTag {
		// handles the case when we are parsing a nested data set within a sequence with undefined
		// length. This code should never run for the top level data set
		length, err := dr.UInt32(syntax.byteOrder())
		if err != nil {
			return nil, fmt.Errorf("reading 32 bit length of item delimitation: %w", err)
		}
		if length != 0 {
			return nil, fmt.Errorf("wrong length for item delimiter. got %v, want %v", length, 0)
		}
		return nil, io.EOF
	}

	vr, err := syntax.readVR(dr, tag)
	if err != nil {
		return nil, fmt.Errorf("getting vr of %v: %w", tag, err)
	}

	length, err := syntax.readValueLength(dr, vr)
	if err != nil {
		return nil, fmt.Errorf("getting length of %v: %w", tag, err)
	}

	if vr == UNVR && length == UndefinedLength {
		// An UN element of undefined length is a sequence encoded in Implicit VR Little Endian.
		// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2.2
		seq, err := readSequence(dr, length, implicitVRLittleEndian)
		if err != nil {
			return nil, fmt.Errorf("parsing value of %v: %w", tag, err)
		}
		return &DataElement{tag, SQVR, seq, length}, nil
	}

	value, err := readValue(tag, dr, vr, length, syntax)
	if err != nil {
		return nil, fmt.Errorf("parsing value of %v: %w", tag, err)
	}

	return &DataElement{tag, vr, value, length}, nil
}

func readValue(tag DataElementTag, dr *dcmReader, vr *VR, length uint32, syntax transferSyntax) (interface{}, error) {
	switch vr.kind {
	case textVR:
		return readText(dr, length, vr, unicode.IsSpace)
	case numberBinaryVR:
		return readNumberBinary(dr, length, vr, syntax.byteOrder())
	case bulkDataVR:
		if vr.unlimitedText && length != UndefinedLength {
			return readText(dr, length, vr, unicode.IsSpace)
		}
		return readBulkData(dr, tag, length)
	case uniqueIdentifierVR:
		return readText(dr, length, vr, func(r rune) bool {
			return r == 0x00 || r == ' '
		})
	case sequenceVR:
		return readSequence(dr, length, syntax)
	case tagVR:
		return readTag(dr, syntax, length)
	default:
		return nil, fmt.Errorf("unknown vr type found: %v", vr.kind)
	}
}

func readTag(dr *dcmReader, syntax transferSyntax, length uint32) ([]uint32, error) {
	if length == UndefinedLength || length%4 != 0 {
		return nil, fmt.Errorf("invalid length %d for attribute tag value", length)
	}
	buff, err := dr.Bytes(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading attribute tags: %w", err)
	}

	order := syntax.byteOrder()
	ret := make([]uint32, len(buff)/4) // 4 bytes per tag
	for i := range ret {
		group, element := order.Uint16(buff[i*4:]), order.Uint16(buff[i*4+2:])
		ret[i] = uint32(group)<<16 | uint32(element)
	}
	return ret, nil
}

func readText(dr *dcmReader, length uint32, vr *VR, isPadding func(rune) bool) ([]string, error) {
	if length == UndefinedLength {
		return nil, fmt.Errorf("undefined length is not allowed for %v", vr)
	}
	if length == 0 {
		return []string{}, nil
	}

	valueField, err := dr.String(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading text field value: %w", err)
	}

	// UR, UT, ST and LT do not have value multiplicity
	if vr == URVR || vr == UTVR || vr == STVR || vr == LTVR {
		return []string{strings.TrimRightFunc(valueField, isPadding)}, nil
	}

	strs := strings.Split(valueField, "\\")
	for i, s := range strs {
		strs[i] = strings.TrimFunc(s, isPadding)
	}
	return strs, nil
}

func readNumberBinary(dr *dcmReader, length uint32, vr *VR, order binary.ByteOrder) (interface{}, error) {
	if length == UndefinedLength {
		return nil, fmt.Errorf("undefined length is not allowed for %v", vr)
	}

	size := uint32(2)
	switch vr {
	case SLVR, ULVR, FLVR:
		size = 4
	case FDVR:
		size = 8
	case SSVR, USVR:
	default:
		return nil, fmt.Errorf("unknown vr: %v", vr)
	}
	if length%size != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of %d for %v", length, size, vr)
	}

	buff, err := dr.Bytes(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading binary number: %w", err)
	}

	var data interface{}
	count := len(buff) / int(size)
	switch vr {
	case SSVR:
		data = make([]int16, count)
	case USVR:
		data = make([]uint16, count)
	case SLVR:
		data = make([]int32, count)
	case ULVR:
		data = make([]uint32, count)
	case FLVR:
		data = make([]float32, count)
	case FDVR:
		data = make([]float64, count)
	}
	if err := binary.Read(bytes.NewReader(buff), order, data); err != nil {
		return nil, fmt.Errorf("decoding binary number: %w", err)
	}

	return data, nil
}

func readBulkData(dr *dcmReader, tag DataElementTag, length uint32) (BulkDataIterator, error) {
	if length == UndefinedLength {
		// Specified in http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
		// (7FE0,0010) and undefined length means pixel data in encapsulated (compressed) format
		return newEncapsulatedFormatIterator(dr), nil
	}

	// for native (uncompressed) formats, return regular bulk data stream
	return newOneShotIterator(dr.Limit(int64(length)), length), nil
}

func readSequence(dr *dcmReader, length uint32, syntax transferSyntax) (SequenceIterator, error) {
	return newSequenceIterator(dr, length, syntax)
}
