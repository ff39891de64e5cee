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
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

func writeDataElement(dw *dcmWriter, syntax transferSyntax, element *DataElement) error {
	element, err := processedElement(element)
	if err != nil {
		return fmt.Errorf("processing element %v: %w", element.Tag, err)
	}

	vr := element.VR
	if _, implicit := syntax.(implicitSyntax); !implicit && !vr.longLength &&
		element.ValueLength != UndefinedLength && element.ValueLength > math.MaxUint16 {
		// values too long for a 16-bit length field are written as UN
		vr = UNVR
	}

	if err := dw.Tag(syntax.byteOrder(), element.Tag); err != nil {
		return fmt.Errorf("writing tag: %w", err)
	}
	if err := syntax.writeVR(dw, vr); err != nil {
		return fmt.Errorf("writing VR: %w", err)
	}
	if err := syntax.writeValueLength(dw, vr, element.ValueLength); err != nil {
		return fmt.Errorf("writing length of %v: %w", element.Tag, err)
	}
	if err := writeValue(dw, syntax, element); err != nil {
		return fmt.Errorf("writing value of %v: %w", element.Tag, err)
	}

	return nil
}

func processedElement(element *DataElement) (*DataElement, error) {
	vr := element.VR
	if element.VR == nil {
		vr = element.Tag.DictionaryVR()
	}
	element = &DataElement{element.Tag, vr, element.ValueField, element.ValueLength}

	length, err := calculateValueLength(element)
	if err != nil {
		return element, fmt.Errorf("calculating value length: %w", err)
	}
	element.ValueLength = length

	return element, nil
}

// calculateValueLength returns the even length of the encoded value field. Sequences and
// encapsulated pixel data are always encoded with undefined length.
func calculateValueLength(element *DataElement) (uint32, error) {
	numBytes := int64(0)

	switch v := element.ValueField.(type) {
	case []string:
		for _, s := range v {
			numBytes += int64(len(s))
		}
		if len(v) > 0 { // requires "\" delimiter
			numBytes += int64(len(v)) - 1
		}
	case []byte:
		numBytes = int64(len(v))
	case [][]byte, *Sequence:
		return UndefinedLength, nil
	case []int16:
		numBytes = int64(len(v)) * 2
	case []uint16:
		numBytes = int64(len(v)) * 2
	case []int32:
		numBytes = int64(len(v)) * 4
	case []uint32:
		numBytes = int64(len(v)) * 4
	case []float32:
		numBytes = int64(len(v)) * 4
	case []float64:
		numBytes = int64(len(v)) * 8
	case nil:
		numBytes = 0
	default:
		return 0, fmt.Errorf("unexpected ValueField type %T", element.ValueField)
	}

	if numBytes%2 != 0 {
		numBytes++
	}
	if numBytes >= UndefinedLength {
		return 0, fmt.Errorf("value of %d bytes exceeds the maximum value length", numBytes)
	}

	return uint32(numBytes), nil
}

func writeValue(dw *dcmWriter, syntax transferSyntax, element *DataElement) error {
	switch v := element.ValueField.(type) {
	case []string:
		return writeText(dw, element.VR.pad, v)
	case []byte:
		b := v
		if element.VR == OWVR && syntax.byteOrder() == binary.BigEndian {
			b = swapWords(v)
		}
		if err := dw.Bytes(b); err != nil {
			return err
		}
		if len(b)%2 != 0 {
			return dw.Bytes([]byte{0x00})
		}
		return nil
	case [][]byte:
		return writeEncapsulatedFormat(dw, v)
	case *Sequence:
		return writeSequence(dw, syntax, v)
	case []uint32:
		if element.VR.kind == tagVR {
			return writeTags(dw, syntax.byteOrder(), v)
		}
		return binary.Write(dw, syntax.byteOrder(), v)
	case []int16, []uint16, []int32, []float32, []float64:
		return binary.Write(dw, syntax.byteOrder(), v)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}

func writeText(dw *dcmWriter, paddingByte byte, strs []string) error {
	b := strings.Join(strs, "\\")
	if len(b)%2 != 0 {
		b += string(paddingByte)
	}

	return dw.String(b)
}

func writeTags(dw *dcmWriter, order binary.ByteOrder, tags []uint32) error {
	for _, t := range tags {
		if err := dw.Tag(order, DataElementTag(t)); err != nil {
			return err
		}
	}
	return nil
}

// writeEncapsulatedFormat writes fragments as items followed by a sequence delimitation item.
// The first fragment is the Basic Offset Table. Encapsulated data is always little endian.
func writeEncapsulatedFormat(dw *dcmWriter, fragments [][]byte) error {
	order := binary.LittleEndian
	if len(fragments) == 0 {
		// an empty Basic Offset Table item is mandatory
		fragments = [][]byte{{}}
	}

	for _, fragment := range fragments {
		if err := dw.Tag(order, ItemTag); err != nil {
			return fmt.Errorf("writing fragment tag: %w", err)
		}
		length := len(fragment) + len(fragment)%2
		if err := dw.UInt32(order, uint32(length)); err != nil {
			return fmt.Errorf("writing fragment length: %w", err)
		}
		if err := dw.Bytes(fragment); err != nil {
			return fmt.Errorf("writing fragment: %w", err)
		}
		if len(fragment)%2 != 0 {
			if err := dw.Bytes([]byte{0x00}); err != nil {
				return fmt.Errorf("padding fragment: %w", err)
			}
		}
	}

	return dw.Delimiter(order, SequenceDelimitationItemTag)
}

// writeSequence writes every item with undefined length followed by an item delimitation item
// and terminates the sequence with a sequence delimitation item.
func writeSequence(dw *dcmWriter, syntax transferSyntax, seq *Sequence) error {
	order := syntax.byteOrder()
	for _, item := range seq.Items {
		if err := dw.Tag(order, ItemTag); err != nil {
			return fmt.Errorf("writing item tag: %w", err)
		}
		if err := dw.UInt32(order, UndefinedLength); err != nil {
			return fmt.Errorf("writing item length: %w", err)
		}

		if err := writeDataSet(dw, syntax, item); err != nil {
			return fmt.Errorf("writing sequence item: %w", err)
		}

		if err := dw.Delimiter(order, ItemDelimitationItemTag); err != nil {
			return fmt.Errorf("writing item delimitation item: %w", err)
		}
	}
	if err := dw.Delimiter(order, SequenceDelimitationItemTag); err != nil {
		return fmt.Errorf("writing sequence delimitation item: %w", err)
	}
	return nil
}

func writeDataSet(dw *dcmWriter, syntax transferSyntax, ds *DataSet) error {
	for _, element := range ds.SortedElements() {
		if err := writeDataElement(dw, syntax, element); err != nil {
			return fmt.Errorf("writing data element: %w", err)
		}
	}
	return nil
}
