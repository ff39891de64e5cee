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
	"reflect"
	"testing"
)

func dcmReaderFromBytes(data []byte) *dcmReader {
	return newDcmReader(bytes.NewBuffer(data))
}

// explicitLE encodes a data element in Explicit VR Little Endian.
func explicitLE(tag DataElementTag, vr string, value []byte) []byte {
	b := binary.LittleEndian.AppendUint16(nil, tag.GroupNumber())
	b = binary.LittleEndian.AppendUint16(b, tag.ElementNumber())
	b = append(b, vr...)
	switch vr {
	case "OB", "OD", "OF", "OL", "OW", "SQ", "UC", "UR", "UT", "UN":
		b = append(b, 0, 0)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(value)))
	default:
		b = binary.LittleEndian.AppendUint16(b, uint16(len(value)))
	}
	return append(b, value...)
}

// explicitLEUndefined encodes the header of an Explicit VR Little Endian element of undefined
// length.
func explicitLEUndefined(tag DataElementTag, vr string) []byte {
	b := binary.LittleEndian.AppendUint16(nil, tag.GroupNumber())
	b = binary.LittleEndian.AppendUint16(b, tag.ElementNumber())
	b = append(b, vr...)
	b = append(b, 0, 0)
	return binary.LittleEndian.AppendUint32(b, UndefinedLength)
}

// implicitLE encodes a data element in Implicit VR Little Endian.
func implicitLE(tag DataElementTag, value []byte) []byte {
	b := binary.LittleEndian.AppendUint16(nil, tag.GroupNumber())
	b = binary.LittleEndian.AppendUint16(b, tag.ElementNumber())
	b = binary.LittleEndian.AppendUint32(b, uint32(len(value)))
	return append(b, value...)
}

// item encodes a sequence item or fragment. UndefinedLength writes only the item header.
func item(length uint32, value ...[]byte) []byte {
	b := []byte{0xFE, 0xFF, 0x00, 0xE0}
	b = binary.LittleEndian.AppendUint32(b, length)
	for _, v := range value {
		b = append(b, v...)
	}
	return b
}

var (
	itemDelimiter     = []byte{0xFE, 0xFF, 0x0D, 0xE0, 0, 0, 0, 0}
	sequenceDelimiter = []byte{0xFE, 0xFF, 0xDD, 0xE0, 0, 0, 0, 0}
)

func uidBytes(s string) []byte {
	if len(s)%2 != 0 {
		s += "\x00"
	}
	return []byte(s)
}

func textBytes(s string) []byte {
	if len(s)%2 != 0 {
		s += " "
	}
	return []byte(s)
}

// part10 returns a file with preamble, signature, a Transfer Syntax UID meta element and body.
func part10(syntaxUID string, body ...[]byte) []byte {
	b := append(make([]byte, preambleLength), "DICM"...)
	b = append(b, explicitLE(TransferSyntaxUIDTag, "UI", uidBytes(syntaxUID))...)
	for _, elem := range body {
		b = append(b, elem...)
	}
	return b
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// compareDataSets fails if the non meta elements of got and want differ.
func compareDataSets(t *testing.T, got *DataSet, want *DataSet) {
	t.Helper()
	gotTags, wantTags := nonMetaTags(got), nonMetaTags(want)
	if !reflect.DeepEqual(gotTags, wantTags) {
		t.Fatalf("expected datasets to have same keys: got %v, want %v", gotTags, wantTags)
	}
	for _, tag := range wantTags {
		if !reflect.DeepEqual(got.Elements[tag], want.Elements[tag]) {
			t.Fatalf("element %v: got %v, want %v", tag, got.Elements[tag], want.Elements[tag])
		}
	}
}

func nonMetaTags(ds *DataSet) []DataElementTag {
	tags := make([]DataElementTag, 0)
	for _, tag := range ds.SortedTags() {
		if !tag.IsMetaElement() {
			tags = append(tags, tag)
		}
	}
	return tags
}

func sampleDataSet(syntaxUID string) *DataSet {
	nested := NewDataSet(map[DataElementTag]interface{}{
		ReferencedSOPClassUIDTag:    []string{"1.2.840.10008.5.1.4.1.1.4"},
		ReferencedSOPInstanceUIDTag: []string{"1.2.3.4.5"},
	})
	return NewDataSet(map[DataElementTag]interface{}{
		TransferSyntaxUIDTag:         []string{syntaxUID},
		SOPClassUIDTag:               []string{"1.2.840.10008.5.1.4.1.1.4"},
		SOPInstanceUIDTag:            []string{"1.2.3.4.5.6"},
		PatientNameTag:               []string{"Doe^John"},
		ImageTypeTag:                 []string{"ORIGINAL", "PRIMARY"},
		ReferencedImageSequenceTag:   &Sequence{Items: []*DataSet{nested}},
		RowsTag:                      []uint16{2},
		ColumnsTag:                   []uint16{2},
		BitsAllocatedTag:             []uint16{16},
		PhotometricInterpretationTag: []string{"MONOCHROME2"},
		PixelDataTag:                 []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x01},
	})
}
