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
	"errors"
	"io"
	"reflect"
	"testing"
)

func TestWrite_RoundTrip(t *testing.T) {
	for _, uid := range []string{
		ExplicitVRLittleEndianUID,
		ImplicitVRLittleEndianUID,
		ExplicitVRBigEndianUID,
		DeflatedExplicitVRLittleEndianUID,
	} {
		t.Run(TransferSyntaxName(uid), func(t *testing.T) {
			want := sampleDataSet(uid)

			var buf bytes.Buffer
			if err := Write(&buf, want); err != nil {
				t.Fatalf("Write(_, _) => %v", err)
			}

			got, err := Parse(&buf)
			if err != nil {
				t.Fatalf("Parse(_) => %v", err)
			}
			compareDataSets(t, got, want)

			gotUID, err := got.TransferSyntaxUID()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotUID != uid {
				t.Fatalf("got transfer syntax %v, want %v", gotUID, uid)
			}
		})
	}
}

func TestWrite_EncapsulatedPixelData(t *testing.T) {
	want := NewDataSet(map[DataElementTag]interface{}{
		TransferSyntaxUIDTag: []string{JPEGBaselineUID},
		PixelDataTag:         [][]byte{{}, {0xFF, 0xD8, 0xFF, 0xD9}, {0x01, 0x02}},
	})
	want.Set(PixelDataTag, OBVR, want.Elements[PixelDataTag].ValueField)

	var buf bytes.Buffer
	if err := Write(&buf, want); err != nil {
		t.Fatalf("Write(_, _) => %v", err)
	}
	got, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse(_) => %v", err)
	}
	compareDataSets(t, got, want)
}

func TestWrite_MetaHeader(t *testing.T) {
	ds := sampleDataSet(ExplicitVRLittleEndianUID)

	var buf bytes.Buffer
	if err := Write(&buf, ds); err != nil {
		t.Fatalf("Write(_, _) => %v", err)
	}
	encoded := buf.Bytes()

	if got := encoded[preambleLength : preambleLength+4]; string(got) != "DICM" {
		t.Fatalf("got signature %q, want DICM", got)
	}

	got, err := Parse(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("Parse(_) => %v", err)
	}

	expected := map[DataElementTag]interface{}{
		FileMetaInformationVersionTag: []byte{0x00, 0x01},
		MediaStorageSOPClassUIDTag:    []string{"1.2.840.10008.5.1.4.1.1.4"},
		MediaStorageSOPInstanceUIDTag: []string{"1.2.3.4.5.6"},
		TransferSyntaxUIDTag:          []string{ExplicitVRLittleEndianUID},
		ImplementationClassUIDTag:     []string{ImplementationClassUID},
		ImplementationVersionNameTag:  []string{ImplementationVersionName},
	}
	for tag, want := range expected {
		elem, err := got.Find(tag)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(elem.ValueField, want) {
			t.Fatalf("%v: got %v, want %v", tag, elem.ValueField, want)
		}
	}

	// the group length counts every meta element after itself
	groupLength, err := got.Int(FileMetaInformationGroupLengthTag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	metaEnd := preambleLength + 4 + 12 + int(groupLength)
	nextGroup := binary.LittleEndian.Uint16(encoded[metaEnd:])
	if nextGroup == metaGroup {
		t.Fatalf("group length %d ends inside the meta group", groupLength)
	}
	previousGroup := binary.LittleEndian.Uint16(encoded[metaEnd-len(ImplementationVersionName)-8:])
	if previousGroup != metaGroup {
		t.Fatalf("group length %d ends after the meta group", groupLength)
	}

	// Write must not modify its input
	if _, err := ds.Find(ImplementationClassUIDTag); !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("Write modified the data set: %v", err)
	}
}

func TestWrite_KeepsExistingMetaElements(t *testing.T) {
	ds := sampleDataSet(ExplicitVRLittleEndianUID)
	ds.Set(ImplementationClassUIDTag, nil, []string{"1.2.276.0.7230010.3.0.3.5.4"})
	ds.Set(MediaStorageSOPInstanceUIDTag, nil, []string{"9.8.7"})

	header := CompleteMetaHeader(ds)

	for tag, want := range map[DataElementTag][]string{
		ImplementationClassUIDTag:     {"1.2.276.0.7230010.3.0.3.5.4"},
		MediaStorageSOPInstanceUIDTag: {"9.8.7"},
	} {
		elem, err := header.Find(tag)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(elem.ValueField, want) {
			t.Fatalf("%v: got %v, want %v", tag, elem.ValueField, want)
		}
	}
}

func TestWrite_Padding(t *testing.T) {
	testCases := []struct {
		name     string
		tag      DataElementTag
		vr       *VR
		value    interface{}
		expected []byte
	}{
		{"text padded with space", PatientNameTag, PNVR, []string{"Doe"}, explicitLE(PatientNameTag, "PN", []byte("Doe "))},
		{"uid padded with null", SOPInstanceUIDTag, UIVR, []string{"1.2.3"}, explicitLE(SOPInstanceUIDTag, "UI", []byte("1.2.3\x00"))},
		{"bytes padded with null", 0x00091010, OBVR, []byte{1, 2, 3}, explicitLE(0x00091010, "OB", []byte{1, 2, 3, 0})},
		{"multiple values", ImageTypeTag, CSVR, []string{"A", "BC"}, explicitLE(ImageTypeTag, "CS", []byte("A\\BC "))},
		{"long text written as UN", PatientNameTag, PNVR, []string{string(bytes.Repeat([]byte{'a'}, 70000))},
			explicitLE(PatientNameTag, "UN", bytes.Repeat([]byte{'a'}, 70000))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			elem := &DataElement{Tag: tc.tag, VR: tc.vr, ValueField: tc.value}
			if err := writeDataElement(&dcmWriter{&buf}, explicitVRLittleEndian, elem); err != nil {
				t.Fatalf("writeDataElement(_, _, _) => %v", err)
			}
			if !bytes.Equal(buf.Bytes(), tc.expected) {
				t.Fatalf("got %v, want %v", buf.Bytes(), tc.expected)
			}
		})
	}
}

func TestWrite_Errors(t *testing.T) {
	testCases := []struct {
		name string
		ds   *DataSet
	}{
		{"unsupported value type", NewDataSet(map[DataElementTag]interface{}{PatientNameTag: 42})},
		{"tag value without tags", NewDataSet(map[DataElementTag]interface{}{0x00280009: "x"})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Write(io.Discard, tc.ds); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewDataElementWriter_RejectsDataSetElements(t *testing.T) {
	if _, err := NewDataElementWriter(io.Discard, sampleDataSet(ExplicitVRLittleEndianUID)); err != errExpectedMetaHeader {
		t.Fatalf("got %v, want %v", err, errExpectedMetaHeader)
	}
}

func TestDataElementWriter_StreamsIterator(t *testing.T) {
	// copy a file element by element without buffering it in a DataSet
	var src bytes.Buffer
	want := sampleDataSet(ImplicitVRLittleEndianUID)
	if err := Write(&src, want); err != nil {
		t.Fatalf("Write(_, _) => %v", err)
	}

	iter, err := NewDataElementIterator(&src)
	if err != nil {
		t.Fatalf("NewDataElementIterator(_) => %v", err)
	}
	defer iter.Close()

	var dst bytes.Buffer
	var dew DataElementWriter
	header := NewDataSet(nil)
	for elem, err := iter.NextElement(); err != io.EOF; elem, err = iter.NextElement() {
		if err != nil {
			t.Fatalf("NextElement() => %v", err)
		}
		if elem.Tag.IsMetaElement() {
			header.Elements[elem.Tag] = elem
			continue
		}
		if dew == nil {
			if dew, err = NewDataElementWriter(&dst, header); err != nil {
				t.Fatalf("NewDataElementWriter(_, _) => %v", err)
			}
		}
		if err := dew.WriteElement(elem); err != nil {
			t.Fatalf("WriteElement(_) => %v", err)
		}
	}
	if err := dew.Close(); err != nil {
		t.Fatalf("Close() => %v", err)
	}

	got, err := Parse(&dst)
	if err != nil {
		t.Fatalf("Parse(_) => %v", err)
	}
	compareDataSets(t, got, want)
}
