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
	"testing"
)

func TestLookupTransferSyntax(t *testing.T) {
	testCases := []struct {
		uid      string
		expected transferSyntax
	}{
		{ImplicitVRLittleEndianUID, implicitVRLittleEndian},
		{ExplicitVRLittleEndianUID, explicitVRLittleEndian},
		{ExplicitVRBigEndianUID, explicitVRBigEndian},
		{DeflatedExplicitVRLittleEndianUID, deflatedExplicitVRLittleEndian},
		{JPEG2000UID, explicitVRLittleEndian},
		{"1.2.3.4", explicitVRLittleEndian},
	}

	for _, tc := range testCases {
		t.Run(tc.uid, func(t *testing.T) {
			if got := lookupTransferSyntax(tc.uid); got != tc.expected {
				t.Fatalf("lookupTransferSyntax(%v) => %v, want %v", tc.uid, got, tc.expected)
			}
		})
	}
}

func TestTransferSyntaxName(t *testing.T) {
	testCases := []struct {
		uid          string
		name         string
		encapsulated bool
	}{
		{ExplicitVRLittleEndianUID, "Explicit VR Little Endian", false},
		{ImplicitVRLittleEndianUID, "Implicit VR Little Endian", false},
		{DeflatedExplicitVRLittleEndianUID, "Deflated Explicit VR Little Endian", false},
		{JPEGBaselineUID, "JPEG Baseline (Process 1)", true},
		{RLELosslessUID, "RLE Lossless", true},
		{JPEG2000LosslessUID, "JPEG 2000 Image Compression (Lossless Only)", true},
		{"1.2.3.4", "1.2.3.4", true},
	}

	for _, tc := range testCases {
		t.Run(tc.uid, func(t *testing.T) {
			if got := TransferSyntaxName(tc.uid); got != tc.name {
				t.Fatalf("TransferSyntaxName(%v) => %q, want %q", tc.uid, got, tc.name)
			}
			if got := IsEncapsulated(tc.uid); got != tc.encapsulated {
				t.Fatalf("IsEncapsulated(%v) => %v, want %v", tc.uid, got, tc.encapsulated)
			}
		})
	}
}

func TestElementSize(t *testing.T) {
	testCases := []struct {
		name     string
		syntax   transferSyntax
		vr       *VR
		length   uint32
		expected uint32
	}{
		{"explicit 16 bit length", explicitVRLittleEndian, UIVR, 20, 28},
		{"explicit 32 bit length", explicitVRLittleEndian, OBVR, 2, 14},
		{"implicit", implicitVRLittleEndian, OBVR, 2, 10},
		{"undefined", explicitVRLittleEndian, SQVR, UndefinedLength, UndefinedLength},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.syntax.elementSize(tc.vr, tc.length); got != tc.expected {
				t.Fatalf("elementSize(%v, %v) => %v, want %v", tc.vr, tc.length, got, tc.expected)
			}
		})
	}
}

func TestByteOrder(t *testing.T) {
	if explicitVRBigEndian.byteOrder() != binary.BigEndian {
		t.Fatal("expected big endian byte order")
	}
	if !deflatedExplicitVRLittleEndian.isDeflated() || explicitVRLittleEndian.isDeflated() {
		t.Fatal("unexpected deflate flag")
	}
}
