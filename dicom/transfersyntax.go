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
)

// list of transfer syntaxes obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html#chapter_A
const (
	// ImplicitVRLittleEndianUID is the Implicit VR Little Endian UID
	ImplicitVRLittleEndianUID = "1.2.840.10008.1.2"
	// ExplicitVRLittleEndianUID is the Explicit VR Little Endian UID
	ExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1"
	// ExplicitVRBigEndianUID is the Explicit VR Big Endian UID
	ExplicitVRBigEndianUID = "1.2.840.10008.1.2.2"
	// DeflatedExplicitVRLittleEndianUID is the Deflated Explicit VR Little Endian UID
	DeflatedExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1.99"

	JPEGBaselineUID            = "1.2.840.10008.1.2.4.50"
	JPEGExtendedUID            = "1.2.840.10008.1.2.4.51"
	JPEGLosslessUID            = "1.2.840.10008.1.2.4.57"
	JPEGLosslessSV1UID         = "1.2.840.10008.1.2.4.70"
	JPEGLSLosslessUID          = "1.2.840.10008.1.2.4.80"
	JPEGLSNearLosslessUID      = "1.2.840.10008.1.2.4.81"
	JPEG2000LosslessUID        = "1.2.840.10008.1.2.4.90"
	JPEG2000UID                = "1.2.840.10008.1.2.4.91"
	JPEG2000Part2LosslessUID   = "1.2.840.10008.1.2.4.92"
	JPEG2000Part2UID           = "1.2.840.10008.1.2.4.93"
	RLELosslessUID             = "1.2.840.10008.1.2.5"
	MPEG2MainProfileUID        = "1.2.840.10008.1.2.4.100"
	MPEG4AVCH264HighProfileUID = "1.2.840.10008.1.2.4.102"
	HEVCH265MainProfileUID     = "1.2.840.10008.1.2.4.107"
	HTJ2KLosslessUID           = "1.2.840.10008.1.2.4.201"
	HTJ2KLosslessRPCLUID       = "1.2.840.10008.1.2.4.202"
	HTJ2KUID                   = "1.2.840.10008.1.2.4.203"
)

// TransferSyntaxInfo describes a transfer syntax
type TransferSyntaxInfo struct {
	UID          string
	Name         string
	Encapsulated bool
	Lossy        bool
}

var transferSyntaxRegistry = map[string]TransferSyntaxInfo{
	ImplicitVRLittleEndianUID:         {ImplicitVRLittleEndianUID, "Implicit VR Little Endian", false, false},
	ExplicitVRLittleEndianUID:         {ExplicitVRLittleEndianUID, "Explicit VR Little Endian", false, false},
	ExplicitVRBigEndianUID:            {ExplicitVRBigEndianUID, "Explicit VR Big Endian", false, false},
	DeflatedExplicitVRLittleEndianUID: {DeflatedExplicitVRLittleEndianUID, "Deflated Explicit VR Little Endian", false, false},
	JPEGBaselineUID:                   {JPEGBaselineUID, "JPEG Baseline (Process 1)", true, true},
	JPEGExtendedUID:                   {JPEGExtendedUID, "JPEG Extended (Process 2 and 4)", true, true},
	JPEGLosslessUID:                   {JPEGLosslessUID, "JPEG Lossless, Non-Hierarchical (Process 14)", true, false},
	JPEGLosslessSV1UID:                {JPEGLosslessSV1UID, "JPEG Lossless, Non-Hierarchical, First-Order Prediction (Process 14 [Selection Value 1])", true, false},
	JPEGLSLosslessUID:                 {JPEGLSLosslessUID, "JPEG-LS Lossless Image Compression", true, false},
	JPEGLSNearLosslessUID:             {JPEGLSNearLosslessUID, "JPEG-LS Lossy (Near-Lossless) Image Compression", true, true},
	JPEG2000LosslessUID:               {JPEG2000LosslessUID, "JPEG 2000 Image Compression (Lossless Only)", true, false},
	JPEG2000UID:                       {JPEG2000UID, "JPEG 2000 Image Compression", true, true},
	JPEG2000Part2LosslessUID:          {JPEG2000Part2LosslessUID, "JPEG 2000 Part 2 Multi-component Image Compression (Lossless Only)", true, false},
	JPEG2000Part2UID:                  {JPEG2000Part2UID, "JPEG 2000 Part 2 Multi-component Image Compression", true, true},
	RLELosslessUID:                    {RLELosslessUID, "RLE Lossless", true, false},
	MPEG2MainProfileUID:               {MPEG2MainProfileUID, "MPEG2 Main Profile / Main Level", true, true},
	MPEG4AVCH264HighProfileUID:        {MPEG4AVCH264HighProfileUID, "MPEG-4 AVC/H.264 High Profile / Level 4.1", true, true},
	HEVCH265MainProfileUID:            {HEVCH265MainProfileUID, "HEVC/H.265 Main Profile / Level 5.1", true, true},
	HTJ2KLosslessUID:                  {HTJ2KLosslessUID, "High-Throughput JPEG 2000 Image Compression (Lossless Only)", true, false},
	HTJ2KLosslessRPCLUID:              {HTJ2KLosslessRPCLUID, "High-Throughput JPEG 2000 with RPCL Options Image Compression (Lossless Only)", true, false},
	HTJ2KUID:                          {HTJ2KUID, "High-Throughput JPEG 2000 Image Compression", true, true},
}

// LookupTransferSyntax returns the registered information about a transfer syntax UID. Unknown
// UIDs are reported as encapsulated since every transfer syntax defined after the native ones
// encapsulates its pixel data.
func LookupTransferSyntax(uid string) (TransferSyntaxInfo, bool) {
	info, ok := transferSyntaxRegistry[uid]
	if !ok {
		return TransferSyntaxInfo{UID: uid, Name: uid, Encapsulated: true}, false
	}
	return info, true
}

// TransferSyntaxName returns the human readable name of a transfer syntax UID, or the UID itself
// when it is not known.
func TransferSyntaxName(uid string) string {
	info, _ := LookupTransferSyntax(uid)
	return info.Name
}

// IsEncapsulated reports whether pixel data in the given transfer syntax is stored in the
// encapsulated (compressed) format.
func IsEncapsulated(uid string) bool {
	info, _ := LookupTransferSyntax(uid)
	return info.Encapsulated
}

func lookupTransferSyntax(uid string) transferSyntax {
	switch uid {
	case ImplicitVRLittleEndianUID:
		return implicitVRLittleEndian
	case ExplicitVRBigEndianUID:
		return explicitVRBigEndian
	case DeflatedExplicitVRLittleEndianUID:
		return deflatedExplicitVRLittleEndian
	}

	// any other syntax should be explicit VR little endian according to PS3.5 A.4
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
	return explicitVRLittleEndian
}

const (
	vrSize  = 2
	tagSize = 4
)

type transferSyntax interface {
	byteOrder() binary.ByteOrder
	isDeflated() bool
	elementSize(vr *VR, valueFieldLength uint32) uint32
	readVR(dr *dcmReader, tag DataElementTag) (*VR, error)
	readValueLength(dr *dcmReader, vr *VR) (uint32, error)
	writeVR(dw *dcmWriter, vr *VR) error
	writeValueLength(dw *dcmWriter, vr *VR, valueFieldLength uint32) error
}

type implicitSyntax struct{}

func (implicitSyntax) byteOrder() binary.ByteOrder {
	return binary.LittleEndian
}

func (implicitSyntax) isDeflated() bool {
	return false
}

func (implicitSyntax) elementSize(vr *VR, valueFieldLength uint32) uint32 {
	if valueFieldLength == UndefinedLength {
		return UndefinedLength
	}
	return tagSize + 4 /*length*/ + valueFieldLength
}

func (implicitSyntax) readVR(dr *dcmReader, tag DataElementTag) (*VR, error) {
	return tag.DictionaryVR(), nil
}

func (implicitSyntax) readValueLength(dr *dcmReader, vr *VR) (uint32, error) {
	return dr.UInt32(binary.LittleEndian)
}

func (implicitSyntax) writeValueLength(dw *dcmWriter, vr *VR, valueFieldLength uint32) error {
	return dw.UInt32(binary.LittleEndian, valueFieldLength)
}

func (implicitSyntax) writeVR(dw *dcmWriter, vr *VR) error {
	// the implicit syntax does not write VRs into the file
	return nil
}

type explicitSyntax struct {
	order    binary.ByteOrder
	deflated bool
}

func (s explicitSyntax) byteOrder() binary.ByteOrder {
	return s.order
}

func (s explicitSyntax) isDeflated() bool {
	return s.deflated
}

func (s explicitSyntax) elementSize(vr *VR, valueFieldLength uint32) uint32 {
	if valueFieldLength == UndefinedLength {
		return UndefinedLength
	}

	if vr.longLength {
		return tagSize + vrSize + 2 /*reserved*/ + 4 /*32-bit length*/ + valueFieldLength
	}
	return tagSize + vrSize + 2 /*16-bit length*/ + valueFieldLength
}

func (s explicitSyntax) readVR(dr *dcmReader, tag DataElementTag) (*VR, error) {
	vrString, err := dr.String(vrSize)
	if err != nil {
		return nil, fmt.Errorf("reading vr: %w", err)
	}

	return lookupVRByName(vrString)
}

func (s explicitSyntax) readValueLength(dr *dcmReader, vr *VR) (uint32, error) {
	if vr.longLength {
		if _, err := dr.UInt16(s.order); err != nil {
			return 0, fmt.Errorf("reading reserved field: %w", err)
		}

		length, err := dr.UInt32(s.order)
		if err != nil {
			return 0, fmt.Errorf("reading 32 bit length: %w", err)
		}
		return length, nil
	}

	length, err := dr.UInt16(s.order)
	if err != nil {
		return 0, fmt.Errorf("reading 16 bit length: %w", err)
	}
	return uint32(length), nil
}

func (s explicitSyntax) writeValueLength(dw *dcmWriter, vr *VR, valueFieldLength uint32) error {
	if vr.longLength {
		if err := dw.UInt16(s.order, 0); err != nil {
			return fmt.Errorf("writing reserved field: %w", err)
		}
		if err := dw.UInt32(s.order, valueFieldLength); err != nil {
			return fmt.Errorf("writing 32 bit length: %w", err)
		}
		return nil
	}

	if valueFieldLength > math.MaxUint16 {
		return fmt.Errorf("data element value length %d exceeds unsigned 16-bit length", valueFieldLength)
	}
	if err := dw.UInt16(s.order, uint16(valueFieldLength)); err != nil {
		return fmt.Errorf("writing 16 bit length: %w", err)
	}
	return nil
}

func (s explicitSyntax) writeVR(dw *dcmWriter, vr *VR) error {
	return dw.String(vr.Name)
}

var (
	explicitVRLittleEndian         = explicitSyntax{binary.LittleEndian, false}
	deflatedExplicitVRLittleEndian = explicitSyntax{binary.LittleEndian, true}
	implicitVRLittleEndian         = implicitSyntax{}
	explicitVRBigEndian            = explicitSyntax{binary.BigEndian, false}
)
