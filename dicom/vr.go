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
	"fmt"
)

// UndefinedLength marks a value field whose end is found by a delimitation item.
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
const UndefinedLength = 0xffffffff

// vrType selects how a value field is decoded.
type vrType int

const (
	textVR vrType = iota
	numberBinaryVR
	bulkDataVR
	uniqueIdentifierVR
	sequenceVR
	tagVR
)

// VR is a DICOM value representation.
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
type VR struct {
	// Name is the 2-character code written in explicit VR transfer syntaxes.
	Name string

	kind vrType
	// pad is appended to odd length values.
	pad byte
	// longLength VRs have a reserved field and a 32-bit value length in explicit VR encodings.
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
	longLength bool
	// unlimitedText VRs are bulk data when their length is undefined and text otherwise.
	unlimitedText bool
}

func (vr *VR) String() string {
	return vr.Name
}

var vrByName = map[string]*VR{}

func register(vr VR) *VR {
	if vr.pad == 0 && vr.kind == textVR {
		vr.pad = ' '
	}
	p := &vr
	vrByName[vr.Name] = p
	return p
}

func lookupVRByName(name string) (*VR, error) {
	if vr, ok := vrByName[name]; ok {
		return vr, nil
	}
	return nil, fmt.Errorf("unknown vr name: %q", name)
}

// isKnownVR reports whether b starts with a 2-character VR code, which tells explicit from
// implicit VR encodings apart.
func isKnownVR(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	_, ok := vrByName[string(b[:2])]
	return ok
}

var (
	AEVR = register(VR{Name: "AE", kind: textVR})
	ASVR = register(VR{Name: "AS", kind: textVR})
	CSVR = register(VR{Name: "CS", kind: textVR})
	DAVR = register(VR{Name: "DA", kind: textVR})
	DSVR = register(VR{Name: "DS", kind: textVR})
	DTVR = register(VR{Name: "DT", kind: textVR})
	ISVR = register(VR{Name: "IS", kind: textVR})
	LOVR = register(VR{Name: "LO", kind: textVR})
	LTVR = register(VR{Name: "LT", kind: textVR})
	PNVR = register(VR{Name: "PN", kind: textVR})
	SHVR = register(VR{Name: "SH", kind: textVR})
	STVR = register(VR{Name: "ST", kind: textVR})
	TMVR = register(VR{Name: "TM", kind: textVR})

	UCVR = register(VR{Name: "UC", kind: bulkDataVR, pad: ' ', longLength: true, unlimitedText: true})
	URVR = register(VR{Name: "UR", kind: bulkDataVR, pad: ' ', longLength: true, unlimitedText: true})
	UTVR = register(VR{Name: "UT", kind: bulkDataVR, pad: ' ', longLength: true, unlimitedText: true})

	UIVR = register(VR{Name: "UI", kind: uniqueIdentifierVR})

	FDVR = register(VR{Name: "FD", kind: numberBinaryVR})
	FLVR = register(VR{Name: "FL", kind: numberBinaryVR})
	SLVR = register(VR{Name: "SL", kind: numberBinaryVR})
	SSVR = register(VR{Name: "SS", kind: numberBinaryVR})
	ULVR = register(VR{Name: "UL", kind: numberBinaryVR})
	USVR = register(VR{Name: "US", kind: numberBinaryVR})

	OBVR = register(VR{Name: "OB", kind: bulkDataVR, longLength: true})
	ODVR = register(VR{Name: "OD", kind: bulkDataVR, longLength: true})
	OFVR = register(VR{Name: "OF", kind: bulkDataVR, longLength: true})
	OLVR = register(VR{Name: "OL", kind: bulkDataVR, longLength: true})
	OWVR = register(VR{Name: "OW", kind: bulkDataVR, longLength: true})
	UNVR = register(VR{Name: "UN", kind: bulkDataVR, longLength: true})

	ATVR = register(VR{Name: "AT", kind: tagVR})

	SQVR = register(VR{Name: "SQ", kind: sequenceVR, longLength: true})
)
