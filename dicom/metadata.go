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

const (
	// ImplementationClassUID identifies this implementation in the file meta information it writes
	ImplementationClassUID = "2.25.302838914532784391742347318946729011713"

	// ImplementationVersionName accompanies ImplementationClassUID
	ImplementationVersionName = "DCMPRESS_1"
)

// CompleteMetaHeader returns the file meta elements of ds, adding the elements required by
// PS3.10 that are missing:
//   - File Meta Information Version (00 01)
//   - Media Storage SOP Class and Instance UID, copied from SOP Class and Instance UID
//   - Transfer Syntax UID, Explicit VR Little Endian
//   - Implementation Class UID and Version Name
//
// Existing elements are kept. ds is not modified.
func CompleteMetaHeader(ds *DataSet) *DataSet {
	header := ds.MetaElements()

	setIfMissing := func(tag DataElementTag, vr *VR, value interface{}) {
		if _, ok := header.Elements[tag]; !ok {
			header.Set(tag, vr, value)
		}
	}
	copyIfMissing := func(dst, src DataElementTag) {
		if elem, ok := ds.Elements[src]; ok {
			if strs, err := elem.StringValues(); err == nil {
				setIfMissing(dst, UIVR, append([]string(nil), strs...))
			}
		}
	}

	setIfMissing(FileMetaInformationVersionTag, OBVR, []byte{0x00, 0x01})
	copyIfMissing(MediaStorageSOPClassUIDTag, SOPClassUIDTag)
	copyIfMissing(MediaStorageSOPInstanceUIDTag, SOPInstanceUIDTag)
	setIfMissing(TransferSyntaxUIDTag, UIVR, []string{ExplicitVRLittleEndianUID})
	setIfMissing(ImplementationClassUIDTag, UIVR, []string{ImplementationClassUID})
	setIfMissing(ImplementationVersionNameTag, SHVR, []string{ImplementationVersionName})

	return header
}
