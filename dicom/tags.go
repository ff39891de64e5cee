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

// Tags used by this package and its callers. The full data dictionary lives in
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html#chapter_6; only the
// attributes needed to read, transcode and preview images are listed here.
const (
	FileMetaInformationGroupLengthTag DataElementTag = 0x00020000
	FileMetaInformationVersionTag     DataElementTag = 0x00020001
	MediaStorageSOPClassUIDTag        DataElementTag = 0x00020002
	MediaStorageSOPInstanceUIDTag     DataElementTag = 0x00020003
	TransferSyntaxUIDTag              DataElementTag = 0x00020010
	ImplementationClassUIDTag         DataElementTag = 0x00020012
	ImplementationVersionNameTag      DataElementTag = 0x00020013
	SourceApplicationEntityTitleTag   DataElementTag = 0x00020016

	SpecificCharacterSetTag        DataElementTag = 0x00080005
	ImageTypeTag                   DataElementTag = 0x00080008
	SOPClassUIDTag                 DataElementTag = 0x00080016
	SOPInstanceUIDTag              DataElementTag = 0x00080018
	StudyDateTag                   DataElementTag = 0x00080020
	StudyTimeTag                   DataElementTag = 0x00080030
	AccessionNumberTag             DataElementTag = 0x00080050
	ModalityTag                    DataElementTag = 0x00080060
	ManufacturerTag                DataElementTag = 0x00080070
	InstitutionNameTag             DataElementTag = 0x00080080
	ReferringPhysicianNameTag      DataElementTag = 0x00080090
	StudyDescriptionTag            DataElementTag = 0x00081030
	SeriesDescriptionTag           DataElementTag = 0x0008103E
	ReferencedStudySequenceTag     DataElementTag = 0x00081110
	ReferencedImageSequenceTag     DataElementTag = 0x00081140
	ReferencedSOPClassUIDTag       DataElementTag = 0x00081150
	ReferencedSOPInstanceUIDTag    DataElementTag = 0x00081155
	DerivationDescriptionTag       DataElementTag = 0x00082111
	SourceImageSequenceTag         DataElementTag = 0x00082112
	PatientNameTag                 DataElementTag = 0x00100010
	PatientIDTag                   DataElementTag = 0x00100020
	PatientBirthDateTag            DataElementTag = 0x00100030
	PatientSexTag                  DataElementTag = 0x00100040
	BodyPartExaminedTag            DataElementTag = 0x00180015
	SliceThicknessTag              DataElementTag = 0x00180050
	StudyInstanceUIDTag            DataElementTag = 0x0020000D
	SeriesInstanceUIDTag           DataElementTag = 0x0020000E
	StudyIDTag                     DataElementTag = 0x00200010
	SeriesNumberTag                DataElementTag = 0x00200011
	InstanceNumberTag              DataElementTag = 0x00200013
	SamplesPerPixelTag             DataElementTag = 0x00280002
	PhotometricInterpretationTag   DataElementTag = 0x00280004
	PlanarConfigurationTag         DataElementTag = 0x00280006
	NumberOfFramesTag              DataElementTag = 0x00280008
	RowsTag                        DataElementTag = 0x00280010
	ColumnsTag                     DataElementTag = 0x00280011
	PixelSpacingTag                DataElementTag = 0x00280030
	BitsAllocatedTag               DataElementTag = 0x00280100
	BitsStoredTag                  DataElementTag = 0x00280101
	HighBitTag                     DataElementTag = 0x00280102
	PixelRepresentationTag         DataElementTag = 0x00280103
	WindowCenterTag                DataElementTag = 0x00281050
	WindowWidthTag                 DataElementTag = 0x00281051
	RescaleInterceptTag            DataElementTag = 0x00281052
	RescaleSlopeTag                DataElementTag = 0x00281053
	LossyImageCompressionTag       DataElementTag = 0x00282110
	LossyImageCompressionRatioTag  DataElementTag = 0x00282112
	LossyImageCompressionMethodTag DataElementTag = 0x00282114
	OverlayDataTag                 DataElementTag = 0x60003000
	FloatPixelDataTag              DataElementTag = 0x7FE00008
	DoubleFloatPixelDataTag        DataElementTag = 0x7FE00009
	PixelDataTag                   DataElementTag = 0x7FE00010

	ItemTag                     DataElementTag = 0xFFFEE000
	ItemDelimitationItemTag     DataElementTag = 0xFFFEE00D
	SequenceDelimitationItemTag DataElementTag = 0xFFFEE0DD
)

var dictionary = map[DataElementTag]*VR{
	FileMetaInformationGroupLengthTag: ULVR,
	FileMetaInformationVersionTag:     OBVR,
	MediaStorageSOPClassUIDTag:        UIVR,
	MediaStorageSOPInstanceUIDTag:     UIVR,
	TransferSyntaxUIDTag:              UIVR,
	ImplementationClassUIDTag:         UIVR,
	ImplementationVersionNameTag:      SHVR,
	SourceApplicationEntityTitleTag:   AEVR,

	SpecificCharacterSetTag:        CSVR,
	ImageTypeTag:                   CSVR,
	SOPClassUIDTag:                 UIVR,
	SOPInstanceUIDTag:              UIVR,
	StudyDateTag:                   DAVR,
	StudyTimeTag:                   TMVR,
	AccessionNumberTag:             SHVR,
	ModalityTag:                    CSVR,
	ManufacturerTag:                LOVR,
	InstitutionNameTag:             LOVR,
	ReferringPhysicianNameTag:      PNVR,
	StudyDescriptionTag:            LOVR,
	SeriesDescriptionTag:           LOVR,
	ReferencedStudySequenceTag:     SQVR,
	ReferencedImageSequenceTag:     SQVR,
	ReferencedSOPClassUIDTag:       UIVR,
	ReferencedSOPInstanceUIDTag:    UIVR,
	DerivationDescriptionTag:       STVR,
	SourceImageSequenceTag:         SQVR,
	PatientNameTag:                 PNVR,
	PatientIDTag:                   LOVR,
	PatientBirthDateTag:            DAVR,
	PatientSexTag:                  CSVR,
	BodyPartExaminedTag:            CSVR,
	SliceThicknessTag:              DSVR,
	StudyInstanceUIDTag:            UIVR,
	SeriesInstanceUIDTag:           UIVR,
	StudyIDTag:                     SHVR,
	SeriesNumberTag:                ISVR,
	InstanceNumberTag:              ISVR,
	SamplesPerPixelTag:             USVR,
	PhotometricInterpretationTag:   CSVR,
	PlanarConfigurationTag:         USVR,
	NumberOfFramesTag:              ISVR,
	RowsTag:                        USVR,
	ColumnsTag:                     USVR,
	PixelSpacingTag:                DSVR,
	BitsAllocatedTag:               USVR,
	BitsStoredTag:                  USVR,
	HighBitTag:                     USVR,
	PixelRepresentationTag:         USVR,
	WindowCenterTag:                DSVR,
	WindowWidthTag:                 DSVR,
	RescaleInterceptTag:            DSVR,
	RescaleSlopeTag:                DSVR,
	LossyImageCompressionTag:       CSVR,
	LossyImageCompressionRatioTag:  DSVR,
	LossyImageCompressionMethodTag: CSVR,
	FloatPixelDataTag:              OFVR,
	DoubleFloatPixelDataTag:        ODVR,
	PixelDataTag:                   OWVR,
}

// DictionaryVR returns the VR of the tag as listed in the data dictionary. Group length elements
// are UL, private creator elements are LO, repeating overlay data is OW and any other unknown tag
// is UN.
func (t DataElementTag) DictionaryVR() *VR {
	if vr, ok := dictionary[t]; ok {
		return vr
	}
	if t.ElementNumber() == 0x0000 {
		return ULVR
	}
	if t.IsPrivate() && t.ElementNumber() >= 0x0010 && t.ElementNumber() <= 0x00FF {
		return LOVR
	}
	if t&0xFF00FFFF == OverlayDataTag {
		return OWVR
	}
	return UNVR
}
