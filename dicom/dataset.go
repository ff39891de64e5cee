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
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrElementNotFound is returned when a DataSet does not contain a requested DataElement.
var ErrElementNotFound = errors.New("data element not found")

// DataElementTag is a unique identifier for a Data Element composed of an unordered pair
// of numbers called the group number and the element number as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10.
//
// The least significant 16 bits is the element number. The most significant 16 bits is the group
// number.
type DataElementTag uint32

// GroupNumber returns the group number component of the DataElementTag
func (t DataElementTag) GroupNumber() uint16 {
	return uint16(t >> 16)
}

// ElementNumber returns the element number component of the DataElementTag
func (t DataElementTag) ElementNumber() uint16 {
	return uint16(t & 0xFFFF)
}

// IsMetaElement is true if and only if the Data Element is a File Meta Information element
func (t DataElementTag) IsMetaElement() bool {
	return t.GroupNumber() == 0x0002
}

// IsPrivate is true if the tag belongs to an odd (private) group
func (t DataElementTag) IsPrivate() bool {
	return t.GroupNumber()%2 == 1
}

func (t DataElementTag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.GroupNumber(), t.ElementNumber())
}

// DataElement models a DICOM Data Element as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
type DataElement struct {
	Tag DataElementTag

	// Value Representation
	VR *VR

	// ValueField represents the field within a Data Element that contains its value(s).
	// After Parse it is one of the following types:
	// []string for text, UI, UC, UR and UT VRs
	// []byte for OB, OW and UN. OW words are always held in little endian byte order.
	// [][]byte for encapsulated pixel data. The first fragment is the Basic Offset Table.
	// []int16, []uint16, []int32, []uint32, []float32, []float64 for binary numbers and OL, OF, OD
	// []uint32 for AT
	// *Sequence for SQ
	//
	// The DataElementIterator additionally produces BulkDataIterator and SequenceIterator values.
	ValueField interface{}

	// ValueLength is equal to the length of the ValueField in bytes.
	// Can be equal to 0xFFFFFFFF to represent an undefined length:
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
	ValueLength uint32
}

// StringValue returns the first value of a textual DataElement
func (e *DataElement) StringValue() (string, error) {
	strs, err := e.StringValues()
	if err != nil {
		return "", err
	}
	if len(strs) == 0 {
		return "", fmt.Errorf("%v has no values", e.Tag)
	}
	return strs[0], nil
}

// StringValues returns all values of a textual DataElement
func (e *DataElement) StringValues() ([]string, error) {
	strs, ok := e.ValueField.([]string)
	if !ok {
		return nil, fmt.Errorf("%v: expected []string value, got %T", e.Tag, e.ValueField)
	}
	return strs, nil
}

// IntValue returns the first value of a numeric DataElement as an int64. Integer strings (IS) are
// converted.
func (e *DataElement) IntValue() (int64, error) {
	switch v := e.ValueField.(type) {
	case []uint16:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []int16:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []uint32:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []int32:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []string:
		if len(v) > 0 {
			i, err := strconv.ParseInt(strings.TrimSpace(v[0]), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("%v: parsing integer string: %w", e.Tag, err)
			}
			return i, nil
		}
	default:
		return 0, fmt.Errorf("%v: value of type %T is not numeric", e.Tag, e.ValueField)
	}
	return 0, fmt.Errorf("%v has no values", e.Tag)
}

// FloatValues returns the values of a decimal string (DS) or floating point DataElement
func (e *DataElement) FloatValues() ([]float64, error) {
	switch v := e.ValueField.(type) {
	case []float64:
		return v, nil
	case []float32:
		ret := make([]float64, len(v))
		for i, f := range v {
			ret[i] = float64(f)
		}
		return ret, nil
	case []string:
		ret := make([]float64, 0, len(v))
		for _, s := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("%v: parsing decimal string: %w", e.Tag, err)
			}
			ret = append(ret, f)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("%v: value of type %T is not a float", e.Tag, e.ValueField)
}

func (e *DataElement) String() string {
	return e.string(0)
}

func (e *DataElement) string(indentLvl int) string {
	indent := strings.Repeat("  ", indentLvl)
	vr := "??"
	if e.VR != nil {
		vr = e.VR.Name
	}
	switch v := e.ValueField.(type) {
	case *Sequence:
		return fmt.Sprintf("%s%v %s #%d%s", indent, e.Tag, vr, e.ValueLength, v.string(indentLvl))
	case []byte:
		return fmt.Sprintf("%s%v %s #%d [%d bytes]", indent, e.Tag, vr, e.ValueLength, len(v))
	case [][]byte:
		return fmt.Sprintf("%s%v %s #%d [%d fragments]", indent, e.Tag, vr, e.ValueLength, len(v))
	}
	return fmt.Sprintf("%s%v %s #%d %v", indent, e.Tag, vr, e.ValueLength, e.ValueField)
}

// DataSet models a DICOM Data Set as defined
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
type DataSet struct {
	// Elements is a map of DataElement tags to *DataElement
	Elements map[DataElementTag]*DataElement

	// Length is the length of the data set in bytes when it is a sequence item. It is
	// UndefinedLength for items delimited by an Item Delimitation Item and for top level data sets.
	Length uint32
}

// NewDataSet creates a DataSet from a map of tags to value fields. VRs are taken from the data
// dictionary and value lengths are calculated.
func NewDataSet(elements map[DataElementTag]interface{}) *DataSet {
	ds := &DataSet{Elements: map[DataElementTag]*DataElement{}, Length: UndefinedLength}
	for tag, value := range elements {
		ds.Set(tag, nil, value)
	}
	return ds
}

// Set adds or replaces the DataElement for tag. A nil vr is looked up in the data dictionary.
// The value length is calculated from value.
func (ds *DataSet) Set(tag DataElementTag, vr *VR, value interface{}) {
	if vr == nil {
		vr = tag.DictionaryVR()
	}
	elem := &DataElement{Tag: tag, VR: vr, ValueField: value}
	if length, err := calculateValueLength(elem); err == nil {
		elem.ValueLength = length
	}
	ds.Elements[tag] = elem
}

// Find returns the DataElement with the given tag. The returned error wraps ErrElementNotFound
// when the DataSet does not contain the tag.
func (ds *DataSet) Find(tag DataElementTag) (*DataElement, error) {
	elem, ok := ds.Elements[tag]
	if !ok {
		return nil, fmt.Errorf("%v: %w", tag, ErrElementNotFound)
	}
	return elem, nil
}

// Int returns the first value of the numeric DataElement with the given tag
func (ds *DataSet) Int(tag DataElementTag) (int64, error) {
	elem, err := ds.Find(tag)
	if err != nil {
		return 0, err
	}
	return elem.IntValue()
}

// Text returns the values of a textual DataElement joined by a backslash and decoded with the
// data set's Specific Character Set (0008,0005).
func (ds *DataSet) Text(tag DataElementTag) (string, error) {
	elem, err := ds.Find(tag)
	if err != nil {
		return "", err
	}
	strs, err := elem.StringValues()
	if err != nil {
		return "", err
	}
	raw := strings.Join(strs, "\\")

	var terms []string
	if cs, ok := ds.Elements[SpecificCharacterSetTag]; ok {
		terms, _ = cs.StringValues()
	}
	return decodeText(raw, terms)
}

// TransferSyntaxUID returns the value of the Transfer Syntax UID (0002,0010) meta element
func (ds *DataSet) TransferSyntaxUID() (string, error) {
	elem, err := ds.Find(TransferSyntaxUIDTag)
	if err != nil {
		return "", err
	}
	return elem.StringValue()
}

// SortedTags returns the tags of the DataSet in ascending order
func (ds *DataSet) SortedTags() []DataElementTag {
	tags := make([]DataElementTag, 0, len(ds.Elements))
	for tag := range ds.Elements {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// SortedElements returns the DataElements of the DataSet in ascending tag order
func (ds *DataSet) SortedElements() []*DataElement {
	ret := make([]*DataElement, 0, len(ds.Elements))
	for _, tag := range ds.SortedTags() {
		ret = append(ret, ds.Elements[tag])
	}
	return ret
}

// MetaElements returns a new DataSet containing only the File Meta Information elements
func (ds *DataSet) MetaElements() *DataSet {
	ret := &DataSet{Elements: map[DataElementTag]*DataElement{}, Length: ds.Length}
	for tag, elem := range ds.Elements {
		if tag.IsMetaElement() {
			ret.Elements[tag] = elem
		}
	}
	return ret
}

// Clone returns a copy of the DataSet that can be modified without affecting the original.
// Value fields are shared except for sequences, which are copied recursively.
func (ds *DataSet) Clone() *DataSet {
	ret := &DataSet{Elements: make(map[DataElementTag]*DataElement, len(ds.Elements)), Length: ds.Length}
	for tag, elem := range ds.Elements {
		cp := *elem
		if seq, ok := elem.ValueField.(*Sequence); ok {
			cp.ValueField = seq.clone()
		}
		ret.Elements[tag] = &cp
	}
	return ret
}

func (ds *DataSet) isMetaHeader() bool {
	for tag := range ds.Elements {
		if !tag.IsMetaElement() {
			return false
		}
	}
	return true
}

func (ds *DataSet) String() string {
	return ds.string(0)
}

func (ds *DataSet) string(indentLvl int) string {
	lines := make([]string, 0, len(ds.Elements))
	for _, elem := range ds.SortedElements() {
		lines = append(lines, elem.string(indentLvl))
	}
	return strings.Join(lines, "\n")
}
