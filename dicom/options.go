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

// Transform is a function that modifies a DataElement during parsing. Returning a nil
// DataElement removes it from the parsed DataSet.
type Transform func(*DataElement) (*DataElement, error)

// ParseOption configures Parse and the streaming iterators.
type ParseOption struct {
	transform Transform
	lenient   bool
}

// WithTransform returns a ParseOption that applies t to every DataElement. Options are applied in
// the order given. Sequence items are transformed before the sequence element that contains them.
func WithTransform(t Transform) ParseOption {
	return ParseOption{transform: t}
}

// Lenient tolerates a missing preamble or signature, implicitly encoded file meta elements and a
// missing Transfer Syntax UID, which is then inferred from the first data set element.
var Lenient = ParseOption{lenient: true}

// DropGroupLengths removes all group length elements (gggg,0000), which are retired outside of
// the file meta group.
var DropGroupLengths = WithTransform(func(element *DataElement) (*DataElement, error) {
	if element.Tag.ElementNumber() == 0 {
		return nil, nil
	}
	return element, nil
})

// DropBasicOffsetTable removes the Basic Offset Table from encapsulated pixel data so that only
// the compressed fragments remain.
var DropBasicOffsetTable = WithTransform(func(element *DataElement) (*DataElement, error) {
	if iter, ok := element.ValueField.(*encapsulatedFormatIterator); ok && element.Tag == PixelDataTag {
		if _, err := iter.Next(); err != nil {
			return nil, fmt.Errorf("discarding offset table: %w", err)
		}
	}
	return element, nil
})

func isLenient(opts []ParseOption) bool {
	for _, opt := range opts {
		if opt.lenient {
			return true
		}
	}
	return false
}
