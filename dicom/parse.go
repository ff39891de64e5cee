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
	"io"
)

// ErrNoDataElements is returned by Parse for input without any data element.
var ErrNoDataElements = errors.New("no data elements")

// Parse reads a DICOM file from r into memory. Bulk data is buffered as documented on
// DataElement.ValueField and OW values are converted to little endian. In Lenient mode a
// Transfer Syntax UID inferred from the data set is added to the returned DataSet.
func Parse(r io.Reader, opts ...ParseOption) (*DataSet, error) {
	iter, err := newFileIterator(r, isLenient(opts))
	if err != nil {
		return nil, fmt.Errorf("creating new data element iterator: %w", err)
	}
	defer iter.Close()

	ds, err := CollectDataElements(iter, opts...)
	if err != nil {
		return nil, err
	}
	if len(ds.Elements) == 0 {
		return nil, ErrNoDataElements
	}
	if iter.sniffed {
		ds.Set(TransferSyntaxUIDTag, UIVR, []string{iter.syntaxUID})
	}
	return ds, nil
}

// CollectDataElements reads the remaining DataElements of iter into a DataSet, applying opts to
// every element.
func CollectDataElements(iter DataElementIterator, opts ...ParseOption) (*DataSet, error) {
	ds := &DataSet{map[DataElementTag]*DataElement{}, iter.length()}

	for elem, err := iter.NextElement(); err != io.EOF; elem, err = iter.NextElement() {
		if err != nil {
			return nil, err
		}
		processedElement, err := processElement(elem, iter.syntax(), opts...)
		if err != nil {
			return nil, err
		}
		if processedElement != nil { // nil check to test if ParseOption wants to filter out element
			ds.Elements[elem.Tag] = processedElement
		}
	}
	return ds, nil
}

// CollectSequence reads the remaining items of iter into a Sequence.
func CollectSequence(iter SequenceIterator, opts ...ParseOption) (*Sequence, error) {
	var seq = &Sequence{[]*DataSet{}}
	for item, err := iter.Next(); err != io.EOF; item, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		dataSet, err := CollectDataElements(item, opts...)
		if err != nil {
			return nil, err
		}
		seq.append(dataSet)
	}
	return seq, nil
}

func processElement(element *DataElement, syntax transferSyntax, opts ...ParseOption) (*DataElement, error) {
	if seqIter, ok := element.ValueField.(SequenceIterator); ok {
		// sequence items are processed before the sequence element so that options transforming
		// SQ DataElements always see collected items
		seq, err := CollectSequence(seqIter, opts...)
		if err != nil {
			return nil, fmt.Errorf("collecting sequence %v: %w", element.Tag, err)
		}

		processedSeq := &DataElement{element.Tag, element.VR, seq, element.ValueLength}
		return processElement(processedSeq, syntax, opts...)
	}

	return applyOptions(element, syntax, opts...)
}

func applyOptions(element *DataElement, syntax transferSyntax, opts ...ParseOption) (*DataElement, error) {
	var err error
	for i, opt := range opts {
		if opt.transform == nil {
			continue
		}
		element, err = opt.transform(element)
		if err != nil {
			return nil, fmt.Errorf("applying option %v: %w", i, err)
		}
		if element == nil { // option wants to filter this element out
			return nil, nil
		}
	}

	if _, ok := element.ValueField.(BulkDataIterator); ok {
		// options that leave the iterator untouched would otherwise produce a DataSet full of
		// drained iterators
		element, err = bufferBulkData(element, syntax.byteOrder())
	}

	return element, err
}
