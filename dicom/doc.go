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

// Package dicom reads and writes the DICOM Part 10 file format as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part10.html.
//
// The package provides a high level and a low level API. The high level API consists of Parse,
// which buffers every DataElement of a file into a DataSet, and Write, which serializes a DataSet
// back into a Part 10 file. The low level API consists of streaming interfaces like the
// DataElementIterator and the DataElementWriter which operate on DataElements one at a time.
//
// Parse is strict by default: the 128 byte preamble, the "DICM" signature and a Transfer Syntax
// UID in the File Meta Information are required. The Lenient option relaxes these requirements so
// that bare data sets and files with an incomplete meta header can still be read.
package dicom
