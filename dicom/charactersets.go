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
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Windows-1252 is a superset of ASCII and of most of ISO-8859-1, so it decodes the default
// repertoire and most mislabelled Latin-1 text.
var defaultCharacterRepertoire encoding.Encoding = charmap.Windows1252

var lookupLabelByTerm = map[string]string{
	"ISO_IR 6":   "us-ascii",
	"ISO_IR 100": "iso-ir-100",
	"ISO_IR 101": "iso-ir-101",
	"ISO_IR 109": "iso-ir-109",
	"ISO_IR 110": "iso-ir-110",
	"ISO_IR 144": "iso-ir-144",
	"ISO_IR 127": "iso-ir-127",
	"ISO_IR 126": "iso-ir-126",
	"ISO_IR 138": "iso-ir-138",
	"ISO_IR 148": "iso-ir-148",
	"ISO_IR 13":  "shift-jis",
	"ISO_IR 166": "tis-620",
	"ISO_IR 192": "utf-8",
	"GB18030":    "gb18030",
	"GBK":        "gbk",

	// code extensions are decoded with the base repertoire of the first term
	"ISO 2022 IR 6":   "us-ascii",
	"ISO 2022 IR 100": "iso-ir-100",
	"ISO 2022 IR 101": "iso-ir-101",
	"ISO 2022 IR 109": "iso-ir-109",
	"ISO 2022 IR 110": "iso-ir-110",
	"ISO 2022 IR 144": "iso-ir-144",
	"ISO 2022 IR 127": "iso-ir-127",
	"ISO 2022 IR 126": "iso-ir-126",
	"ISO 2022 IR 138": "iso-ir-138",
	"ISO 2022 IR 148": "iso-ir-148",
	"ISO 2022 IR 13":  "shift-jis",
	"ISO 2022 IR 166": "tis-620",
	"ISO 2022 IR 87":  "iso-2022-jp",
	"ISO 2022 IR 159": "iso-2022-jp",
	"ISO 2022 IR 149": "iso-ir-149",
}

func lookupEncoding(term string) (encoding.Encoding, error) {
	label, ok := lookupLabelByTerm[term]
	if !ok {
		return nil, fmt.Errorf("specific character set defined term not found: %v", term)
	}

	coding, _ := charset.Lookup(label)
	if coding == nil {
		return nil, fmt.Errorf("missing encoding for label %q", label)
	}
	return coding, nil
}

// decodeText converts raw text encoded with the repertoire named by the Specific Character Set
// terms into UTF-8. An empty set of terms selects the default repertoire.
func decodeText(raw string, terms []string) (string, error) {
	term := ""
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			term = t
			break
		}
	}

	coding := defaultCharacterRepertoire
	if term != "" {
		var err error
		if coding, err = lookupEncoding(term); err != nil {
			return "", err
		}
	} else if isASCII(raw) {
		return raw, nil
	}

	if term == "ISO_IR 192" && utf8.ValidString(raw) {
		return raw, nil
	}

	decoded, err := coding.NewDecoder().String(raw)
	if err != nil {
		return "", fmt.Errorf("decoding text with %q: %w", term, err)
	}
	return decoded, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
