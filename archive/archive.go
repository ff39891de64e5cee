// Package archive builds the ZIP archive holding the decompressed files of a batch.
package archive

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

const (
	// FileName is the name the archive is downloaded as.
	FileName = "decompressed_dicoms.zip"
	// ContentType is the media type of the archive.
	ContentType = "application/zip"
)

// Writer accumulates Deflate compressed entries in memory. Entries keep the order in which they
// were added. Duplicate names are kept as separate entries.
type Writer struct {
	buf   bytes.Buffer
	zw    *zip.Writer
	names []string
	done  bool
}

// NewWriter returns an empty archive Writer.
func NewWriter() *Writer {
	w := &Writer{}
	w.zw = zip.NewWriter(&w.buf)
	return w
}

// Add stores data under the base name of name. Directory components, whether separated by
// slashes or backslashes, are removed.
func (w *Writer) Add(name string, data []byte) error {
	if w.done {
		return fmt.Errorf("adding %q: archive already finalized", name)
	}
	entry := EntryName(name)
	f, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     entry,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating entry %q: %w", entry, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing entry %q: %w", entry, err)
	}
	w.names = append(w.names, entry)
	return nil
}

// Len returns the number of entries added so far.
func (w *Writer) Len() int {
	return len(w.names)
}

// Names returns the entry names in the order they were added.
func (w *Writer) Names() []string {
	return append([]string(nil), w.names...)
}

// Bytes finalizes the archive and returns its encoding. Later calls return the same bytes.
func (w *Writer) Bytes() ([]byte, error) {
	if !w.done {
		if err := w.zw.Close(); err != nil {
			return nil, fmt.Errorf("finalizing archive: %w", err)
		}
		w.done = true
	}
	return w.buf.Bytes(), nil
}

// EntryName returns the archive entry name used for an uploaded file name.
func EntryName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		return "unnamed.dcm"
	}
	return base
}
