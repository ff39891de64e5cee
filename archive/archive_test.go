package archive

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := map[string][]byte{}
	for _, f := range zr.File {
		assert.Equal(t, zip.Deflate, f.Method, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = body
	}
	return entries
}

func TestWriter(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.Add("ct.dcm", []byte("first")))
	require.NoError(t, w.Add(`C:\scans\mr.dcm`, []byte("second")))
	require.NoError(t, w.Add("../../etc/us", bytes.Repeat([]byte{0}, 4096)))
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []string{"ct.dcm", "mr.dcm", "us"}, w.Names())

	data, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{
		"ct.dcm": []byte("first"),
		"mr.dcm": []byte("second"),
		"us":     bytes.Repeat([]byte{0}, 4096),
	}, readArchive(t, data))

	again, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, again)

	assert.Error(t, w.Add("late.dcm", nil))
}

func TestEmptyArchive(t *testing.T) {
	data, err := NewWriter().Bytes()
	require.NoError(t, err)
	assert.Empty(t, readArchive(t, data))
}

func TestEntryName(t *testing.T) {
	tests := map[string]string{
		"image.dcm":         "image.dcm",
		"dir/sub/image":     "image",
		`dir\sub\image.DCM`: "image.DCM",
		"":                  "unnamed.dcm",
		"/":                 "unnamed.dcm",
		"..":                "unnamed.dcm",
		"trailing/slash/":   "slash",
	}
	for name, want := range tests {
		assert.Equal(t, want, EntryName(name), name)
	}
}
