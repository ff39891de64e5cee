package codec

import (
	"errors"
	"fmt"
	"sort"

	"github.com/j-taylor87/dcmpress/dicom"
)

// ErrUnknownBackend is returned by Lookup for an unregistered backend name.
var ErrUnknownBackend = errors.New("unknown codec backend")

// DefaultBackend is the name of the backend used when none is configured.
const DefaultBackend = "auto"

var backends = map[string]Backend{
	"native":  Native{},
	"cocosip": Cocosip{},
	"auto":    Chain{Native{}, Cocosip{}},
}

// Lookup returns the backend registered under name. An empty name selects DefaultBackend.
func Lookup(name string) (Backend, error) {
	if name == "" {
		name = DefaultBackend
	}
	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %v", ErrUnknownBackend, name, Names())
	}
	return b, nil
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain tries each backend in turn, moving on to the next one when a backend does not support
// the transfer syntax or image parameters.
type Chain []Backend

// Name implements Backend.
func (Chain) Name() string { return "auto" }

// CanDecode implements Backend.
func (c Chain) CanDecode(uid string) bool {
	for _, b := range c {
		if b.CanDecode(uid) {
			return true
		}
	}
	return false
}

// DecodeFrames implements Backend.
func (c Chain) DecodeFrames(ds *dicom.DataSet, info ImageInfo) ([][]byte, error) {
	uid, err := ds.TransferSyntaxUID()
	if err != nil {
		return nil, err
	}
	lastErr := fmt.Errorf("%w: %s", ErrUnsupportedTransferSyntax, dicom.TransferSyntaxName(uid))
	for _, b := range c {
		if !b.CanDecode(uid) {
			continue
		}
		frames, err := b.DecodeFrames(ds, info)
		if err == nil {
			return frames, nil
		}
		if !errors.Is(err, ErrUnsupportedTransferSyntax) {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		lastErr = err
	}
	return nil, lastErr
}
