//go:build !unix

package mmfile

import "errors"

// Map is not available on this platform. Callers fall back to ReadAt on
// the open file.
func Map(string) ([]byte, func() error, error) {
	return nil, nil, errors.ErrUnsupported
}
