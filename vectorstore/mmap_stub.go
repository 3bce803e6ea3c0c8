//go:build !unix

package vectorstore

import "os"

func mmapFile(_ *os.File, _ int) ([]byte, func([]byte) error, error) {
	return nil, nil, ErrMMapUnsupported
}
