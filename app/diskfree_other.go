//go:build !unix

package app

import "errors"

func diskCapacity(path string) (total, free int64, err error) {
	return 0, 0, errors.New("volume capacity not supported on this platform")
}
