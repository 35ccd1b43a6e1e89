//go:build unix

package app

import "syscall"

// diskCapacity asks the OS for the volume's total size and the bytes
// available to the caller, the same numbers df reports.
func diskCapacity(path string) (total, free int64, err error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	bsize := int64(stat.Bsize)
	total = int64(stat.Blocks) * bsize
	free = int64(stat.Bavail) * bsize
	return total, free, nil
}
