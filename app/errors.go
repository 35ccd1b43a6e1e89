package app

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

var (
	ErrUnknownRoot = errors.New("unknown root")
	ErrRootExists  = errors.New("root already registered")
	ErrInvalidRoot = errors.New("invalid root")
	ErrNoJob       = errors.New("no such job")
	ErrQueueClosed = errors.New("queue is closed")
	ErrNoSweep     = errors.New("no sweep in progress")
	ErrSweepOpen   = errors.New("sweep already in progress")
)

// classifyError maps a crawl failure to the kind reported on the scan.
// Cycle detection has its own path and never goes through here.
func classifyError(path string, err error) models.ScanError {
	kind := models.ErrKindIO

	var errno syscall.Errno
	switch {
	case errors.As(err, &errno):
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			kind = models.ErrKindPermission
		case syscall.ENOENT:
			kind = models.ErrKindNotFound
		case syscall.ENAMETOOLONG:
			kind = models.ErrKindTooLong
		}
	case errors.Is(err, fs.ErrPermission):
		kind = models.ErrKindPermission
	case errors.Is(err, fs.ErrNotExist):
		kind = models.ErrKindNotFound
	}

	return models.ScanError{Path: path, Kind: kind, Msg: err.Error()}
}
