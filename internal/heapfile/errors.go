package heapfile

import "errors"

// Sentinel errors matching the error taxonomy of spec.md §7. The page
// iteration sentinels (page.ErrNoRecords, page.ErrEndOfPage) are consumed
// inside this package and never returned. Other failures from package page
// and package buffer (an invalid slot, a failed unpin) are returned to the
// caller, some of them wrapped. ErrFileEOF, returned unwrapped, is the only
// "non-error" terminator a scan returns.
var (
	ErrFileEOF        = errors.New("heapfile: end of file")
	ErrFileExists     = errors.New("heapfile: file already exists")
	ErrBadRID         = errors.New("heapfile: rid references a nonexistent page or slot")
	ErrBadScanParm    = errors.New("heapfile: invalid scan parameters")
	ErrInvalidRecLen  = errors.New("heapfile: record too large for a page")
)
