package heapfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/novaheap/heapdb/internal/buffer"
	"github.com/novaheap/heapdb/internal/disk"
	"github.com/novaheap/heapdb/internal/page"
)

// AttrType is the type of a filter/attribute value used by a scan.
type AttrType int

const (
	AttrString AttrType = iota
	AttrInteger
	AttrFloat
)

// Op is a scan filter's comparison operator.
type Op int

const (
	OpLT Op = iota
	OpLTE
	OpEQ
	OpGTE
	OpGT
	OpNE
)

// Filter describes the single-attribute predicate a scan applies to every
// record it visits. A nil *Filter matches every record.
type Filter struct {
	Offset int32
	Length int32
	Type   AttrType
	Value  []byte
	Op     Op
}

func (f *Filter) validate() error {
	if f.Offset < 0 {
		return fmt.Errorf("%w: offset must be >= 0", ErrBadScanParm)
	}
	if f.Length < 1 {
		return fmt.Errorf("%w: length must be >= 1", ErrBadScanParm)
	}
	switch f.Type {
	case AttrString:
	case AttrInteger:
		if f.Length != 4 {
			return fmt.Errorf("%w: INTEGER filter length must be 4", ErrBadScanParm)
		}
	case AttrFloat:
		if f.Length != 4 {
			return fmt.Errorf("%w: FLOAT filter length must be 4", ErrBadScanParm)
		}
	default:
		return fmt.Errorf("%w: unknown attribute type", ErrBadScanParm)
	}
	switch f.Op {
	case OpLT, OpLTE, OpEQ, OpGTE, OpGT, OpNE:
	default:
		return fmt.Errorf("%w: unknown operator", ErrBadScanParm)
	}
	return nil
}

// ScanMark is a snapshot of a scan's cursor position, for markScan/resetScan.
type ScanMark struct {
	pageNo int32
	rec    page.RID
}

// HeapFileScan performs a sequential, optionally filtered scan over a
// heap file, independent of any other open HeapFile on the same name.
type HeapFileScan struct {
	dm     *disk.Manager
	c      *cursor
	filter *Filter
}

// OpenScan opens a sequential scan over the named heap file directly,
// without requiring a separate HeapFile handle. dm and bp must be the
// same disk.Manager and buffer.Pool used to create/open the file.
func OpenScan(dm *disk.Manager, bp *buffer.Pool, name string) (*HeapFileScan, error) {
	return openHeapFileScan(dm, bp, name)
}

func openHeapFileScan(dm *disk.Manager, bp *buffer.Pool, name string) (*HeapFileScan, error) {
	c, err := openCursor(dm, bp, name, true)
	if err != nil {
		return nil, err
	}
	return &HeapFileScan{dm: dm, c: c}, nil
}

// StartScan installs the scan's filter. A nil filter matches every record.
func (s *HeapFileScan) StartScan(filter *Filter) error {
	if filter != nil {
		if err := filter.validate(); err != nil {
			return err
		}
	}
	s.filter = filter
	s.c.curRec = page.NullRID
	return nil
}

// ScanNext advances to, and returns the RID of, the next matching record.
// It returns ErrFileEOF once the chain of data pages is exhausted.
func (s *HeapFileScan) ScanNext() (page.RID, error) {
	for {
		if s.c.curPage == nil {
			return page.NullRID, ErrFileEOF
		}

		var rid page.RID
		var err error
		if s.c.curRec.IsNull() {
			rid, err = s.c.curPage.FirstRecord()
		} else {
			rid, err = s.c.curPage.NextRecord(s.c.curRec)
		}

		if err == nil {
			s.c.curRec = rid
			rec, gerr := s.c.curPage.GetRecord(rid)
			if gerr != nil {
				return page.NullRID, fmt.Errorf("heapfile: scan: %w", gerr)
			}
			if s.matchRec(rec) {
				return rid, nil
			}
			continue
		}

		// End of page: capture the successor link before unpinning.
		nextPageNo := s.c.curPage.NextPage()
		if uerr := s.c.bp.UnpinPage(s.c.file, s.c.curPageNo, s.c.curDirty); uerr != nil {
			return page.NullRID, fmt.Errorf("heapfile: scan: unpin: %w", uerr)
		}
		s.c.curPage = nil
		s.c.curDirty = false

		if nextPageNo == -1 {
			return page.NullRID, ErrFileEOF
		}
		pg, rerr := s.c.bp.ReadPage(s.c.file, nextPageNo)
		if rerr != nil {
			s.c.curPage = nil
			return page.NullRID, ErrFileEOF
		}
		s.c.curPage = pg
		s.c.curPageNo = nextPageNo
		s.c.curRec = page.NullRID
		// loop: iterate into the successor page instead of recursing.
	}
}

// matchRec reports whether rec satisfies the scan's filter (true for no
// filter at all).
func (s *HeapFileScan) matchRec(rec []byte) bool {
	f := s.filter
	if f == nil {
		return true
	}
	if int(f.Offset)+int(f.Length)-1 >= len(rec) {
		return false
	}

	var sign int
	switch f.Type {
	case AttrInteger:
		a := int32(binary.LittleEndian.Uint32(rec[f.Offset : f.Offset+4]))
		b := int32(binary.LittleEndian.Uint32(f.Value))
		sign = signInt(int64(a) - int64(b))
	case AttrFloat:
		a := math.Float32frombits(binary.LittleEndian.Uint32(rec[f.Offset : f.Offset+4]))
		b := math.Float32frombits(binary.LittleEndian.Uint32(f.Value))
		sign = signFloat(a - b)
	default: // AttrString
		sign = bytes.Compare(rec[f.Offset:f.Offset+f.Length], f.Value[:f.Length])
		if sign > 1 {
			sign = 1
		} else if sign < -1 {
			sign = -1
		}
	}

	switch f.Op {
	case OpLT:
		return sign < 0
	case OpLTE:
		return sign <= 0
	case OpEQ:
		return sign == 0
	case OpGTE:
		return sign >= 0
	case OpGT:
		return sign > 0
	case OpNE:
		return sign != 0
	default:
		return false
	}
}

func signInt(v int64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

func signFloat(v float32) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// MarkScan snapshots the current cursor position.
func (s *HeapFileScan) MarkScan() ScanMark {
	return ScanMark{pageNo: s.c.curPageNo, rec: s.c.curRec}
}

// ResetScan restores a previously marked cursor position.
func (s *HeapFileScan) ResetScan(m ScanMark) error {
	if s.c.curPage == nil || s.c.curPageNo != m.pageNo {
		if err := s.c.switchCursor(m.pageNo); err != nil {
			return err
		}
	}
	s.c.curRec = m.rec
	return nil
}

// EndScan unpins the cursor's data page, if one is held. It does not
// release the header page or close the underlying file; use Close for
// full teardown.
func (s *HeapFileScan) EndScan() error {
	if s.c.curPage == nil {
		return nil
	}
	err := s.c.bp.UnpinPage(s.c.file, s.c.curPageNo, s.c.curDirty)
	s.c.curPage = nil
	return err
}

// GetRecord returns the bytes at the scan's current cursor position.
func (s *HeapFileScan) GetRecord() ([]byte, error) {
	return s.c.curPage.GetRecord(s.c.curRec)
}

// DeleteRecord tombstones the record at the scan's current cursor
// position and updates the header's live record count.
func (s *HeapFileScan) DeleteRecord() error {
	if err := s.c.curPage.DeleteRecord(s.c.curRec); err != nil {
		return err
	}
	s.c.curDirty = true
	s.c.hdr.SetRecCount(s.c.hdr.RecCount() - 1)
	s.c.hdrDirty = true
	return nil
}

// MarkDirty flags the scan's current data page as dirty without any
// other record-level mutation.
func (s *HeapFileScan) MarkDirty() {
	s.c.curDirty = true
}

// Close unpins the cursor and header, flushes and closes the file.
func (s *HeapFileScan) Close() {
	s.c.close(s.dm, "heapfilescan")
}
