package heapfile

import (
	"fmt"

	"github.com/novaheap/heapdb/internal/buffer"
	"github.com/novaheap/heapdb/internal/disk"
	"github.com/novaheap/heapdb/internal/page"
)

// InsertFileScan appends records to a heap file's trailing data page,
// allocating and linking new pages as needed.
type InsertFileScan struct {
	dm *disk.Manager
	c  *cursor
}

// OpenInsertScan opens an insert-only scan over the named heap file
// directly, without requiring a separate HeapFile handle. dm and bp must
// be the same disk.Manager and buffer.Pool used to create/open the file.
func OpenInsertScan(dm *disk.Manager, bp *buffer.Pool, name string) (*InsertFileScan, error) {
	return openInsertFileScan(dm, bp, name)
}

func openInsertFileScan(dm *disk.Manager, bp *buffer.Pool, name string) (*InsertFileScan, error) {
	c, err := openCursor(dm, bp, name, false)
	if err != nil {
		return nil, err
	}
	return &InsertFileScan{dm: dm, c: c}, nil
}

// InsertRecord appends rec, extending the page chain if necessary, and
// returns the RID it was assigned.
func (s *InsertFileScan) InsertRecord(rec []byte) (page.RID, error) {
	if len(rec) > page.PageSize-page.DPFixed {
		return page.NullRID, ErrInvalidRecLen
	}

	if s.c.curPage == nil {
		pg, err := s.c.bp.ReadPage(s.c.file, s.c.hdr.LastPage())
		if err != nil {
			return page.NullRID, fmt.Errorf("heapfile: insert: pin last page: %w", err)
		}
		s.c.curPage = pg
		s.c.curPageNo = s.c.hdr.LastPage()
		s.c.curDirty = false
	}

	rid, err := s.c.curPage.InsertRecord(rec)
	if err == nil {
		s.c.curDirty = true
		s.c.hdr.SetRecCount(s.c.hdr.RecCount() + 1)
		s.c.hdrDirty = true
		return rid, nil
	}

	// Page has no room: allocate a fresh page, link it, and retry. One
	// retry always succeeds because of the size check above.
	newPageNo, newPage, aerr := s.c.bp.AllocPage(s.c.file)
	if aerr != nil {
		return page.NullRID, fmt.Errorf("heapfile: insert: alloc page: %w", aerr)
	}
	newPage.Init(newPageNo)

	s.c.curPage.SetNextPage(newPageNo)
	s.c.curDirty = true
	if uerr := s.c.bp.UnpinPage(s.c.file, s.c.curPageNo, s.c.curDirty); uerr != nil {
		return page.NullRID, fmt.Errorf("heapfile: insert: unpin full page: %w", uerr)
	}

	s.c.hdr.SetPageCount(s.c.hdr.PageCount() + 1)
	s.c.hdr.SetLastPage(newPageNo)
	s.c.hdrDirty = true

	s.c.curPage = newPage
	s.c.curPageNo = newPageNo
	s.c.curDirty = false

	rid, err = s.c.curPage.InsertRecord(rec)
	if err != nil {
		return page.NullRID, fmt.Errorf("heapfile: insert: retry after extend: %w", err)
	}
	s.c.curDirty = true
	s.c.hdr.SetRecCount(s.c.hdr.RecCount() + 1)
	s.c.hdrDirty = true
	return rid, nil
}

// Close unpins the cursor and header, flushes and closes the file.
func (s *InsertFileScan) Close() {
	s.c.close(s.dm, "insertfilescan")
}
