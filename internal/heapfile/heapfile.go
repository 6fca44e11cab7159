package heapfile

import (
	"fmt"
	"log/slog"

	"github.com/novaheap/heapdb/internal/buffer"
	"github.com/novaheap/heapdb/internal/disk"
	"github.com/novaheap/heapdb/internal/page"
)

// cursor bundles the state shared by HeapFile, HeapFileScan and
// InsertFileScan: an open file, its pinned header page, and at most one
// pinned data page acting as the current cursor. Every transition of
// curPage pairs an unpin of the old page with a pin of the new one.
type cursor struct {
	file *disk.File
	bp   *buffer.Pool

	hdrPageNo int32
	hdr       *FileHdrPage
	hdrDirty  bool

	curPage   *page.Page
	curPageNo int32
	curDirty  bool
	curRec    page.RID
}

// openCursor opens name and pins the header page, plus pins the first
// data page as the initial cursor when pinFirstData is true. Any failure
// releases whatever was already acquired. InsertFileScan passes false: it
// starts with no cursor pinned and lazily pins header.LastPage on its
// first insert.
func openCursor(dm *disk.Manager, bp *buffer.Pool, name string, pinFirstData bool) (*cursor, error) {
	f, err := dm.OpenFile(name)
	if err != nil {
		return nil, fmt.Errorf("heapfile: open %q: %w", name, err)
	}

	firstPageNo, err := f.GetFirstPage()
	if err != nil {
		_ = dm.CloseFile(f)
		return nil, fmt.Errorf("heapfile: open %q: %w", name, err)
	}

	hdrPage, err := bp.ReadPage(f, firstPageNo)
	if err != nil {
		_ = dm.CloseFile(f)
		return nil, fmt.Errorf("heapfile: open %q: read header: %w", name, err)
	}
	hdr := WrapHdr(hdrPage.Buf)

	c := &cursor{
		file:      f,
		bp:        bp,
		hdrPageNo: firstPageNo,
		hdr:       hdr,
		curRec:    page.NullRID,
	}

	if !pinFirstData {
		return c, nil
	}

	dataPage, err := bp.ReadPage(f, hdr.FirstPage())
	if err != nil {
		_ = bp.UnpinPage(f, firstPageNo, false)
		_ = dm.CloseFile(f)
		return nil, fmt.Errorf("heapfile: open %q: read first data page: %w", name, err)
	}
	c.curPage = dataPage
	c.curPageNo = hdr.FirstPage()
	return c, nil
}

// close unpins the cursor and header, flushes the file, and closes it.
// Errors are logged, never propagated, since this runs on destructor paths.
// A second call does nothing.
func (c *cursor) close(dm *disk.Manager, logPrefix string) {
	if c.file == nil {
		return
	}
	if c.curPage != nil {
		if err := c.bp.UnpinPage(c.file, c.curPageNo, c.curDirty); err != nil {
			slog.Warn(logPrefix+": unpin cursor failed", "pageNo", c.curPageNo, "err", err)
		}
		c.curPage = nil
	}
	if err := c.bp.UnpinPage(c.file, c.hdrPageNo, c.hdrDirty); err != nil {
		slog.Warn(logPrefix+": unpin header failed", "pageNo", c.hdrPageNo, "err", err)
	}
	if err := c.bp.FlushFile(c.file); err != nil {
		slog.Warn(logPrefix+": flush failed", "err", err)
	}
	if err := dm.CloseFile(c.file); err != nil {
		slog.Warn(logPrefix+": close failed", "err", err)
	}
	c.file = nil
}

// switchCursor unpins the current data page (if any) and pins pageNo as
// the new cursor, clearing curRec. Callers are responsible for curDirty
// bookkeeping before calling this.
func (c *cursor) switchCursor(pageNo int32) error {
	if c.curPage != nil {
		if err := c.bp.UnpinPage(c.file, c.curPageNo, c.curDirty); err != nil {
			return fmt.Errorf("heapfile: switch cursor: unpin %d: %w", c.curPageNo, err)
		}
		c.curPage = nil
	}
	pg, err := c.bp.ReadPage(c.file, pageNo)
	if err != nil {
		return err
	}
	c.curPage = pg
	c.curPageNo = pageNo
	c.curDirty = false
	c.curRec = page.NullRID
	return nil
}

// getRecordAt fetches rid's bytes, switching the cursor to rid's page if
// necessary. A page-level failure is reported as ErrBadRID, matching
// spec.md §4.4.
func (c *cursor) getRecordAt(rid page.RID) ([]byte, error) {
	if c.curPage != nil && c.curPageNo == rid.PageNo {
		rec, err := c.curPage.GetRecord(rid)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRID, err)
		}
		return rec, nil
	}

	if rid.PageNo > c.hdr.PageCount() {
		return nil, ErrBadRID
	}
	if err := c.switchCursor(rid.PageNo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRID, err)
	}
	rec, err := c.curPage.GetRecord(rid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRID, err)
	}
	return rec, nil
}

// HeapFile binds a named file to its header page and offers
// record-granular access plus factory methods for scans.
type HeapFile struct {
	dm *disk.Manager
	bp *buffer.Pool
	c  *cursor
}

// Create allocates a header page and an initial empty data page for a
// brand-new heap file named name. This is distinct from Open: it must run
// exactly once, before any HeapFile is opened against name.
func Create(dm *disk.Manager, bp *buffer.Pool, name string) error {
	if err := dm.CreateFile(name); err != nil {
		return fmt.Errorf("heapfile: create %q: %w", name, err)
	}
	f, err := dm.OpenFile(name)
	if err != nil {
		return fmt.Errorf("heapfile: create %q: %w", name, err)
	}
	defer func() { _ = dm.CloseFile(f) }()

	hdrPageNo, hdrPage, err := bp.AllocPage(f)
	if err != nil {
		return fmt.Errorf("heapfile: create %q: alloc header: %w", name, err)
	}
	dataPageNo, dataPage, err := bp.AllocPage(f)
	if err != nil {
		_ = bp.UnpinPage(f, hdrPageNo, false)
		return fmt.Errorf("heapfile: create %q: alloc first page: %w", name, err)
	}
	dataPage.Init(dataPageNo)

	hdr := WrapHdr(hdrPage.Buf)
	hdr.Reset(name, dataPageNo, dataPageNo, 1, 0)

	if err := bp.UnpinPage(f, dataPageNo, true); err != nil {
		return fmt.Errorf("heapfile: create %q: %w", name, err)
	}
	if err := bp.UnpinPage(f, hdrPageNo, true); err != nil {
		return fmt.Errorf("heapfile: create %q: %w", name, err)
	}
	return bp.FlushFile(f)
}

// Destroy removes a heap file's on-disk storage entirely.
func Destroy(dm *disk.Manager, name string) error {
	if err := dm.DestroyFile(name); err != nil {
		return fmt.Errorf("heapfile: destroy %q: %w", name, err)
	}
	return nil
}

// Open pins the header page and the first data page of an existing heap
// file named name.
func Open(dm *disk.Manager, bp *buffer.Pool, name string) (*HeapFile, error) {
	c, err := openCursor(dm, bp, name, true)
	if err != nil {
		return nil, err
	}
	return &HeapFile{dm: dm, bp: bp, c: c}, nil
}

// Close unpins the cursor and header, flushes and closes the file. Errors
// are logged, not propagated.
func (hf *HeapFile) Close() {
	hf.c.close(hf.dm, "heapfile")
}

func (hf *HeapFile) GetRecCnt() int32 { return hf.c.hdr.RecCount() }

func (hf *HeapFile) GetRecord(rid page.RID) ([]byte, error) {
	return hf.c.getRecordAt(rid)
}

// OpenScan starts a sequential filtered scan over this heap file's
// underlying named file. The scan gets its own cursor, separate from
// hf's, but both cursors pin pages of the very same disk.File (the
// Manager hands out the same handle to every open of the same name while
// hf keeps its own handle open), so pages pinned by one are visible to
// the other through the shared buffer pool.
func (hf *HeapFile) OpenScan() (*HeapFileScan, error) {
	return OpenScan(hf.dm, hf.bp, hf.c.hdr.Name())
}

// OpenInsertScan opens an insert-only scan over this heap file's
// underlying named file. See OpenScan for how its cursor relates to hf's.
func (hf *HeapFile) OpenInsertScan() (*InsertFileScan, error) {
	return OpenInsertScan(hf.dm, hf.bp, hf.c.hdr.Name())
}
