package heapfile

import (
	"github.com/novaheap/heapdb/internal/bx"
)

// maxNameSize bounds the NUL-terminated file_name field of FileHdrPage.
const maxNameSize = 256

const (
	hdrOffName      = 0
	hdrOffFirstPage = hdrOffName + maxNameSize
	hdrOffLastPage  = hdrOffFirstPage + 4
	hdrOffPageCount = hdrOffLastPage + 4
	hdrOffRecCount  = hdrOffPageCount + 4
)

// FileHdrPage is a typed, fixed-offset reinterpretation of the first page
// of a heap file. Unlike the slotted layout of a data page, it is a plain
// fixed-layout record: file_name, first_page, last_page, page_count,
// rec_count, with the remainder of the frame reserved.
type FileHdrPage struct {
	buf []byte
}

// WrapHdr attaches a FileHdrPage view to a page-sized buffer, without
// modifying its contents. Use Reset when creating a brand-new header.
func WrapHdr(buf []byte) *FileHdrPage {
	return &FileHdrPage{buf: buf}
}

// Reset zeroes the header and installs the initial field values.
func (h *FileHdrPage) Reset(name string, firstPage, lastPage, pageCount, recCount int32) {
	for i := range h.buf {
		h.buf[i] = 0
	}
	h.SetName(name)
	h.SetFirstPage(firstPage)
	h.SetLastPage(lastPage)
	h.SetPageCount(pageCount)
	h.SetRecCount(recCount)
}

func (h *FileHdrPage) Name() string {
	nb := h.buf[hdrOffName : hdrOffName+maxNameSize]
	n := 0
	for n < len(nb) && nb[n] != 0 {
		n++
	}
	return string(nb[:n])
}

func (h *FileHdrPage) SetName(name string) {
	nb := h.buf[hdrOffName : hdrOffName+maxNameSize]
	for i := range nb {
		nb[i] = 0
	}
	copy(nb, []byte(name))
}

func (h *FileHdrPage) FirstPage() int32 { return bx.I32At(h.buf, hdrOffFirstPage) }
func (h *FileHdrPage) SetFirstPage(v int32) { bx.PutI32At(h.buf, hdrOffFirstPage, v) }

func (h *FileHdrPage) LastPage() int32 { return bx.I32At(h.buf, hdrOffLastPage) }
func (h *FileHdrPage) SetLastPage(v int32) { bx.PutI32At(h.buf, hdrOffLastPage, v) }

func (h *FileHdrPage) PageCount() int32 { return bx.I32At(h.buf, hdrOffPageCount) }
func (h *FileHdrPage) SetPageCount(v int32) { bx.PutI32At(h.buf, hdrOffPageCount, v) }

func (h *FileHdrPage) RecCount() int32 { return bx.I32At(h.buf, hdrOffRecCount) }
func (h *FileHdrPage) SetRecCount(v int32) { bx.PutI32At(h.buf, hdrOffRecCount, v) }
