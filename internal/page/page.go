// Package page implements the slotted-record page layout: a small fixed
// header, a slot directory that grows from the header end, and record
// bytes that grow from the opposite end of the frame.
package page

import (
	"errors"
	"fmt"

	"github.com/novaheap/heapdb/internal/bx"
	"github.com/novaheap/heapdb/internal/disk"
)

// PageSize is carried from the disk layer; every page-sized buffer handed
// to this package must be exactly this many bytes.
const PageSize = disk.PageSize

const (
	headerSize = 12 // next_page(4) + num_slots(4) + free_space_offset(4)
	slotSize   = 8  // offset(4) + length(4)

	offNextPage   = 0
	offNumSlots   = 4
	offFreeSpace  = 8

	tombstoneLen = int32(-1)
)

// DPFixed is the minimum per-page overhead (header plus a single slot
// entry), used as the largest-possible record size threshold.
const DPFixed = headerSize + slotSize

var (
	ErrNoRecords    = errors.New("page: no records")
	ErrEndOfPage    = errors.New("page: end of page")
	ErrInvalidSlot  = errors.New("page: invalid slot")
	ErrNoSpace      = errors.New("page: no space for record")
)

// RID identifies a record by page number and page-local slot number.
type RID struct {
	PageNo int32
	SlotNo int32
}

// NullRID is the sentinel meaning "no record".
var NullRID = RID{PageNo: -1, SlotNo: -1}

func (r RID) IsNull() bool { return r == NullRID }

// Page is a typed view over a raw, fixed-size buffer owned by the buffer
// pool. It never copies the buffer; all accessors read and write through
// it directly, so a Page is only valid while its backing frame is pinned.
type Page struct {
	Buf    []byte
	PageNo int32 // not persisted in the header; supplied by the caller
}

// Wrap attaches a Page view to an existing PageSize-byte buffer without
// touching its contents.
func Wrap(buf []byte, pageNo int32) (*Page, error) {
	if len(buf) != PageSize {
		return nil, fmt.Errorf("page: buffer must be %d bytes, got %d", PageSize, len(buf))
	}
	return &Page{Buf: buf, PageNo: pageNo}, nil
}

// Init zeroes the header and slot directory, starting with no records and
// the whole frame available as free space.
func (p *Page) Init(pageNo int32) {
	p.PageNo = pageNo
	for i := range p.Buf {
		p.Buf[i] = 0
	}
	bx.PutI32At(p.Buf, offNextPage, -1)
	bx.PutI32At(p.Buf, offNumSlots, 0)
	bx.PutI32At(p.Buf, offFreeSpace, int32(PageSize))
}

func (p *Page) NextPage() int32 { return bx.I32At(p.Buf, offNextPage) }

func (p *Page) SetNextPage(pageNo int32) { bx.PutI32At(p.Buf, offNextPage, pageNo) }

func (p *Page) NumSlots() int32 { return bx.I32At(p.Buf, offNumSlots) }

func (p *Page) freeSpaceOffset() int32 { return bx.I32At(p.Buf, offFreeSpace) }

func (p *Page) setFreeSpaceOffset(v int32) { bx.PutI32At(p.Buf, offFreeSpace, v) }

func (p *Page) slotDirOffset(slot int32) int {
	return headerSize + int(slot)*slotSize
}

func (p *Page) slot(slot int32) (offset, length int32) {
	o := p.slotDirOffset(slot)
	return bx.I32At(p.Buf, o), bx.I32At(p.Buf, o+4)
}

func (p *Page) putSlot(slot int32, offset, length int32) {
	o := p.slotDirOffset(slot)
	bx.PutI32At(p.Buf, o, offset)
	bx.PutI32At(p.Buf, o+4, length)
}

func (p *Page) isLive(slot int32) bool {
	if slot < 0 || slot >= p.NumSlots() {
		return false
	}
	_, length := p.slot(slot)
	return length != tombstoneLen
}

// FirstRecord returns the smallest slot index whose slot is live.
func (p *Page) FirstRecord() (RID, error) {
	n := p.NumSlots()
	for s := int32(0); s < n; s++ {
		if p.isLive(s) {
			return RID{PageNo: p.PageNo, SlotNo: s}, nil
		}
	}
	return NullRID, ErrNoRecords
}

// NextRecord returns the next live slot strictly after cur.SlotNo.
func (p *Page) NextRecord(cur RID) (RID, error) {
	n := p.NumSlots()
	for s := cur.SlotNo + 1; s < n; s++ {
		if p.isLive(s) {
			return RID{PageNo: p.PageNo, SlotNo: s}, nil
		}
	}
	return NullRID, ErrEndOfPage
}

// GetRecord returns a borrowed view over the bytes of rid. The slice
// aliases the page's backing buffer and is valid only as long as the
// frame remains pinned.
func (p *Page) GetRecord(rid RID) ([]byte, error) {
	if rid.SlotNo < 0 || rid.SlotNo >= p.NumSlots() {
		return nil, ErrInvalidSlot
	}
	offset, length := p.slot(rid.SlotNo)
	if length == tombstoneLen {
		return nil, ErrInvalidSlot
	}
	return p.Buf[offset : offset+length], nil
}

// InsertRecord appends rec into the free area if there is room for its
// bytes plus one new slot directory entry.
func (p *Page) InsertRecord(rec []byte) (RID, error) {
	n := p.NumSlots()
	used := headerSize + int(n)*slotSize
	free := int(p.freeSpaceOffset()) - used
	need := len(rec) + slotSize
	if free < need {
		return NullRID, ErrNoSpace
	}

	newOffset := int(p.freeSpaceOffset()) - len(rec)
	copy(p.Buf[newOffset:newOffset+len(rec)], rec)
	p.putSlot(n, int32(newOffset), int32(len(rec)))
	bx.PutI32At(p.Buf, offNumSlots, n+1)
	p.setFreeSpaceOffset(int32(newOffset))

	return RID{PageNo: p.PageNo, SlotNo: n}, nil
}

// DeleteRecord tombstones rid's slot without compacting the page.
func (p *Page) DeleteRecord(rid RID) error {
	if rid.SlotNo < 0 || rid.SlotNo >= p.NumSlots() {
		return ErrInvalidSlot
	}
	offset, length := p.slot(rid.SlotNo)
	if length == tombstoneLen {
		return ErrInvalidSlot
	}
	p.putSlot(rid.SlotNo, offset, tombstoneLen)
	return nil
}
