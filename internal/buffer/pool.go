// Package buffer implements the fixed-size clock-replacement buffer pool:
// N in-memory frames, one descriptor per frame, and the hash index that
// maps (file, page number) to frame index.
package buffer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/novaheap/heapdb/internal/disk"
	"github.com/novaheap/heapdb/internal/hashindex"
	"github.com/novaheap/heapdb/internal/page"
)

var (
	ErrBufferExceeded = errors.New("buffer: all frames pinned")
	ErrPageNotPinned   = errors.New("buffer: unpin on zero pin count")
	ErrPagePinned      = errors.New("buffer: page is pinned")
)

// BufDesc is the per-frame descriptor. FrameNo is immutable and always
// equals the frame's index in Pool's backing arrays.
type BufDesc struct {
	File     *disk.File
	PageNo   int32
	FrameNo  int
	PinCount int32
	Dirty    bool
	RefBit   bool
	Valid    bool
}

// Pool owns N frames, N descriptors, and the hash index over them.
type Pool struct {
	n         int
	frameBufs [][]byte
	descs     []BufDesc
	index     *hashindex.Table
	clockHand int
}

// New allocates a pool of n frames.
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		n:         n,
		frameBufs: make([][]byte, n),
		descs:     make([]BufDesc, n),
		index:     hashindex.New(n),
	}
	for i := range p.frameBufs {
		p.frameBufs[i] = make([]byte, disk.PageSize)
	}
	for i := range p.descs {
		p.descs[i].FrameNo = i
	}
	return p
}

func (p *Pool) key(f *disk.File, pageNo int32) hashindex.Key {
	return hashindex.Key{File: f.ID(), PageNo: pageNo}
}

func (p *Pool) clearDesc(frame int) {
	p.descs[frame] = BufDesc{FrameNo: frame}
}

// allocBuf runs the clock algorithm to claim a frame, sweeping at most two
// full passes over the descriptor array before giving up.
func (p *Pool) allocBuf() (int, error) {
	for i := 0; i < 2*p.n; i++ {
		idx := p.clockHand
		p.clockHand = (p.clockHand + 1) % p.n
		d := &p.descs[idx]

		if !d.Valid {
			return idx, nil
		}
		if d.PinCount > 0 {
			continue
		}
		if d.RefBit {
			d.RefBit = false
			continue
		}

		if d.Dirty {
			if err := d.File.WritePage(d.PageNo, p.frameBufs[idx]); err != nil {
				return 0, fmt.Errorf("buffer: write back frame %d: %w", idx, err)
			}
			d.Dirty = false
		}
		_ = p.index.Remove(p.key(d.File, d.PageNo))
		p.clearDesc(idx)
		return idx, nil
	}
	return 0, ErrBufferExceeded
}

// ReadPage pins and returns the page (file, pageNo), loading it from disk
// on a miss.
func (p *Pool) ReadPage(f *disk.File, pageNo int32) (*page.Page, error) {
	key := p.key(f, pageNo)
	if frame, err := p.index.Lookup(key); err == nil {
		d := &p.descs[frame]
		d.PinCount++
		d.RefBit = true
		return page.Wrap(p.frameBufs[frame], pageNo)
	}

	frame, err := p.allocBuf()
	if err != nil {
		return nil, err
	}
	buf := p.frameBufs[frame]
	if err := f.ReadPage(pageNo, buf); err != nil {
		return nil, fmt.Errorf("buffer: read page %d: %w", pageNo, err)
	}
	if err := p.index.Insert(key, frame); err != nil {
		return nil, fmt.Errorf("buffer: register frame %d: %w", frame, err)
	}
	p.descs[frame] = BufDesc{
		File: f, PageNo: pageNo, FrameNo: frame,
		PinCount: 1, Dirty: false, RefBit: true, Valid: true,
	}
	return page.Wrap(buf, pageNo)
}

// UnpinPage decrements the pin count on (file, pageNo) and ORs in dirtyHint.
// It never writes to disk.
func (p *Pool) UnpinPage(f *disk.File, pageNo int32, dirtyHint bool) error {
	key := p.key(f, pageNo)
	frame, err := p.index.Lookup(key)
	if err != nil {
		return fmt.Errorf("buffer: unpin page %d: %w", pageNo, hashindex.ErrNotFound)
	}
	d := &p.descs[frame]
	if d.PinCount == 0 {
		return ErrPageNotPinned
	}
	d.PinCount--
	if dirtyHint {
		d.Dirty = true
	}
	return nil
}

// AllocPage asks f for a fresh page identity, pins a frame for it, and
// returns the raw page view. The caller must call Page.Init before use.
func (p *Pool) AllocPage(f *disk.File) (int32, *page.Page, error) {
	pageNo, err := f.AllocatePage()
	if err != nil {
		return 0, nil, fmt.Errorf("buffer: allocate page: %w", err)
	}
	frame, err := p.allocBuf()
	if err != nil {
		return 0, nil, err
	}
	buf := p.frameBufs[frame]
	key := p.key(f, pageNo)
	if err := p.index.Insert(key, frame); err != nil {
		return 0, nil, fmt.Errorf("buffer: register frame %d: %w", frame, err)
	}
	p.descs[frame] = BufDesc{
		File: f, PageNo: pageNo, FrameNo: frame,
		PinCount: 1, Dirty: false, RefBit: true, Valid: true,
	}
	pg, err := page.Wrap(buf, pageNo)
	return pageNo, pg, err
}

// DisposePage releases a page's frame (if cached) and asks f to release
// the page identity. Matching the original minibase behavior, this does
// not check whether the frame is still pinned; callers must not rely on
// that going unchecked (see spec's open question on disposePage).
func (p *Pool) DisposePage(f *disk.File, pageNo int32) error {
	key := p.key(f, pageNo)
	if frame, err := p.index.Lookup(key); err == nil {
		p.clearDesc(frame)
		_ = p.index.Remove(key)
	}
	if err := f.DisposePage(pageNo); err != nil {
		return fmt.Errorf("buffer: dispose page %d: %w", pageNo, err)
	}
	return nil
}

// FlushFile writes back every dirty frame owned by f, failing entirely if
// any frame owned by f is still pinned.
func (p *Pool) FlushFile(f *disk.File) error {
	for i := range p.descs {
		d := &p.descs[i]
		if !d.Valid || d.File != f {
			continue
		}
		if d.PinCount > 0 {
			return ErrPagePinned
		}
	}
	for i := range p.descs {
		d := &p.descs[i]
		if !d.Valid || d.File != f {
			continue
		}
		if d.Dirty {
			if err := f.WritePage(d.PageNo, p.frameBufs[i]); err != nil {
				return fmt.Errorf("buffer: flush frame %d: %w", i, err)
			}
			d.Dirty = false
		}
		_ = p.index.Remove(p.key(f, d.PageNo))
		p.clearDesc(i)
	}
	return nil
}

// Close writes back every valid dirty frame, logging rather than
// propagating any I/O failure, since a destructor path has no caller to
// report to.
func (p *Pool) Close() {
	for i := range p.descs {
		d := &p.descs[i]
		if d.Valid && d.Dirty {
			if err := d.File.WritePage(d.PageNo, p.frameBufs[i]); err != nil {
				slog.Warn("buffer: close: write back failed", "frame", i, "pageNo", d.PageNo, "err", err)
				continue
			}
			d.Dirty = false
		}
	}
}

// DebugDump renders pin counts and validity per frame, for the optional
// CLI inspect command. Not used on any production code path.
func (p *Pool) DebugDump() string {
	var b strings.Builder
	for i, d := range p.descs {
		fmt.Fprintf(&b, "frame %d: valid=%v page=%d pin=%d dirty=%v ref=%v\n",
			i, d.Valid, d.PageNo, d.PinCount, d.Dirty, d.RefBit)
	}
	return b.String()
}
