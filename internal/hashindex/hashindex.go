// Package hashindex implements the buffer pool's fixed-capacity, open
// chained mapping from (file-identity, page-number) to frame index. The
// bucket count is sized once at construction from the pool's frame count
// and never resized.
package hashindex

import (
	"errors"

	"github.com/novaheap/heapdb/internal/disk"
)

var (
	ErrAlreadyPresent = errors.New("hashindex: key already present")
	ErrNotFound       = errors.New("hashindex: key not found")
)

// Key identifies a page within a specific open file.
type Key struct {
	File   disk.FileID
	PageNo int32
}

type entry struct {
	key   Key
	frame int
	next  *entry
}

// Table is a fixed-bucket-count chained hash map keyed by Key.
type Table struct {
	buckets []*entry
}

// New builds a hash index sized for a buffer pool of n frames. The bucket
// count is approximately 1.2*n rounded up to an odd number; the exact
// formula is not load-bearing for correctness, only for collision rate.
func New(n int) *Table {
	h := nextOddAbove((n * 12) / 10)
	if h < 1 {
		h = 1
	}
	return &Table{buckets: make([]*entry, h)}
}

func nextOddAbove(v int) int {
	if v < 1 {
		v = 1
	}
	if v%2 == 0 {
		v++
	}
	return v
}

func (t *Table) bucketOf(k Key) int {
	h := hashKey(k)
	return int(h % uint64(len(t.buckets)))
}

// hashKey mixes file identity and page number bits. FNV-1a style mixing
// over the UUID bytes plus the page number, matching the spec's "mix of
// file-identity and page-number bits" without claiming cryptographic
// properties.
func hashKey(k Key) uint64 {
	var h uint64 = 1469598103934665603 // FNV offset basis
	const prime uint64 = 1099511628211
	for _, b := range k.File {
		h ^= uint64(b)
		h *= prime
	}
	pn := uint32(k.PageNo)
	for i := 0; i < 4; i++ {
		h ^= uint64(byte(pn >> (8 * i)))
		h *= prime
	}
	return h
}

// Insert registers key -> frame, failing if key is already present.
func (t *Table) Insert(key Key, frame int) error {
	b := t.bucketOf(key)
	for e := t.buckets[b]; e != nil; e = e.next {
		if e.key == key {
			return ErrAlreadyPresent
		}
	}
	t.buckets[b] = &entry{key: key, frame: frame, next: t.buckets[b]}
	return nil
}

// Lookup returns the frame index registered for key.
func (t *Table) Lookup(key Key) (int, error) {
	b := t.bucketOf(key)
	for e := t.buckets[b]; e != nil; e = e.next {
		if e.key == key {
			return e.frame, nil
		}
	}
	return 0, ErrNotFound
}

// Remove deletes key from the index.
func (t *Table) Remove(key Key) error {
	b := t.bucketOf(key)
	var prev *entry
	for e := t.buckets[b]; e != nil; e = e.next {
		if e.key == key {
			if prev == nil {
				t.buckets[b] = e.next
			} else {
				prev.next = e.next
			}
			return nil
		}
		prev = e
	}
	return ErrNotFound
}
