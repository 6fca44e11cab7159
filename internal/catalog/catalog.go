// Package catalog is a minimal in-memory stand-in for the system catalogs
// (RelCatalog, AttrCatalog) spec.md treats as external collaborators: it
// resolves relation/attribute names to their byte offset, length and type
// within a flat record layout, so the executor has something concrete to
// consult.
package catalog

import (
	"errors"
	"fmt"

	"github.com/novaheap/heapdb/internal/heapfile"
)

var (
	ErrUnknownRelation = errors.New("catalog: unknown relation")
	ErrUnknownAttr     = errors.New("catalog: unknown attribute")
	ErrRelationExists  = errors.New("catalog: relation already defined")
)

// AttrDef is the caller-supplied description of one column when defining
// a relation: name, type and byte length.
type AttrDef struct {
	Name   string
	Type   heapfile.AttrType
	Length int32
}

// AttrDesc is a resolved attribute: its position within the flat record
// layout of its relation.
type AttrDesc struct {
	RelName string
	Name    string
	Offset  int32
	Length  int32
	Type    heapfile.AttrType
}

type relInfo struct {
	name  string
	attrs []AttrDesc // in schema order
}

// RelCatalog maps relation names to their ordered attribute descriptors.
type RelCatalog struct {
	rels map[string]relInfo
}

func NewRelCatalog() *RelCatalog {
	return &RelCatalog{rels: make(map[string]relInfo)}
}

// DefineRelation registers rel with attrs in schema order, computing each
// attribute's cumulative byte offset.
func (rc *RelCatalog) DefineRelation(rel string, attrs []AttrDef) error {
	if _, ok := rc.rels[rel]; ok {
		return fmt.Errorf("%w: %s", ErrRelationExists, rel)
	}
	descs := make([]AttrDesc, 0, len(attrs))
	var off int32
	for _, a := range attrs {
		descs = append(descs, AttrDesc{
			RelName: rel,
			Name:    a.Name,
			Offset:  off,
			Length:  a.Length,
			Type:    a.Type,
		})
		off += a.Length
	}
	rc.rels[rel] = relInfo{name: rel, attrs: descs}
	return nil
}

// GetRelInfo returns every attribute of rel, in schema order.
func (rc *RelCatalog) GetRelInfo(rel string) ([]AttrDesc, error) {
	info, ok := rc.rels[rel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRelation, rel)
	}
	out := make([]AttrDesc, len(info.attrs))
	copy(out, info.attrs)
	return out, nil
}

// GetInfo resolves a single (rel, attr) pair.
func (rc *RelCatalog) GetInfo(rel, attr string) (AttrDesc, error) {
	info, ok := rc.rels[rel]
	if !ok {
		return AttrDesc{}, fmt.Errorf("%w: %s", ErrUnknownRelation, rel)
	}
	for _, a := range info.attrs {
		if a.Name == attr {
			return a, nil
		}
	}
	return AttrDesc{}, fmt.Errorf("%w: %s.%s", ErrUnknownAttr, rel, attr)
}

// RecordLength returns the total flat-record byte length of rel.
func (rc *RelCatalog) RecordLength(rel string) (int32, error) {
	info, ok := rc.rels[rel]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRelation, rel)
	}
	var total int32
	for _, a := range info.attrs {
		total += a.Length
	}
	return total, nil
}
