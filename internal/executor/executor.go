// Package executor implements the thin query glue (QU_Select, QU_Insert,
// QU_Delete) that anchors the storage engine's external behavior in
// observable record operations.
package executor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/novaheap/heapdb/internal/buffer"
	"github.com/novaheap/heapdb/internal/catalog"
	"github.com/novaheap/heapdb/internal/disk"
	"github.com/novaheap/heapdb/internal/heapfile"
)

// AttrValue is a caller-supplied (name, textual value) pair, as produced
// by a front-end parsing literal SQL values.
type AttrValue struct {
	AttrName string
	Value    string
}

// Engine wires a disk manager, buffer pool and catalog together into the
// three executor entry points.
type Engine struct {
	dm  *disk.Manager
	bp  *buffer.Pool
	cat *catalog.RelCatalog
}

func New(dm *disk.Manager, bp *buffer.Pool, cat *catalog.RelCatalog) *Engine {
	return &Engine{dm: dm, bp: bp, cat: cat}
}

func encodeAttr(dst []byte, t heapfile.AttrType, value string) error {
	switch t {
	case heapfile.AttrInteger:
		v, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return fmt.Errorf("executor: invalid integer value %q: %w", value, err)
		}
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
	case heapfile.AttrFloat:
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return fmt.Errorf("executor: invalid float value %q: %w", value, err)
		}
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case heapfile.AttrString:
		copy(dst, value)
	default:
		return fmt.Errorf("executor: unknown attribute type %v", t)
	}
	return nil
}

// QUInsert resolves rel's schema, reorders attrs into schema order,
// encodes each value by its attribute type, and inserts a single record.
func (e *Engine) QUInsert(rel string, attrs []AttrValue) error {
	descs, err := e.cat.GetRelInfo(rel)
	if err != nil {
		return err
	}

	ordered := make([]AttrValue, len(descs))
	for i, d := range descs {
		found := false
		for _, a := range attrs {
			if a.AttrName == d.Name {
				ordered[i] = a
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("executor: insert %s: missing attribute %s", rel, d.Name)
		}
	}

	reclen, err := e.cat.RecordLength(rel)
	if err != nil {
		return err
	}
	buf := make([]byte, reclen)
	for i, d := range descs {
		if err := encodeAttr(buf[d.Offset:d.Offset+d.Length], d.Type, ordered[i].Value); err != nil {
			return err
		}
	}

	slog.Debug("executor: insert", "rel", rel, "attrs", ordered)

	ins, err := heapfile.OpenInsertScan(e.dm, e.bp, rel)
	if err != nil {
		return err
	}
	defer ins.Close()

	_, err = ins.InsertRecord(buf)
	return err
}

// buildFilter resolves attrName on rel and encodes value into a
// heapfile.Filter, or returns a nil filter when attrName is empty.
func (e *Engine) buildFilter(rel, attrName string, op heapfile.Op, value string) (*heapfile.Filter, error) {
	if attrName == "" {
		return nil, nil
	}
	desc, err := e.cat.GetInfo(rel, attrName)
	if err != nil {
		return nil, err
	}
	fv := make([]byte, desc.Length)
	if err := encodeAttr(fv, desc.Type, value); err != nil {
		return nil, err
	}
	return &heapfile.Filter{
		Offset: desc.Offset,
		Length: desc.Length,
		Type:   desc.Type,
		Value:  fv,
		Op:     op,
	}, nil
}

// QUSelect scans rel (optionally filtered), projects proj onto outRel,
// and inserts each matching, projected record into outRel.
func (e *Engine) QUSelect(outRel string, proj []string, rel string, filterAttr string, op heapfile.Op, filterValue string) error {
	srcDescs, err := e.cat.GetRelInfo(rel)
	if err != nil {
		return err
	}
	srcByName := make(map[string]catalog.AttrDesc, len(srcDescs))
	for _, d := range srcDescs {
		srcByName[d.Name] = d
	}

	type projection struct {
		src catalog.AttrDesc
		dst int32
	}
	projs := make([]projection, 0, len(proj))
	var reclen int32
	for _, name := range proj {
		d, ok := srcByName[name]
		if !ok {
			return fmt.Errorf("%w: %s.%s", catalog.ErrUnknownAttr, rel, name)
		}
		projs = append(projs, projection{src: d, dst: reclen})
		reclen += d.Length
	}

	filter, err := e.buildFilter(rel, filterAttr, op, filterValue)
	if err != nil {
		return err
	}

	scan, err := heapfile.OpenScan(e.dm, e.bp, rel)
	if err != nil {
		return err
	}
	defer scan.Close()
	if err := scan.StartScan(filter); err != nil {
		return err
	}

	out, err := heapfile.OpenInsertScan(e.dm, e.bp, outRel)
	if err != nil {
		return err
	}
	defer out.Close()

	for {
		_, err := scan.ScanNext()
		if errors.Is(err, heapfile.ErrFileEOF) {
			return nil
		}
		if err != nil {
			return err
		}
		rec, err := scan.GetRecord()
		if err != nil {
			return err
		}

		outBuf := make([]byte, reclen)
		for _, p := range projs {
			copy(outBuf[p.dst:p.dst+p.src.Length], rec[p.src.Offset:p.src.Offset+p.src.Length])
		}
		if _, err := out.InsertRecord(outBuf); err != nil {
			return err
		}
	}
}

// QUDelete deletes every record of rel matching (attrName, op, value), or
// every record in rel when attrName is empty.
func (e *Engine) QUDelete(rel string, attrName string, op heapfile.Op, value string) error {
	filter, err := e.buildFilter(rel, attrName, op, value)
	if err != nil {
		return err
	}

	scan, err := heapfile.OpenScan(e.dm, e.bp, rel)
	if err != nil {
		return err
	}
	defer scan.Close()
	if err := scan.StartScan(filter); err != nil {
		return err
	}

	for {
		_, err := scan.ScanNext()
		if errors.Is(err, heapfile.ErrFileEOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := scan.DeleteRecord(); err != nil {
			return err
		}
	}
}
