package heapfile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novaheap/heapdb/internal/buffer"
	"github.com/novaheap/heapdb/internal/disk"
	"github.com/novaheap/heapdb/internal/page"
)

func newTestEnv(t *testing.T) (*disk.Manager, *buffer.Pool) {
	t.Helper()
	dm := disk.NewManager(t.TempDir())
	bp := buffer.New(8)
	return dm, bp
}

func TestHeapFile_CreateInsertCloseReopenRoundTrip(t *testing.T) {
	dm, bp := newTestEnv(t)
	require.NoError(t, Create(dm, bp, "T"))

	hf, err := Open(dm, bp, "T")
	require.NoError(t, err)

	ins, err := hf.OpenInsertScan()
	require.NoError(t, err)

	want := [][]byte{
		[]byte("payload-R0........"),
		[]byte("payload-R1........"),
		[]byte("payload-R2........"),
	}
	for _, rec := range want {
		_, err := ins.InsertRecord(rec)
		require.NoError(t, err)
	}
	ins.Close()
	hf.Close()

	hf2, err := Open(dm, bp, "T")
	require.NoError(t, err)
	defer hf2.Close()

	require.Equal(t, int32(3), hf2.GetRecCnt())

	scan, err := hf2.OpenScan()
	require.NoError(t, err)
	defer scan.Close()
	require.NoError(t, scan.StartScan(nil))

	var got [][]byte
	for {
		rid, err := scan.ScanNext()
		if errors.Is(err, ErrFileEOF) {
			break
		}
		require.NoError(t, err)
		rec, err := scan.GetRecord()
		require.NoError(t, err)
		cp := make([]byte, len(rec))
		copy(cp, rec)
		got = append(got, cp)
		_ = rid
	}
	require.Equal(t, want, got)
}

func TestHeapFileScan_EmptyFileReturnsEOFImmediately(t *testing.T) {
	dm, bp := newTestEnv(t)
	require.NoError(t, Create(dm, bp, "Empty"))

	hf, err := Open(dm, bp, "Empty")
	require.NoError(t, err)
	defer hf.Close()

	scan, err := hf.OpenScan()
	require.NoError(t, err)
	defer scan.Close()
	require.NoError(t, scan.StartScan(nil))

	_, err = scan.ScanNext()
	require.ErrorIs(t, err, ErrFileEOF)
}

func TestHeapFileScan_FilteredIntegerEquality(t *testing.T) {
	dm, bp := newTestEnv(t)
	require.NoError(t, Create(dm, bp, "Keyed"))

	hf, err := Open(dm, bp, "Keyed")
	require.NoError(t, err)
	ins, err := hf.OpenInsertScan()
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		rec := make([]byte, 4)
		putLE32(rec, int32(i%100))
		_, err := ins.InsertRecord(rec)
		require.NoError(t, err)
	}
	ins.Close()
	hf.Close()

	hf2, err := Open(dm, bp, "Keyed")
	require.NoError(t, err)
	defer hf2.Close()
	scan, err := hf2.OpenScan()
	require.NoError(t, err)
	defer scan.Close()

	fv := make([]byte, 4)
	putLE32(fv, 42)
	require.NoError(t, scan.StartScan(&Filter{Offset: 0, Length: 4, Type: AttrInteger, Value: fv, Op: OpEQ}))

	count := 0
	for {
		_, err := scan.ScanNext()
		if errors.Is(err, ErrFileEOF) {
			break
		}
		require.NoError(t, err)
		count++
	}
	require.Equal(t, 10, count)
}

func TestHeapFileScan_MarkAndResetScan(t *testing.T) {
	dm, bp := newTestEnv(t)
	require.NoError(t, Create(dm, bp, "Marks"))

	hf, err := Open(dm, bp, "Marks")
	require.NoError(t, err)
	ins, err := hf.OpenInsertScan()
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := ins.InsertRecord([]byte{byte(i)})
		require.NoError(t, err)
	}
	ins.Close()
	hf.Close()

	hf2, err := Open(dm, bp, "Marks")
	require.NoError(t, err)
	defer hf2.Close()
	scan, err := hf2.OpenScan()
	require.NoError(t, err)
	defer scan.Close()
	require.NoError(t, scan.StartScan(nil))

	_, err = scan.ScanNext()
	require.NoError(t, err)
	mark := scan.MarkScan()

	_, err = scan.ScanNext()
	require.NoError(t, err)
	_, err = scan.ScanNext()
	require.NoError(t, err)

	require.NoError(t, scan.ResetScan(mark))
	rid, err := scan.ScanNext()
	require.NoError(t, err)
	rec, err := scan.GetRecord()
	require.NoError(t, err)
	require.Equal(t, byte(1), rec[0])
	_ = rid
}

func TestHeapFileScan_DeleteAllRecords(t *testing.T) {
	dm, bp := newTestEnv(t)
	require.NoError(t, Create(dm, bp, "Del"))

	hf, err := Open(dm, bp, "Del")
	require.NoError(t, err)
	ins, err := hf.OpenInsertScan()
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		_, err := ins.InsertRecord([]byte{byte(i)})
		require.NoError(t, err)
	}
	ins.Close()
	hf.Close()

	hf2, err := Open(dm, bp, "Del")
	require.NoError(t, err)
	scan, err := hf2.OpenScan()
	require.NoError(t, err)
	require.NoError(t, scan.StartScan(nil))

	for {
		_, err := scan.ScanNext()
		if errors.Is(err, ErrFileEOF) {
			break
		}
		require.NoError(t, err)
		require.NoError(t, scan.DeleteRecord())
	}
	scan.Close()
	hf2.Close()

	hf3, err := Open(dm, bp, "Del")
	require.NoError(t, err)
	defer hf3.Close()
	require.Equal(t, int32(0), hf3.GetRecCnt())

	scan2, err := hf3.OpenScan()
	require.NoError(t, err)
	defer scan2.Close()
	require.NoError(t, scan2.StartScan(nil))
	_, err = scan2.ScanNext()
	require.ErrorIs(t, err, ErrFileEOF)
}

func TestInsertFileScan_InvalidRecLen(t *testing.T) {
	dm, bp := newTestEnv(t)
	require.NoError(t, Create(dm, bp, "Big"))

	hf, err := Open(dm, bp, "Big")
	require.NoError(t, err)
	defer hf.Close()
	ins, err := hf.OpenInsertScan()
	require.NoError(t, err)
	defer ins.Close()

	oversized := make([]byte, page.PageSize-page.DPFixed+1)
	_, err = ins.InsertRecord(oversized)
	require.ErrorIs(t, err, ErrInvalidRecLen)
}

func putLE32(b []byte, v int32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
