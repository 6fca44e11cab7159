package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novaheap/heapdb/internal/disk"
)

func newTestFile(t *testing.T) *disk.File {
	t.Helper()
	dm := disk.NewManager(t.TempDir())
	require.NoError(t, dm.CreateFile("t"))
	f, err := dm.OpenFile("t")
	require.NoError(t, err)
	return f
}

func TestPool_ReadPage_LoadsAndPins(t *testing.T) {
	pool := New(4)
	f := newTestFile(t)

	pageNo, p1, err := pool.AllocPage(f)
	require.NoError(t, err)
	p1.Init(pageNo)
	require.NoError(t, pool.UnpinPage(f, pageNo, true))

	p2, err := pool.ReadPage(f, pageNo)
	require.NoError(t, err)
	require.NotNil(t, p2)
	require.Equal(t, 1, int(pool.descs[0].PinCount))
}

func TestPool_AllocBuf_BufferExceededAfterTwoSweeps(t *testing.T) {
	pool := New(1)
	f := newTestFile(t)

	pageNo, p, err := pool.AllocPage(f)
	require.NoError(t, err)
	p.Init(pageNo)

	// Frame is still pinned; requesting a second page must fail.
	_, _, err = pool.AllocPage(f)
	require.ErrorIs(t, err, ErrBufferExceeded)
}

func TestPool_EvictDirtyFrameWritesBack(t *testing.T) {
	pool := New(1)
	f := newTestFile(t)

	pageNo0, p0, err := pool.AllocPage(f)
	require.NoError(t, err)
	p0.Init(pageNo0)
	p0.Buf[20] = 42
	require.NoError(t, pool.UnpinPage(f, pageNo0, true))

	// Requesting a different page forces eviction of page 0.
	pageNo1, _, err := pool.AllocPage(f)
	require.NoError(t, err)
	require.NotEqual(t, pageNo0, pageNo1)

	reloaded := make([]byte, disk.PageSize)
	require.NoError(t, f.ReadPage(pageNo0, reloaded))
	require.Equal(t, byte(42), reloaded[20])
}

func TestPool_UnpinOnZeroPinCountFails(t *testing.T) {
	pool := New(2)
	f := newTestFile(t)

	pageNo, _, err := pool.AllocPage(f)
	require.NoError(t, err)
	require.NoError(t, pool.UnpinPage(f, pageNo, false))

	err = pool.UnpinPage(f, pageNo, false)
	require.ErrorIs(t, err, ErrPageNotPinned)
}

func TestPool_FlushFile_FailsWhenPagePinned(t *testing.T) {
	pool := New(2)
	f := newTestFile(t)

	pageNo, _, err := pool.AllocPage(f)
	require.NoError(t, err)

	err = pool.FlushFile(f)
	require.ErrorIs(t, err, ErrPagePinned)

	require.NoError(t, pool.UnpinPage(f, pageNo, false))
	require.NoError(t, pool.FlushFile(f))
}
