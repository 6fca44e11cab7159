package hashindex

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/novaheap/heapdb/internal/disk"
)

func TestTable_InsertLookupRemove(t *testing.T) {
	tbl := New(4)
	k := Key{File: disk.FileID(uuid.New()), PageNo: 5}

	require.NoError(t, tbl.Insert(k, 2))

	frame, err := tbl.Lookup(k)
	require.NoError(t, err)
	require.Equal(t, 2, frame)

	require.ErrorIs(t, tbl.Insert(k, 3), ErrAlreadyPresent)

	require.NoError(t, tbl.Remove(k))
	_, err = tbl.Lookup(k)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTable_LookupMissing(t *testing.T) {
	tbl := New(4)
	_, err := tbl.Lookup(Key{File: disk.FileID(uuid.New()), PageNo: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTable_ChainsWithinSameBucket(t *testing.T) {
	tbl := New(1) // force every key into the same bucket
	fid := disk.FileID(uuid.New())
	for pn := int32(0); pn < 10; pn++ {
		require.NoError(t, tbl.Insert(Key{File: fid, PageNo: pn}, int(pn)))
	}
	for pn := int32(0); pn < 10; pn++ {
		frame, err := tbl.Lookup(Key{File: fid, PageNo: pn})
		require.NoError(t, err)
		require.Equal(t, int(pn), frame)
	}
}
