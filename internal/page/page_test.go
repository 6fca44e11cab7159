package page

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPage(t *testing.T, pageNo int32) *Page {
	t.Helper()
	buf := make([]byte, PageSize)
	p, err := Wrap(buf, pageNo)
	require.NoError(t, err)
	p.Init(pageNo)
	return p
}

func TestPage_InsertGetRoundTrip(t *testing.T) {
	p := newTestPage(t, 3)

	rid, err := p.InsertRecord([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, int32(3), rid.PageNo)
	require.Equal(t, int32(0), rid.SlotNo)

	rec, err := p.GetRecord(rid)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), rec)
}

func TestPage_DeleteTombstonesSlot(t *testing.T) {
	p := newTestPage(t, 0)
	rid, err := p.InsertRecord([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, p.DeleteRecord(rid))

	_, err = p.GetRecord(rid)
	require.ErrorIs(t, err, ErrInvalidSlot)

	err = p.DeleteRecord(rid)
	require.ErrorIs(t, err, ErrInvalidSlot)
}

func TestPage_FirstAndNextRecordSkipTombstones(t *testing.T) {
	p := newTestPage(t, 0)
	r0, _ := p.InsertRecord([]byte("a"))
	r1, _ := p.InsertRecord([]byte("b"))
	r2, _ := p.InsertRecord([]byte("c"))
	require.NoError(t, p.DeleteRecord(r1))

	first, err := p.FirstRecord()
	require.NoError(t, err)
	require.Equal(t, r0, first)

	next, err := p.NextRecord(first)
	require.NoError(t, err)
	require.Equal(t, r2, next)

	_, err = p.NextRecord(next)
	require.ErrorIs(t, err, ErrEndOfPage)
}

func TestPage_EmptyPageHasNoRecords(t *testing.T) {
	p := newTestPage(t, 0)
	_, err := p.FirstRecord()
	require.ErrorIs(t, err, ErrNoRecords)
}

func TestPage_InsertExactlyFillsPage(t *testing.T) {
	p := newTestPage(t, 0)
	max := PageSize - DPFixed
	rec := make([]byte, max)
	_, err := p.InsertRecord(rec)
	require.NoError(t, err)

	// One more byte worth of slot overhead cannot fit.
	_, err = p.InsertRecord([]byte{1})
	require.ErrorIs(t, err, ErrNoSpace)
}

func TestPage_NextPageLinkDefaultsToNegativeOne(t *testing.T) {
	p := newTestPage(t, 0)
	require.Equal(t, int32(-1), p.NextPage())
	p.SetNextPage(7)
	require.Equal(t, int32(7), p.NextPage())
}
