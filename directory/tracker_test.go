package directory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velocityboy/rt11fs/directory"
	"github.com/velocityboy/rt11fs/imagetest"
)

// trackerFixture mounts a small volume so the tracker has real entries to
// inspect; it only records moves of file entries.
func trackerFixture(t *testing.T) *directory.Directory {
	t.Helper()

	builder := imagetest.NewBuilder(256)
	builder.FormatWithEntries(8, [][]imagetest.Entry{
		{
			imagetest.File("F1", 1),
			imagetest.File("F2", 1),
			imagetest.File("F3", 1),
			imagetest.Free(imagetest.RestOfData),
			imagetest.EndOfSegment(),
		},
	}, 0)

	dir, _ := mountBuilder(t, builder)
	return dir
}

func ptrAt(t *testing.T, dir *directory.Directory, segment, index int) directory.DirPtr {
	t.Helper()
	ptr, ok := dir.PointerAt(segment, index)
	require.True(t, ok, "no entry at %d:%d", segment, index)
	return ptr
}

// Moves in separate transactions chain: A->B then B->C records A->C.
func TestChangeTracker__ChainsAcrossTransactions(t *testing.T) {
	dir := trackerFixture(t)
	tracker := directory.NewChangeTracker()

	a := ptrAt(t, dir, 1, 0)
	b := ptrAt(t, dir, 1, 1)
	c := ptrAt(t, dir, 1, 2)

	tracker.BeginTransaction()
	tracker.MoveDirEntry(&a, &b)
	tracker.EndTransaction()

	tracker.BeginTransaction()
	tracker.MoveDirEntry(&b, &c)
	tracker.EndTransaction()

	moves := tracker.Moves()
	require.Len(t, moves, 1)
	assert.Equal(t, 0, moves[0].OldIndex)
	assert.Equal(t, 2, moves[0].NewIndex)
}

// Moves within one transaction never collapse; a block shift of consecutive
// entries is N separate records.
func TestChangeTracker__NoChainingWithinATransaction(t *testing.T) {
	dir := trackerFixture(t)
	tracker := directory.NewChangeTracker()

	a := ptrAt(t, dir, 1, 0)
	b := ptrAt(t, dir, 1, 1)
	c := ptrAt(t, dir, 1, 2)

	tracker.BeginTransaction()
	tracker.MoveDirEntry(&b, &c)
	tracker.MoveDirEntry(&a, &b)
	tracker.EndTransaction()

	assert.Len(t, tracker.Moves(), 2)
}

// Entries that wind up back where they started disappear from the log.
func TestChangeTracker__DropsNoOpMoves(t *testing.T) {
	dir := trackerFixture(t)
	tracker := directory.NewChangeTracker()

	a := ptrAt(t, dir, 1, 0)
	b := ptrAt(t, dir, 1, 1)

	tracker.BeginTransaction()
	tracker.MoveDirEntry(&a, &b)
	tracker.EndTransaction()

	tracker.BeginTransaction()
	tracker.MoveDirEntry(&b, &a)
	tracker.EndTransaction()

	assert.Empty(t, tracker.Moves())
}

// Free space and end of segment markers are invisible to the tracker.
func TestChangeTracker__IgnoresNonFiles(t *testing.T) {
	dir := trackerFixture(t)
	tracker := directory.NewChangeTracker()

	free := ptrAt(t, dir, 1, 3)
	eos := ptrAt(t, dir, 1, 4)
	dst := ptrAt(t, dir, 1, 0)

	tracker.BeginTransaction()
	tracker.MoveDirEntry(&free, &dst)
	tracker.MoveDirEntry(&eos, &dst)
	tracker.EndTransaction()

	assert.Empty(t, tracker.Moves())
}
