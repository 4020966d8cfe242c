package directory

// Move records the net relocation of one directory entry: the position it
// held before a mutating operation began and the position it holds now. The
// open file table consumes these to keep live handles valid.
type Move struct {
	OldSegment int
	OldIndex   int
	NewSegment int
	NewIndex   int
}

type moveRecord struct {
	Move
	transaction int
}

// ChangeTracker collapses a sequence of entry relocations into net moves.
//
// Moves are added in transactions. Transactions are atomic: if 1:1 moves to
// 1:2 and 1:2 moves to 1:3 in the same transaction, both are recorded. But if
// 1:1 moves to 1:2 in one transaction and 1:2 moves to 1:3 in a later one,
// the chain collapses to 1:1 -> 1:3. This distinction is what makes a block
// move of several consecutive entries unambiguous.
type ChangeTracker struct {
	transaction   int
	inTransaction bool
	moves         []moveRecord
}

// NewChangeTracker creates an empty tracker.
func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{transaction: -1}
}

// BeginTransaction starts a transaction. Transactions cannot nest.
func (t *ChangeTracker) BeginTransaction() {
	if t.inTransaction {
		panic("directory change transactions cannot nest")
	}
	t.transaction++
	t.inTransaction = true
}

// MoveDirEntry adds an entry relocation to the current transaction. Only
// file entries matter to handle fixup, so moves of free space and end of
// segment markers are not recorded.
func (t *ChangeTracker) MoveDirEntry(src, dst *DirPtr) {
	if !t.inTransaction {
		panic("directory entry moved outside a transaction")
	}

	if !(src.HasStatus(StatusTentative) || src.HasStatus(StatusPermanent)) {
		return
	}

	// An entry already moved in an earlier transaction that is moving again
	// just has its destination rewritten.
	for i := range t.moves {
		m := &t.moves[i]
		if m.NewSegment == src.Segment() && m.NewIndex == src.Index() &&
			m.transaction != t.transaction {
			m.transaction = t.transaction
			m.NewSegment = dst.Segment()
			m.NewIndex = dst.Index()
			return
		}
	}

	t.moves = append(t.moves, moveRecord{
		Move: Move{
			OldSegment: src.Segment(),
			OldIndex:   src.Index(),
			NewSegment: dst.Segment(),
			NewIndex:   dst.Index(),
		},
		transaction: t.transaction,
	})
}

// EndTransaction finishes a transaction. Entries that have wound up back
// where they started are dropped.
func (t *ChangeTracker) EndTransaction() {
	if !t.inTransaction {
		panic("transaction ended but none is open")
	}
	t.inTransaction = false

	kept := t.moves[:0]
	for _, m := range t.moves {
		if m.OldSegment != m.NewSegment || m.OldIndex != m.NewIndex {
			kept = append(kept, m)
		}
	}
	t.moves = kept
}

// Moves returns the accumulated net moves.
func (t *ChangeTracker) Moves() []Move {
	moves := make([]Move, len(t.moves))
	for i, m := range t.moves {
		moves[i] = m.Move
	}
	return moves
}
