package testplan

// UndoBuffer holds the most recently removed test case so it can be restored
// once. Remembering a second item overwrites the first.
//
// UndoBuffer is not safe for concurrent use; callers guard it.
type UndoBuffer struct {
	item  *TestCase
	index int
}

// Remember stores tc and the index it was removed from, replacing any
// previously remembered item.
func (b *UndoBuffer) Remember(tc TestCase, index int) {
	c := tc.Clone()
	b.item = &c
	b.index = index
}

// Consume returns the remembered item and clears the buffer. ok is false if
// nothing is remembered.
func (b *UndoBuffer) Consume() (tc TestCase, index int, ok bool) {
	if b.item == nil {
		return TestCase{}, 0, false
	}
	tc, index = *b.item, b.index
	b.item = nil
	b.index = 0
	return tc, index, true
}

// ConsumeIf is Consume restricted to the item with id. The buffer is left
// untouched when it holds a different item or nothing.
func (b *UndoBuffer) ConsumeIf(id string) (tc TestCase, index int, ok bool) {
	if b.item == nil || b.item.ID != id {
		return TestCase{}, 0, false
	}
	return b.Consume()
}

// Pending reports whether an item is waiting to be restored.
func (b *UndoBuffer) Pending() bool {
	return b.item != nil
}
