package grid

// slot holds one record. A removed record leaves a tombstone so indices
// issued earlier never point at a different record.
type slot[R any] struct {
	item R
	row  *Row[R]
	live bool
}

// slots is a dense arena of record slots. The grid index of a record is
// the position of its slot; positions are never reused or compacted.
type slots[R any] struct {
	s    []slot[R]
	live int
}

func (s *slots[R]) add(item R, row *Row[R]) int {
	s.s = append(s.s, slot[R]{item: item, row: row, live: true})
	s.live++
	return len(s.s) - 1
}

// reserve returns the index the next add will use.
func (s *slots[R]) reserve() int { return len(s.s) }

// get returns a live slot.
func (s *slots[R]) get(i int) (*slot[R], bool) {
	if i < 0 || i >= len(s.s) || !s.s[i].live {
		return nil, false
	}
	return &s.s[i], true
}

// tombstone marks slot i removed and clears its contents.
func (s *slots[R]) tombstone(i int) bool {
	sl, ok := s.get(i)
	if !ok {
		return false
	}
	var zero R
	sl.item = zero
	sl.row = nil
	sl.live = false
	s.live--
	return true
}

// isTombstone reports whether i was issued and has since been removed.
func (s *slots[R]) isTombstone(i int) bool {
	return i >= 0 && i < len(s.s) && !s.s[i].live
}

func (s *slots[R]) len() int { return s.live }

// issued is the number of indices ever handed out, tombstones included.
func (s *slots[R]) issued() int { return len(s.s) }

func (s *slots[R]) find(item R, equal func(a, b R) bool) (int, bool) {
	for i := range s.s {
		if s.s[i].live && equal(s.s[i].item, item) {
			return i, true
		}
	}
	return 0, false
}

// each visits live slots in index order until fn returns false.
func (s *slots[R]) each(fn func(i int, sl *slot[R]) bool) {
	for i := range s.s {
		if !s.s[i].live {
			continue
		}
		if !fn(i, &s.s[i]) {
			return
		}
	}
}
